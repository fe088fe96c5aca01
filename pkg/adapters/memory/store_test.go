package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pinboard/pkg/core"
)

func TestStore_ReadWrite(t *testing.T) {
	ctx := context.Background()
	s := NewStore(0)

	_, err := s.Read(ctx, "appStateV1")
	assert.ErrorIs(t, err, core.ErrNotFound)

	buf := []byte("state")
	require.NoError(t, s.Write(ctx, "appStateV1", buf))
	buf[0] = 'X'

	got, err := s.Read(ctx, "appStateV1")
	require.NoError(t, err)
	assert.Equal(t, "state", string(got), "store must copy on write")

	require.NoError(t, s.Delete(ctx, "appStateV1"))
	_, err = s.Read(ctx, "appStateV1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStore_Quota(t *testing.T) {
	ctx := context.Background()
	s := NewStore(10)

	require.NoError(t, s.Write(ctx, "a", []byte("12345")))
	require.NoError(t, s.Write(ctx, "a", []byte("1234567890")), "overwrite counts only the new value")
	err := s.Write(ctx, "b", []byte("1"))
	assert.ErrorIs(t, err, core.ErrQuotaExceeded)

	got, _ := s.Read(ctx, "a")
	assert.Equal(t, "1234567890", string(got), "failed write leaves prior value intact")
}

func TestStore_FailWrites(t *testing.T) {
	ctx := context.Background()
	s := NewStore(0)
	boom := errors.New("disk on fire")

	s.FailWrites(boom)
	assert.ErrorIs(t, s.Write(ctx, "a", []byte("x")), boom)
	s.FailWrites(nil)
	assert.NoError(t, s.Write(ctx, "a", []byte("x")))
}
