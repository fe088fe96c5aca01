package persist_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pinboard/pkg/adapters/memory"
	"github.com/aretw0/pinboard/pkg/core"
	"github.com/aretw0/pinboard/pkg/persist"
)

// countingStore counts writes on top of the in-memory store.
type countingStore struct {
	*memory.Store
	writes atomic.Int32
}

func (c *countingStore) Write(ctx context.Context, key string, value []byte) error {
	c.writes.Add(1)
	return c.Store.Write(ctx, key, value)
}

func newFixture(t *testing.T, opts ...persist.Option) (*core.Document, *countingStore, *persist.Gateway) {
	t.Helper()
	doc := core.NewDocument()
	store := &countingStore{Store: memory.NewStore(0)}
	return doc, store, persist.New(store, doc, opts...)
}

func TestGateway_SaveLoad(t *testing.T) {
	ctx := context.Background()
	doc, _, g := newFixture(t)

	got, err := g.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got, "nothing stored yet")

	doc.AddNote(core.Note{Left: 80, Top: 80, Width: 250, Height: 105, Text1: "abc]]>def"})
	doc.SetDarkMode(true)
	require.NoError(t, g.Save(ctx, nil))

	got, err = g.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, doc.Capture().Equal(*got))
}

func TestGateway_SaveExplicitSnapshot(t *testing.T) {
	ctx := context.Background()
	doc, _, g := newFixture(t)
	doc.AddNote(core.Note{Text1: "live"})

	explicit := core.Snapshot{Draggables: []core.Note{{Text1: "explicit", Z: 1}}}
	require.NoError(t, g.Save(ctx, &explicit))

	got, err := g.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "explicit", got.Draggables[0].Text1)
}

func TestGateway_LoadCorrupt(t *testing.T) {
	var logs bytes.Buffer
	doc := core.NewDocument()
	store := memory.NewStore(0)
	store.Set(persist.StateKey, []byte("{definitely not json"))
	g := persist.New(store, doc, persist.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	got, err := g.Load(context.Background())
	assert.Nil(t, got)
	assert.ErrorIs(t, err, core.ErrCorrupt)
	assert.Contains(t, logs.String(), "corrupt")
}

func TestGateway_SaveFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	doc := core.NewDocument()
	store := memory.NewStore(64)
	g := persist.New(store, doc, persist.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	doc.AddNote(core.Note{Text1: "a note far too large for a sixty-four byte quota"})
	err := g.Save(ctx, nil)
	assert.ErrorIs(t, err, core.ErrQuotaExceeded)
	assert.Contains(t, logs.String(), "save failed")
	assert.Equal(t, 1, doc.Len(), "live state is unaffected")

	state := g.State().(persist.GatewayState)
	assert.Equal(t, 1, state.Failures)
	assert.NotEmpty(t, state.LastError)
}

func TestGateway_RequestSaveDebounces(t *testing.T) {
	doc, store, g := newFixture(t, persist.WithDebounce(30*time.Millisecond))

	for i := 0; i < 20; i++ {
		doc.AddNote(core.Note{})
		g.RequestSave()
		time.Sleep(time.Millisecond)
	}
	assert.True(t, g.Pending())

	require.Eventually(t, func() bool { return store.writes.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), store.writes.Load(), "a burst produces one write")

	got, err := g.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, got.Draggables, 20, "the write captures the state at fire time")
}

func TestGateway_RequestThrottledSave(t *testing.T) {
	now := time.Unix(1000, 0)
	doc, store, g := newFixture(t, persist.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	doc.AddNote(core.Note{Left: 1})
	assert.True(t, g.RequestThrottledSave(ctx))
	require.NoError(t, g.Flush(ctx))
	for i := 0; i < 50; i++ {
		now = now.Add(4 * time.Millisecond)
		assert.False(t, g.RequestThrottledSave(ctx), "call %d inside the window", i)
	}
	now = now.Add(50 * time.Millisecond)
	assert.True(t, g.RequestThrottledSave(ctx))

	require.NoError(t, g.Flush(ctx))
	assert.Equal(t, int32(2), store.writes.Load())
}

func TestGateway_ClockSurvivesLaterThrottle(t *testing.T) {
	now := time.Unix(1000, 0)
	_, store, g := newFixture(t,
		persist.WithClock(func() time.Time { return now }),
		persist.WithThrottle(time.Hour),
	)
	ctx := context.Background()

	assert.True(t, g.RequestThrottledSave(ctx))
	require.NoError(t, g.Flush(ctx))
	assert.False(t, g.RequestThrottledSave(ctx))
	now = now.Add(time.Hour)
	assert.True(t, g.RequestThrottledSave(ctx), "the injected clock drives the hour-long window")

	require.NoError(t, g.Flush(ctx))
	assert.Equal(t, int32(2), store.writes.Load())
}

// gatedStore blocks writes whose payload contains match until release is closed.
type gatedStore struct {
	*memory.Store
	match   string
	entered chan struct{}
	release chan struct{}
}

func (s *gatedStore) Write(ctx context.Context, key string, value []byte) error {
	if bytes.Contains(value, []byte(s.match)) {
		close(s.entered)
		<-s.release
	}
	return s.Store.Write(ctx, key, value)
}

func TestGateway_ThrottledWriteNeverOverwritesLaterSave(t *testing.T) {
	ctx := context.Background()
	doc := core.NewDocument()
	store := &gatedStore{
		Store:   memory.NewStore(0),
		match:   `"left":300`,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	g := persist.New(store, doc)

	id := doc.AddNote(core.Note{Left: 300})
	require.True(t, g.RequestThrottledSave(ctx))
	<-store.entered

	require.NoError(t, doc.UpdateNote(id, func(n *core.Note) error {
		n.Left = 0
		return nil
	}))
	saved := make(chan error, 1)
	go func() { saved <- g.Save(ctx, nil) }()

	close(store.release)
	require.NoError(t, <-saved)
	require.NoError(t, g.Flush(ctx))

	got, err := g.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Draggables, 1)
	assert.Equal(t, 0, got.Draggables[0].Left, "the later save is the durable one")
}

func TestGateway_QueuedWritesKeepRequestOrder(t *testing.T) {
	ctx := context.Background()
	doc := core.NewDocument()
	store := &gatedStore{
		Store:   memory.NewStore(0),
		match:   `"left":100`,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	g := persist.New(store, doc)
	move := func(id string, left int) {
		require.NoError(t, doc.UpdateNote(id, func(n *core.Note) error {
			n.Left = left
			return nil
		}))
	}

	id := doc.AddNote(core.Note{Left: 100})
	first := make(chan error, 1)
	go func() { first <- g.Save(ctx, nil) }()
	<-store.entered

	// Both writes queue behind the blocked one, in either order.
	move(id, 300)
	require.True(t, g.RequestThrottledSave(ctx))
	move(id, 0)
	last := make(chan error, 1)
	go func() { last <- g.Save(ctx, nil) }()

	close(store.release)
	require.NoError(t, <-first)
	require.NoError(t, <-last)
	require.NoError(t, g.Flush(ctx))

	got, err := g.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Draggables[0].Left, "the throttled write is older and must not win")
}

func TestGateway_FlushAndClose(t *testing.T) {
	ctx := context.Background()
	doc, store, g := newFixture(t, persist.WithDebounce(time.Hour))

	doc.AddNote(core.Note{})
	g.RequestSave()
	require.NoError(t, g.Flush(ctx))
	assert.Equal(t, int32(1), store.writes.Load())
	assert.False(t, g.Pending())

	g.RequestSave()
	require.NoError(t, g.Close(ctx))
	assert.Equal(t, int32(2), store.writes.Load(), "close flushes the pending save")

	g.RequestSave()
	assert.False(t, g.Pending(), "closed gateway ignores new requests")
}

func TestGateway_PutGet(t *testing.T) {
	ctx := context.Background()
	_, _, g := newFixture(t)

	require.NoError(t, g.Put(ctx, "historyV1", []byte(`{"undo":[]}`)))
	got, err := g.Get(ctx, "historyV1")
	require.NoError(t, err)
	assert.Equal(t, `{"undo":[]}`, string(got))

	assert.Error(t, g.Put(ctx, persist.StateKey, []byte("{}")))

	_, err = g.Get(ctx, "missing")
	assert.True(t, errors.Is(err, core.ErrNotFound))
}
