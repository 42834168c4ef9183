package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-qa/internal/chunker"
	"document-qa/internal/models"
)

type fakeIndex struct {
	closed bool
}

func (f *fakeIndex) Query(ctx context.Context, question string, k int) ([]models.ScoredChunk, error) {
	return nil, nil
}
func (f *fakeIndex) Count() int { return 1 }
func (f *fakeIndex) Close() error {
	f.closed = true
	return nil
}

// fakeBuilder blocks in Build until release is closed when release is set
type fakeBuilder struct {
	built   []*fakeIndex
	started chan struct{}
	release chan struct{}
}

func (b *fakeBuilder) Build(ctx context.Context, chunks []models.Chunk) (models.VectorIndex, error) {
	if b.release != nil {
		close(b.started)
		<-b.release
	}
	idx := &fakeIndex{}
	b.built = append(b.built, idx)
	return idx, nil
}

type staticExtractor struct{}

func (staticExtractor) Extract(ctx context.Context, name string, data []byte) ([]models.TextSegment, error) {
	return []models.TextSegment{{Content: string(data), Source: models.SourceText}}, nil
}

type echoGenerator struct{}

func (echoGenerator) Generate(ctx context.Context, question string, chunks []models.ScoredChunk) (string, error) {
	return question, nil
}

type blockingGenerator struct {
	started chan struct{}
	release chan struct{}
}

func (g blockingGenerator) Generate(ctx context.Context, question string, chunks []models.ScoredChunk) (string, error) {
	close(g.started)
	<-g.release
	return "done", nil
}

func newFakeOrchestrator(t *testing.T, builder *fakeBuilder) *Orchestrator {
	t.Helper()
	return newFakeOrchestratorWith(t, builder, echoGenerator{})
}

func newFakeOrchestratorWith(t *testing.T, builder *fakeBuilder, gen AnswerGenerator) *Orchestrator {
	t.Helper()
	chk, err := chunker.New(0, 0)
	require.NoError(t, err)
	return NewOrchestrator(staticExtractor{}, chk, builder, gen, 0)
}

func snapshotWithin(t *testing.T, s *Session, d time.Duration) Snapshot {
	t.Helper()
	out := make(chan Snapshot, 1)
	go func() { out <- s.Snapshot() }()
	select {
	case snap := <-out:
		return snap
	case <-time.After(d):
		t.Fatalf("snapshot did not return within %s", d)
		return Snapshot{}
	}
}

func TestManager(t *testing.T) {
	ctx := context.Background()

	t.Run("ShouldCreateAndGetSessions", func(t *testing.T) {
		m, err := NewManager(4)
		require.NoError(t, err)

		s, err := m.Create()
		require.NoError(t, err)
		assert.NotEmpty(t, s.ID)
		assert.Equal(t, StateIdle, s.State())

		got, err := m.Get(s.ID)
		require.NoError(t, err)
		assert.Same(t, s, got)
		assert.Equal(t, 1, m.Len())
	})

	t.Run("ShouldReportUnknownSession", func(t *testing.T) {
		m, err := NewManager(4)
		require.NoError(t, err)
		_, err = m.Get("missing")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("ShouldIsolateSessions", func(t *testing.T) {
		builder := &fakeBuilder{}
		o := newFakeOrchestrator(t, builder)
		m, err := NewManager(4)
		require.NoError(t, err)
		a, _ := m.Create()
		b, _ := m.Create()

		_, err = o.Upload(ctx, a, "a.txt", []byte("alpha"))
		require.NoError(t, err)

		assert.Equal(t, StateReady, a.State())
		assert.Equal(t, StateIdle, b.State())
		assert.Nil(t, b.Snapshot().Document)
	})

	t.Run("ShouldCloseIndexOnEviction", func(t *testing.T) {
		builder := &fakeBuilder{}
		o := newFakeOrchestrator(t, builder)
		m, err := NewManager(1)
		require.NoError(t, err)

		first, _ := m.Create()
		_, err = o.Upload(ctx, first, "a.txt", []byte("alpha"))
		require.NoError(t, err)

		_, err = m.Create()
		require.NoError(t, err)

		require.Len(t, builder.built, 1)
		assert.True(t, builder.built[0].closed)
		_, err = m.Get(first.ID)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("ShouldCloseIndexOnDelete", func(t *testing.T) {
		builder := &fakeBuilder{}
		o := newFakeOrchestrator(t, builder)
		m, err := NewManager(2)
		require.NoError(t, err)

		s, _ := m.Create()
		_, err = o.Upload(ctx, s, "a.txt", []byte("alpha"))
		require.NoError(t, err)

		assert.True(t, m.Delete(s.ID))
		assert.True(t, builder.built[0].closed)
		assert.Zero(t, m.Len())
	})

	t.Run("ShouldCloseReplacedIndex", func(t *testing.T) {
		builder := &fakeBuilder{}
		o := newFakeOrchestrator(t, builder)
		s := New("s1")

		_, err := o.Upload(ctx, s, "a.txt", []byte("alpha"))
		require.NoError(t, err)
		_, err = o.Upload(ctx, s, "b.txt", []byte("beta"))
		require.NoError(t, err)

		require.Len(t, builder.built, 2)
		assert.True(t, builder.built[0].closed)
		assert.False(t, builder.built[1].closed)

		o.Reset(s)
		assert.True(t, builder.built[1].closed)
	})
}

func TestOperationVisibility(t *testing.T) {
	ctx := context.Background()

	t.Run("ShouldExposeAnsweringStateWhileGenerating", func(t *testing.T) {
		gen := blockingGenerator{started: make(chan struct{}), release: make(chan struct{})}
		o := newFakeOrchestratorWith(t, &fakeBuilder{}, gen)
		s := New("s1")

		done := make(chan Exchange, 1)
		go func() { done <- o.Ask(ctx, s, "what now?") }()
		<-gen.started

		snap := snapshotWithin(t, s, time.Second)
		assert.Equal(t, StateAnswering, snap.State)
		assert.Equal(t, "what now?", snap.Pending)
		require.Len(t, snap.History, 1)
		assert.Equal(t, models.RoleUser, snap.History[0].Role)

		close(gen.release)
		ex := <-done
		assert.Equal(t, "done", ex.Answer)
		snap = s.Snapshot()
		assert.Equal(t, StateIdle, snap.State)
		assert.Empty(t, snap.Pending)
		assert.Len(t, snap.History, 2)
	})

	t.Run("ShouldExposeLoadingStateWhileIndexing", func(t *testing.T) {
		builder := &fakeBuilder{started: make(chan struct{}), release: make(chan struct{})}
		o := newFakeOrchestrator(t, builder)
		s := New("s1")

		done := make(chan error, 1)
		go func() {
			_, err := o.Upload(ctx, s, "a.txt", []byte("alpha"))
			done <- err
		}()
		<-builder.started

		assert.Equal(t, StateDocumentLoading, snapshotWithin(t, s, time.Second).State)
		close(builder.release)
		require.NoError(t, <-done)
		assert.Equal(t, StateReady, s.State())
	})

	t.Run("ShouldDiscardIndexBuiltForEvictedSession", func(t *testing.T) {
		builder := &fakeBuilder{started: make(chan struct{}), release: make(chan struct{})}
		o := newFakeOrchestrator(t, builder)
		m, err := NewManager(2)
		require.NoError(t, err)
		s, err := m.Create()
		require.NoError(t, err)

		done := make(chan error, 1)
		go func() {
			_, err := o.Upload(ctx, s, "a.txt", []byte("alpha"))
			done <- err
		}()
		<-builder.started

		evicted := make(chan bool, 1)
		go func() { evicted <- m.Delete(s.ID) }()
		select {
		case ok := <-evicted:
			assert.True(t, ok)
		case <-time.After(time.Second):
			t.Fatal("eviction blocked on the running upload")
		}

		close(builder.release)
		require.ErrorIs(t, <-done, ErrSessionClosed)
		require.Len(t, builder.built, 1)
		assert.True(t, builder.built[0].closed)

		snap := s.Snapshot()
		assert.Equal(t, StateIdle, snap.State)
		assert.Nil(t, snap.Document)
		assert.Zero(t, snap.Chunks)

		_, err = o.Upload(ctx, s, "b.txt", []byte("beta"))
		assert.ErrorIs(t, err, ErrSessionClosed)
	})
}
