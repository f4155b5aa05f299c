package reading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/arcanaland/tarotreading/internal/interpret"
	"github.com/arcanaland/tarotreading/internal/spread"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestTracker(t *testing.T, opts ...TrackerOption) *Tracker {
	t.Helper()
	tr := NewTracker(testCards(t), testDealer(), opts...)
	t.Cleanup(tr.Close)
	return tr
}

func startDrawing(t *testing.T, tr *Tracker, s spread.Spread) Snapshot {
	t.Helper()
	snap, err := tr.Start(s)
	require.NoError(t, err)
	require.NoError(t, tr.SelectCategory(love))
	require.NoError(t, tr.SelectSituation("짝사랑"))
	return snap
}

func TestTracker_NoSession(t *testing.T) {
	tr := newTestTracker(t)

	_, err := tr.Current()
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = tr.Restart()
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = tr.Reveal(0)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.ErrorIs(t, tr.SelectCategory(love), ErrNoSession)
	assert.False(t, tr.Apply("x", &interpret.Result{}))
}

func TestTracker_CompletesAfterRevealDelay(t *testing.T) {
	completed := make(chan Snapshot, 1)
	tr := newTestTracker(t,
		WithRevealDelay(20*time.Millisecond),
		WithOnComplete(func(s Snapshot) { completed <- s }),
	)
	startDrawing(t, tr, spread.Three)

	for i := 0; i < 3; i++ {
		_, err := tr.Reveal(i)
		require.NoError(t, err)
	}

	cur, err := tr.Current()
	require.NoError(t, err)
	assert.Equal(t, DrawingCards, cur.Step)

	_, err = tr.Reveal(3)
	assert.ErrorIs(t, err, ErrDrawLimitReached)

	select {
	case snap := <-completed:
		assert.Equal(t, ShowingResult, snap.Step)
		assert.Len(t, snap.Drawn, 3)
	case <-time.After(2 * time.Second):
		t.Fatal("reading did not complete")
	}

	cur, err = tr.Current()
	require.NoError(t, err)
	assert.Equal(t, ShowingResult, cur.Step)
}

func TestTracker_RepeatedRevealSchedulesOnce(t *testing.T) {
	var calls int
	done := make(chan struct{}, 4)
	tr := newTestTracker(t,
		WithRevealDelay(10*time.Millisecond),
		WithOnComplete(func(Snapshot) { calls++; done <- struct{}{} }),
	)
	startDrawing(t, tr, spread.Single)

	for i := 0; i < 3; i++ {
		_, err := tr.Reveal(4)
		require.NoError(t, err)
	}
	<-done
	tr.Close()
	assert.Equal(t, 1, calls)
}

func TestTracker_RestartCancelsPendingCompletion(t *testing.T) {
	completed := make(chan Snapshot, 1)
	tr := newTestTracker(t,
		WithRevealDelay(50*time.Millisecond),
		WithOnComplete(func(s Snapshot) { completed <- s }),
	)
	first := startDrawing(t, tr, spread.Single)
	_, err := tr.Reveal(0)
	require.NoError(t, err)

	second, err := tr.Restart()
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, ChoosingCategory, second.Step)
	assert.Equal(t, spread.Single, second.Spread)
	assert.Empty(t, second.Drawn)

	select {
	case <-completed:
		t.Fatal("discarded reading completed")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestTracker_ApplyDiscardsStaleResult(t *testing.T) {
	completed := make(chan Snapshot, 2)
	tr := newTestTracker(t,
		WithRevealDelay(0),
		WithOnComplete(func(s Snapshot) { completed <- s }),
	)

	old := startDrawing(t, tr, spread.Single)
	_, err := tr.Reveal(0)
	require.NoError(t, err)
	<-completed

	current := startDrawing(t, tr, spread.Single)
	_, err = tr.Reveal(1)
	require.NoError(t, err)
	<-completed

	stale := &interpret.Result{OverallMessage: "old"}
	fresh := &interpret.Result{OverallMessage: "new"}

	assert.False(t, tr.Apply(old.ID, stale))
	snap, err := tr.Current()
	require.NoError(t, err)
	assert.Nil(t, snap.Result)

	assert.True(t, tr.Apply(current.ID, fresh))
	assert.False(t, tr.Apply(old.ID, stale))

	snap, err = tr.Current()
	require.NoError(t, err)
	assert.Equal(t, "new", snap.Result.OverallMessage)
}

func TestTracker_ApplyBeforeResultStep(t *testing.T) {
	tr := newTestTracker(t)
	snap := startDrawing(t, tr, spread.Three)
	assert.False(t, tr.Apply(snap.ID, &interpret.Result{}))
	assert.False(t, tr.Apply(snap.ID, nil))
}

func TestTracker_ChangeSpread(t *testing.T) {
	tr := newTestTracker(t, WithLayoutSize(15))
	startDrawing(t, tr, spread.Single)

	require.NoError(t, tr.ChangeSpread(spread.Celtic))
	snap, err := tr.Current()
	require.NoError(t, err)
	assert.Equal(t, spread.Celtic, snap.Spread)
	assert.Len(t, snap.Layout, 15)
}

func TestTracker_StartUnknownSpread(t *testing.T) {
	tr := newTestTracker(t)
	_, err := tr.Start(spread.Spread("seven"))
	assert.ErrorIs(t, err, spread.ErrUnknownSpread)
}

func TestTracker_CloseStopsPendingTimer(t *testing.T) {
	called := false
	tr := NewTracker(testCards(t), testDealer(),
		WithRevealDelay(time.Hour),
		WithOnComplete(func(Snapshot) { called = true }),
	)
	startDrawing(t, tr, spread.Single)
	_, err := tr.Reveal(0)
	require.NoError(t, err)

	tr.Close()
	assert.False(t, called)
}
