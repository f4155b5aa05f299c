package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arcanaland/tarotreading/internal/catalog"
	"github.com/arcanaland/tarotreading/internal/deck"
	"github.com/arcanaland/tarotreading/internal/interpret"
	"github.com/arcanaland/tarotreading/internal/llm"
	"github.com/arcanaland/tarotreading/internal/reading"
	"github.com/arcanaland/tarotreading/internal/spread"
)

type fakeInterpreter struct {
	requests []interpret.Request
	err      error
}

func (f *fakeInterpreter) Interpret(ctx context.Context, req interpret.Request) (*interpret.Result, error) {
	f.requests = append(f.requests, req)
	labels := spread.Labels(req.Spread, len(req.Cards))
	if f.err != nil {
		return interpret.Fallback(labels, interpret.UnavailableMessage), f.err
	}
	entries := make([]interpret.Entry, len(labels))
	for i, l := range labels {
		entries[i] = interpret.Entry{Position: l, Message: "해석 " + l}
	}
	return &interpret.Result{Interpretations: entries, OverallMessage: "전체 조언"}, nil
}

func newTestSession(t *testing.T, input string, interp interpreter) (*readingSession, *bytes.Buffer) {
	t.Helper()
	cards, err := catalog.DefaultCards()
	require.NoError(t, err)
	concerns, err := catalog.DefaultConcerns()
	require.NoError(t, err)

	completed := make(chan reading.Snapshot, 1)
	tracker := reading.NewTracker(cards.All(), deck.NewRandomizerFromSource(rand.NewPCG(1, 2)),
		reading.WithRevealDelay(0),
		reading.WithOnComplete(func(s reading.Snapshot) { completed <- s }),
	)
	t.Cleanup(tracker.Close)

	out := &bytes.Buffer{}
	return &readingSession{
		lines:       scanLines(strings.NewReader(input)),
		out:         out,
		tracker:     tracker,
		concerns:    concerns.All(),
		interpreter: interp,
		completed:   completed,
		width:       200,
		logger:      zap.NewNop(),
	}, out
}

func TestReadingSession_ThreeCardReading(t *testing.T) {
	interp := &fakeInterpreter{}
	// category 1, situation 2, cards 1, 1 again, 5, 12, then decline another reading
	session, out := newTestSession(t, "1\n2\n1\n1\n5\n12\nn\n", interp)

	require.NoError(t, session.run(context.Background(), spread.Three))

	require.Len(t, interp.requests, 1)
	req := interp.requests[0]
	assert.Equal(t, "연애", req.Category)
	assert.Equal(t, session.concerns[0].Situations[1], req.Situation)
	assert.Equal(t, spread.Three, req.Spread)
	assert.Len(t, req.Cards, 3)

	text := out.String()
	assert.Contains(t, text, "이미 뒤집은 카드입니다")
	assert.Contains(t, text, "해석 과거")
	assert.Contains(t, text, "해석 미래")
	assert.Contains(t, text, "전체 조언")

	snap, err := session.tracker.Current()
	require.NoError(t, err)
	assert.Equal(t, reading.ShowingResult, snap.Step)
	assert.Equal(t, []int{0, 4, 11}, snap.Revealed)
	require.NotNil(t, snap.Result)
}

func TestReadingSession_RejectsBadInput(t *testing.T) {
	interp := &fakeInterpreter{}
	session, out := newTestSession(t, "abc\n0\n99\n2\n1\n3\nn\n", interp)

	require.NoError(t, session.run(context.Background(), spread.Single))

	assert.Equal(t, 3, strings.Count(out.String(), "사이의 번호를 입력해주세요"))
	require.Len(t, interp.requests, 1)
	assert.Equal(t, session.concerns[1].Name, interp.requests[0].Category)
}

func TestReadingSession_Restart(t *testing.T) {
	interp := &fakeInterpreter{}
	session, _ := newTestSession(t, "1\n1\n1\ny\n2\n1\n2\nn\n", interp)

	require.NoError(t, session.run(context.Background(), spread.Single))
	require.Len(t, interp.requests, 2)
	assert.Equal(t, session.concerns[0].Name, interp.requests[0].Category)
	assert.Equal(t, session.concerns[1].Name, interp.requests[1].Category)
}

func TestReadingSession_ShowsFallbackOnFailure(t *testing.T) {
	interp := &fakeInterpreter{err: errors.New("gave up")}
	session, out := newTestSession(t, "1\n1\n1\n", interp)

	err := session.run(context.Background(), spread.Single)
	assert.ErrorIs(t, err, io.EOF)
	assert.Contains(t, out.String(), interpret.UnavailableMessage)
}

func TestReadingSession_InputEnds(t *testing.T) {
	session, _ := newTestSession(t, "1\n", &fakeInterpreter{})
	assert.ErrorIs(t, session.run(context.Background(), spread.Three), io.EOF)
}

func TestReadingSession_CancelWhileWaitingForInput(t *testing.T) {
	session, _ := newTestSession(t, "", &fakeInterpreter{})
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })
	session.lines = scanLines(pr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- session.run(ctx, spread.Three) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("run kept waiting for input after cancellation")
	}
}

func TestReadingSession_StopsWhenInterpretationIsCancelled(t *testing.T) {
	interp := &fakeInterpreter{err: fmt.Errorf("%w: %w", llm.ErrGeneration, context.Canceled)}
	session, out := newTestSession(t, "1\n1\n1\ny\n", interp)

	err := session.run(context.Background(), spread.Single)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotContains(t, out.String(), interpret.UnavailableMessage)
	assert.NotContains(t, out.String(), "다시 보시겠습니까")
}

// narrowAmbiguous measures ambiguous-width runes as one column, as a
// non East Asian locale does.
func narrowAmbiguous(t *testing.T) {
	t.Helper()
	prev := columns
	c := runewidth.NewCondition()
	c.EastAsianWidth = false
	columns = c
	t.Cleanup(func() { columns = prev })
}

func TestWrapText(t *testing.T) {
	narrowAmbiguous(t)

	assert.Equal(t, []string{""}, wrapText("", 40))
	assert.Equal(t, []string{"one two", "three"}, wrapText("one two three", 10))

	// Hangul counts as two columns
	lines := wrapText("가나다 라마바 사아자", 14)
	assert.Equal(t, []string{"가나다 라마바", "사아자"}, lines)

	// arrows and ellipses are single column
	assert.Equal(t, []string{"→→→→→ ……………"}, wrapText("→→→→→ ……………", 12))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "가나…", truncate("가나다라", 3))
}
