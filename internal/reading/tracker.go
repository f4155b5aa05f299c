package reading

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/arcanaland/tarotreading/internal/card"
	"github.com/arcanaland/tarotreading/internal/catalog"
	"github.com/arcanaland/tarotreading/internal/interpret"
	"github.com/arcanaland/tarotreading/internal/spread"
)

// DefaultRevealDelay is the pause between the last draw and the result.
const DefaultRevealDelay = time.Second

// ErrNoSession is returned by Tracker events before Start.
var ErrNoSession = errors.New("reading: no reading in progress")

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithRevealDelay sets the pause before a fully drawn reading completes.
func WithRevealDelay(d time.Duration) TrackerOption {
	return func(t *Tracker) {
		if d >= 0 {
			t.revealDelay = d
		}
	}
}

// WithLayoutSize sets how many face-down cards a reading offers.
func WithLayoutSize(n int) TrackerOption {
	return func(t *Tracker) {
		if n > 0 {
			t.layoutSize = n
		}
	}
}

// WithOnComplete registers a callback run, outside the tracker lock, each
// time the live reading reaches ShowingResult.
func WithOnComplete(fn func(Snapshot)) TrackerOption {
	return func(t *Tracker) { t.onComplete = fn }
}

// WithTrackerLogger sets the logger.
func WithTrackerLogger(l *zap.Logger) TrackerOption {
	return func(t *Tracker) { t.logger = l }
}

// Tracker owns the single live reading. Replacing the reading cancels its
// pending completion and makes late interpretations for it stale.
type Tracker struct {
	mu          sync.Mutex
	cards       []card.Card
	dealer      Dealer
	session     *Session
	timer       *time.Timer
	pending     sync.WaitGroup
	revealDelay time.Duration
	layoutSize  int
	onComplete  func(Snapshot)
	logger      *zap.Logger
}

// NewTracker creates a tracker dealing from cards.
func NewTracker(cards []card.Card, dealer Dealer, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		cards:       cards,
		dealer:      dealer,
		revealDelay: DefaultRevealDelay,
		layoutSize:  DefaultLayoutSize,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start discards any live reading and begins a new one with spread s.
func (t *Tracker) Start(s spread.Spread) (Snapshot, error) {
	sess, err := NewSession(t.cards, t.dealer, s, t.layoutSize)
	if err != nil {
		return Snapshot{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.replace(sess)
	return sess.Snapshot(), nil
}

// Restart begins a fresh reading with the live reading's spread.
func (t *Tracker) Restart() (Snapshot, error) {
	t.mu.Lock()
	current := t.session
	t.mu.Unlock()

	if current == nil {
		return Snapshot{}, ErrNoSession
	}
	return t.Start(current.Spread())
}

func (t *Tracker) replace(sess *Session) {
	t.stopTimer()
	if t.session != nil {
		t.logger.Debug("reading discarded", zap.String("session_id", t.session.ID()))
	}
	t.session = sess
	t.logger.Debug("reading started",
		zap.String("session_id", sess.ID()),
		zap.String("spread", string(sess.Spread())),
	)
}

// Current returns a copy of the live reading.
func (t *Tracker) Current() (Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return Snapshot{}, ErrNoSession
	}
	return t.session.Snapshot(), nil
}

func (t *Tracker) with(fn func(*Session) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return ErrNoSession
	}
	return fn(t.session)
}

// SelectCategory forwards to the live reading.
func (t *Tracker) SelectCategory(c catalog.Category) error {
	return t.with(func(s *Session) error { return s.SelectCategory(c) })
}

// SelectSituation forwards to the live reading.
func (t *Tracker) SelectSituation(situation string) error {
	return t.with(func(s *Session) error { return s.SelectSituation(situation) })
}

// ChangeSpread forwards to the live reading.
func (t *Tracker) ChangeSpread(next spread.Spread) error {
	return t.with(func(s *Session) error { return s.ChangeSpread(next) })
}

// Reveal draws a card in the live reading. Drawing the last required card
// schedules the move to ShowingResult after the reveal delay; until then
// further draws are refused.
func (t *Tracker) Reveal(index int) (card.DrawnCard, error) {
	var drawn card.DrawnCard
	err := t.with(func(s *Session) error {
		var err error
		drawn, err = s.Reveal(index)
		if err != nil {
			return err
		}
		if s.Ready() && t.timer == nil {
			t.schedule(s.ID())
		}
		return nil
	})
	return drawn, err
}

// schedule must be called with t.mu held.
func (t *Tracker) schedule(sessionID string) {
	t.pending.Add(1)
	t.timer = time.AfterFunc(t.revealDelay, func() {
		defer t.pending.Done()
		t.complete(sessionID)
	})
}

// stopTimer must be called with t.mu held.
func (t *Tracker) stopTimer() {
	if t.timer == nil {
		return
	}
	if t.timer.Stop() {
		t.pending.Done()
	}
	t.timer = nil
}

func (t *Tracker) complete(sessionID string) {
	t.mu.Lock()
	if t.session == nil || t.session.ID() != sessionID {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	if err := t.session.Complete(); err != nil {
		t.mu.Unlock()
		t.logger.Warn("reading could not complete", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	snap := t.session.Snapshot()
	onComplete := t.onComplete
	t.mu.Unlock()

	t.logger.Debug("reading complete", zap.String("session_id", sessionID))
	if onComplete != nil {
		onComplete(snap)
	}
}

// Apply attaches an interpretation to the reading it was requested for. It
// reports false, leaving the tracker untouched, when that reading is no
// longer live or has not reached ShowingResult.
func (t *Tracker) Apply(sessionID string, result *interpret.Result) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if result == nil || t.session == nil || t.session.ID() != sessionID {
		t.logger.Debug("stale interpretation discarded", zap.String("session_id", sessionID))
		return false
	}
	if err := t.session.SetResult(result); err != nil {
		t.logger.Debug("interpretation not applied", zap.String("session_id", sessionID), zap.Error(err))
		return false
	}
	return true
}

// Close cancels a pending completion and waits for a running one.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.stopTimer()
	t.mu.Unlock()
	t.pending.Wait()
}
