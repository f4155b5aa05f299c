package reading

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/arcanaland/tarotreading/internal/card"
	"github.com/arcanaland/tarotreading/internal/catalog"
	"github.com/arcanaland/tarotreading/internal/interpret"
	"github.com/arcanaland/tarotreading/internal/spread"
)

// Step is the stage a reading is in.
type Step string

const (
	ChoosingCategory  Step = "choosing-category"
	ChoosingSituation Step = "choosing-situation"
	DrawingCards      Step = "drawing-cards"
	ShowingResult     Step = "showing-result"
)

// DefaultLayoutSize is the number of face-down cards offered for a draw.
const DefaultLayoutSize = 12

var (
	ErrWrongStep        = errors.New("reading: event not accepted in the current step")
	ErrReadingFinished  = errors.New("reading: reading already finished")
	ErrDrawLimitReached = errors.New("reading: all cards for this spread are drawn")
	ErrIndexOutOfRange  = errors.New("reading: no card at that position")
	ErrDrawIncomplete   = errors.New("reading: not all cards are drawn yet")
	ErrSpreadLocked     = errors.New("reading: spread cannot change after the first draw")
	ErrCatalogTooSmall  = errors.New("reading: catalog has fewer cards than the spread needs")
)

// Dealer lays out face-down cards and fixes a card's orientation when it is
// drawn. *deck.Randomizer satisfies it.
type Dealer interface {
	Shuffle(cards []card.Card, limit int) []card.Card
	Draw(c card.Card) card.DrawnCard
}

// Session is one reading from category choice to result. It is not safe for
// concurrent use; Tracker serializes access to the live session.
type Session struct {
	id         string
	spread     spread.Spread
	step       Step
	category   *catalog.Category
	situation  string
	layout     []card.Card
	revealed   map[int]int // layout index -> position in drawn
	drawn      []card.DrawnCard
	result     *interpret.Result
	catalog    []card.Card
	dealer     Dealer
	layoutSize int
}

// NewSession starts a reading at ChoosingCategory with a freshly shuffled
// layout of max(layoutSize, spread count) cards.
func NewSession(cards []card.Card, dealer Dealer, s spread.Spread, layoutSize int) (*Session, error) {
	if s.Count() == 0 {
		return nil, fmt.Errorf("%w: %q", spread.ErrUnknownSpread, string(s))
	}
	if len(cards) < s.Count() {
		return nil, fmt.Errorf("%w: %d < %d", ErrCatalogTooSmall, len(cards), s.Count())
	}

	sess := &Session{
		id:         uuid.NewString(),
		spread:     s,
		step:       ChoosingCategory,
		catalog:    cards,
		dealer:     dealer,
		layoutSize: layoutSize,
	}
	sess.deal()
	return sess, nil
}

func (s *Session) deal() {
	size := max(s.layoutSize, s.spread.Count())
	s.layout = s.dealer.Shuffle(s.catalog, size)
	s.revealed = make(map[int]int, s.spread.Count())
	s.drawn = make([]card.DrawnCard, 0, s.spread.Count())
}

// ID identifies the session; interpretation replies are tagged with it.
func (s *Session) ID() string { return s.id }

// Step returns the current step.
func (s *Session) Step() Step { return s.step }

// Spread returns the spread in play.
func (s *Session) Spread() spread.Spread { return s.spread }

// Ready reports whether every card the spread requires has been drawn.
func (s *Session) Ready() bool { return len(s.drawn) == s.spread.Count() }

func (s *Session) expect(step Step) error {
	if s.step == ShowingResult {
		return ErrReadingFinished
	}
	if s.step != step {
		return fmt.Errorf("%w: %s", ErrWrongStep, s.step)
	}
	return nil
}

// SelectCategory records the concern category and moves to situation choice.
func (s *Session) SelectCategory(c catalog.Category) error {
	if err := s.expect(ChoosingCategory); err != nil {
		return err
	}
	s.category = &c
	s.step = ChoosingSituation
	return nil
}

// SelectSituation records the situation text and opens the draw.
func (s *Session) SelectSituation(situation string) error {
	if err := s.expect(ChoosingSituation); err != nil {
		return err
	}
	s.situation = situation
	s.step = DrawingCards
	return nil
}

// ChangeSpread switches the spread and reshuffles the layout. It is refused
// once a card has been drawn.
func (s *Session) ChangeSpread(next spread.Spread) error {
	if s.step == ShowingResult {
		return ErrReadingFinished
	}
	if next.Count() == 0 {
		return fmt.Errorf("%w: %q", spread.ErrUnknownSpread, string(next))
	}
	if len(s.drawn) > 0 {
		return ErrSpreadLocked
	}
	if len(s.catalog) < next.Count() {
		return fmt.Errorf("%w: %d < %d", ErrCatalogTooSmall, len(s.catalog), next.Count())
	}
	s.spread = next
	s.deal()
	return nil
}

// Reveal draws the face-down card at index. Revealing an index twice
// returns the card drawn the first time.
func (s *Session) Reveal(index int) (card.DrawnCard, error) {
	if err := s.expect(DrawingCards); err != nil {
		return card.DrawnCard{}, err
	}
	if index < 0 || index >= len(s.layout) {
		return card.DrawnCard{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	if pos, ok := s.revealed[index]; ok {
		return s.drawn[pos], nil
	}
	if s.Ready() {
		return card.DrawnCard{}, ErrDrawLimitReached
	}

	drawn := s.dealer.Draw(s.layout[index])
	s.revealed[index] = len(s.drawn)
	s.drawn = append(s.drawn, drawn)
	return drawn, nil
}

// Complete moves a fully drawn reading to ShowingResult.
func (s *Session) Complete() error {
	if err := s.expect(DrawingCards); err != nil {
		return err
	}
	if !s.Ready() {
		return fmt.Errorf("%w: %d of %d", ErrDrawIncomplete, len(s.drawn), s.spread.Count())
	}
	s.step = ShowingResult
	return nil
}

// SetResult attaches an interpretation to a finished reading.
func (s *Session) SetResult(result *interpret.Result) error {
	if s.step != ShowingResult {
		return fmt.Errorf("%w: %s", ErrWrongStep, s.step)
	}
	s.result = result
	return nil
}

// Snapshot copies the session state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:        s.id,
		Step:      s.step,
		Spread:    s.spread,
		Situation: s.situation,
		Layout:    slices.Clone(s.layout),
		Drawn:     slices.Clone(s.drawn),
		Result:    s.result,
	}
	if s.category != nil {
		c := *s.category
		snap.Category = &c
	}
	snap.Revealed = make([]int, 0, len(s.revealed))
	for index := range s.revealed {
		snap.Revealed = append(snap.Revealed, index)
	}
	slices.Sort(snap.Revealed)
	return snap
}

// Snapshot is a read-only copy of a session.
type Snapshot struct {
	ID        string
	Step      Step
	Spread    spread.Spread
	Category  *catalog.Category
	Situation string
	Layout    []card.Card
	Revealed  []int
	Drawn     []card.DrawnCard
	Result    *interpret.Result
}

// IsRevealed reports whether the layout card at index has been drawn.
func (s Snapshot) IsRevealed(index int) bool {
	_, found := slices.BinarySearch(s.Revealed, index)
	return found
}

// Request builds the interpretation request for the drawn cards.
func (s Snapshot) Request() interpret.Request {
	req := interpret.Request{
		Cards:     s.Drawn,
		Situation: s.Situation,
		Spread:    s.Spread,
	}
	if s.Category != nil {
		req.Category = s.Category.Name
	}
	return req
}
