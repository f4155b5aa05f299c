package deck

import (
	"math/rand/v2"
	"sync"

	"github.com/arcanaland/tarotreading/internal/card"
)

// Randomizer shuffles card layouts and decides card orientations
type Randomizer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomizer creates a randomizer seeded from the runtime's random source
func NewRandomizer() *Randomizer {
	return NewRandomizerFromSource(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// NewRandomizerFromSource creates a randomizer over the given source
func NewRandomizerFromSource(src rand.Source) *Randomizer {
	return &Randomizer{rng: rand.New(src)}
}

// Shuffle returns a uniform random permutation of cards truncated to limit.
// A limit larger than the catalog is clamped; a negative one yields nothing.
// The input slice is not modified.
func (r *Randomizer) Shuffle(cards []card.Card, limit int) []card.Card {
	if limit < 0 {
		limit = 0
	}
	if limit > len(cards) {
		limit = len(cards)
	}

	shuffled := make([]card.Card, len(cards))
	copy(shuffled, cards)

	r.mu.Lock()
	r.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	r.mu.Unlock()

	return shuffled[:limit:limit]
}

// DrawOrientation flips a fair coin: true means reversed
func (r *Randomizer) DrawOrientation() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(2) == 1
}

// Draw fixes the card's orientation at the moment of the call
func (r *Randomizer) Draw(c card.Card) card.DrawnCard {
	return card.DrawnCard{Card: c, IsReversed: r.DrawOrientation()}
}
