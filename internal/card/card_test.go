package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDrawnCard_MeaningFollowsOrientation(t *testing.T) {
	c := Card{Name: "The Star", Upright: "hope", Reversed: "despair"}

	upright := DrawnCard{Card: c}
	assert.Equal(t, "hope", upright.Meaning())
	assert.Equal(t, "정방향", upright.Orientation())

	reversed := DrawnCard{Card: c, IsReversed: true}
	assert.Equal(t, "despair", reversed.Meaning())
	assert.Equal(t, "역방향", reversed.Orientation())
}

func TestCard_IsMinor(t *testing.T) {
	assert.False(t, Card{Arcana: MajorArcana}.IsMinor())
	assert.True(t, Card{Arcana: MinorArcana, Suit: "cups"}.IsMinor())
}
