package validator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/arcanaland/tarotreading/internal/card"
	"github.com/arcanaland/tarotreading/internal/catalog"
	"github.com/arcanaland/tarotreading/internal/spread"
)

// RecommendedLayoutSize is the face-down layout a catalog should fill
const RecommendedLayoutSize = 12

var suits = []string{"wands", "cups", "swords", "pentacles"}

type ValidationResults struct {
	Errors   []string
	Warnings []string
}

// Validator checks catalog files. An empty path checks the built-in
// catalog instead.
type Validator struct {
	CardsPath    string
	ConcernsPath string
	Results      ValidationResults
}

func NewValidator(cardsPath, concernsPath string) *Validator {
	return &Validator{
		CardsPath:    cardsPath,
		ConcernsPath: concernsPath,
		Results:      ValidationResults{},
	}
}

func (v *Validator) Validate() (ValidationResults, error) {
	cards, err := v.loadCards()
	if err != nil {
		return v.Results, err
	}
	concerns, err := v.loadConcerns()
	if err != nil {
		return v.Results, err
	}

	v.validateCards(cards)
	v.validateMajorArcana(cards)
	v.validateCapacity(cards)
	v.validateConcerns(concerns)

	return v.Results, nil
}

func (v *Validator) errorf(format string, args ...any) {
	v.Results.Errors = append(v.Results.Errors, fmt.Sprintf(format, args...))
}

func (v *Validator) warnf(format string, args ...any) {
	v.Results.Warnings = append(v.Results.Warnings, fmt.Sprintf(format, args...))
}

func (v *Validator) loadCards() ([]card.Card, error) {
	if v.CardsPath == "" {
		c, err := catalog.DefaultCards()
		if err != nil {
			return nil, err
		}
		return c.All(), nil
	}
	var file catalog.CardFile
	if _, err := toml.DecodeFile(v.CardsPath, &file); err != nil {
		return nil, fmt.Errorf("error parsing %s: %v", v.CardsPath, err)
	}
	return file.Cards, nil
}

func (v *Validator) loadConcerns() ([]catalog.Category, error) {
	if v.ConcernsPath == "" {
		c, err := catalog.DefaultConcerns()
		if err != nil {
			return nil, err
		}
		return c.All(), nil
	}
	var file catalog.ConcernFile
	if _, err := toml.DecodeFile(v.ConcernsPath, &file); err != nil {
		return nil, fmt.Errorf("error parsing %s: %v", v.ConcernsPath, err)
	}
	return file.Categories, nil
}

// validateCards checks each card's required fields
func (v *Validator) validateCards(cards []card.Card) {
	if len(cards) == 0 {
		v.errorf("no [[cards]] entries found")
		return
	}

	seen := make(map[string]int, len(cards))
	for i, c := range cards {
		ref := fmt.Sprintf("cards[%d]", i)
		if c.ID == "" {
			v.errorf("%s.id is required", ref)
		} else {
			ref = c.ID
			if first, ok := seen[c.ID]; ok {
				v.errorf("duplicate card id %s (cards[%d] and cards[%d])", c.ID, first, i)
			} else {
				seen[c.ID] = i
			}
		}

		if c.Name == "" {
			v.errorf("%s: name is required", ref)
		}
		if c.Upright == "" {
			v.errorf("%s: upright meaning is required", ref)
		}
		if c.Reversed == "" {
			v.errorf("%s: reversed meaning is required", ref)
		}
		if c.KoreanName == "" {
			v.warnf("%s: korean_name is empty", ref)
		}
		if len(c.Keywords) == 0 {
			v.warnf("%s: no keywords", ref)
		}
		if c.Image == "" {
			v.warnf("%s: no image glyph", ref)
		}

		switch c.Arcana {
		case card.MajorArcana:
			if c.Suit != "" {
				v.warnf("%s: major arcana card has suit %q", ref, c.Suit)
			}
		case card.MinorArcana:
			if !slices.Contains(suits, c.Suit) {
				v.errorf("%s: minor arcana card needs a suit (%s), got %q", ref, strings.Join(suits, ", "), c.Suit)
			}
		case "":
			v.warnf("%s: arcana is not set", ref)
		default:
			v.errorf("%s: unknown arcana %q (expected major or minor)", ref, c.Arcana)
		}
	}
}

// validateMajorArcana checks the numbering of the major arcana
func (v *Validator) validateMajorArcana(cards []card.Card) {
	numbers := make(map[int]string)
	for _, c := range cards {
		if c.Arcana != card.MajorArcana {
			continue
		}
		if c.Number < 0 || c.Number > 21 {
			v.errorf("%s: major arcana number %d out of range 0-21", c.ID, c.Number)
			continue
		}
		if other, ok := numbers[c.Number]; ok {
			v.errorf("major arcana number %d used by both %s and %s", c.Number, other, c.ID)
			continue
		}
		numbers[c.Number] = c.ID
	}
	if len(numbers) == 0 {
		return
	}

	missing := []string{}
	for i := 0; i <= 21; i++ {
		if _, ok := numbers[i]; !ok {
			missing = append(missing, fmt.Sprintf("%02d", i))
		}
	}
	if len(missing) > 0 {
		v.warnf("missing major arcana cards: %s", strings.Join(missing, ", "))
	}
}

// validateCapacity checks that every spread can be dealt
func (v *Validator) validateCapacity(cards []card.Card) {
	for _, s := range spread.All() {
		if len(cards) < s.Count() {
			v.errorf("catalog has %d cards; the %s spread needs %d", len(cards), s, s.Count())
		}
	}
	if len(cards) > 0 && len(cards) < RecommendedLayoutSize {
		v.warnf("catalog has %d cards; layouts of %d will be cut short", len(cards), RecommendedLayoutSize)
	}
}

// validateConcerns checks the concern categories
func (v *Validator) validateConcerns(categories []catalog.Category) {
	if len(categories) == 0 {
		v.errorf("no [[categories]] entries found")
		return
	}

	seen := make(map[string]bool, len(categories))
	for i, cat := range categories {
		ref := fmt.Sprintf("categories[%d]", i)
		if cat.ID == "" {
			v.errorf("%s.id is required", ref)
		} else {
			ref = cat.ID
			if seen[cat.ID] {
				v.errorf("duplicate category id %s", cat.ID)
			}
			seen[cat.ID] = true
		}

		if cat.Name == "" {
			v.errorf("%s: name is required", ref)
		}
		if cat.Icon == "" {
			v.warnf("%s: no icon", ref)
		}
		if len(cat.Situations) == 0 {
			v.errorf("%s: at least one situation is required", ref)
		}
		for j, situation := range cat.Situations {
			if strings.TrimSpace(situation) == "" {
				v.errorf("%s: situations[%d] is empty", ref, j)
			}
		}
	}
}
