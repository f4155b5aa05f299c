package catalog

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/arcanaland/tarotreading/internal/card"
)

//go:embed data/cards.toml data/concerns.toml
var defaults embed.FS

var (
	ErrCardNotFound     = errors.New("catalog: card not found")
	ErrCategoryNotFound = errors.New("catalog: category not found")
	ErrEmptyCatalog     = errors.New("catalog: no entries")
	ErrNoSituations     = errors.New("catalog: category has no situations")
)

// Cards is the ordered, read-only card catalog
type Cards struct {
	cards []card.Card
	index map[string]int
}

// Category is a concern category with its candidate situations
type Category struct {
	ID         string   `toml:"id" json:"id"`
	Name       string   `toml:"name" json:"name"`
	Icon       string   `toml:"icon" json:"icon"`
	Situations []string `toml:"situations" json:"situations"`
}

// Concerns is the ordered, read-only concern catalog
type Concerns struct {
	categories []Category
	index      map[string]int
}

// CardFile is the on-disk layout of a card catalog
type CardFile struct {
	Cards []card.Card `toml:"cards"`
}

// ConcernFile is the on-disk layout of a concern catalog
type ConcernFile struct {
	Categories []Category `toml:"categories"`
}

// DefaultCards returns the embedded card catalog
func DefaultCards() (*Cards, error) {
	data, err := defaults.ReadFile("data/cards.toml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded cards: %w", err)
	}
	return decodeCards(string(data))
}

// DefaultConcerns returns the embedded concern catalog
func DefaultConcerns() (*Concerns, error) {
	data, err := defaults.ReadFile("data/concerns.toml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded concerns: %w", err)
	}
	return decodeConcerns(string(data))
}

// LoadCards loads a card catalog from a TOML file.
// An empty path selects the embedded catalog.
func LoadCards(path string) (*Cards, error) {
	if path == "" {
		return DefaultCards()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading card catalog %s: %w", path, err)
	}
	return decodeCards(string(data))
}

// LoadConcerns loads a concern catalog from a TOML file.
// An empty path selects the embedded catalog.
func LoadConcerns(path string) (*Concerns, error) {
	if path == "" {
		return DefaultConcerns()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading concern catalog %s: %w", path, err)
	}
	return decodeConcerns(string(data))
}

func decodeCards(data string) (*Cards, error) {
	var file CardFile
	if _, err := toml.Decode(data, &file); err != nil {
		return nil, fmt.Errorf("error parsing card catalog: %w", err)
	}
	return NewCards(file.Cards)
}

func decodeConcerns(data string) (*Concerns, error) {
	var file ConcernFile
	if _, err := toml.Decode(data, &file); err != nil {
		return nil, fmt.Errorf("error parsing concern catalog: %w", err)
	}
	return NewConcerns(file.Categories)
}

// NewCards builds a catalog from cards in display order.
// Duplicate IDs keep the first occurrence for lookups.
func NewCards(cards []card.Card) (*Cards, error) {
	if len(cards) == 0 {
		return nil, ErrEmptyCatalog
	}
	c := &Cards{
		cards: make([]card.Card, len(cards)),
		index: make(map[string]int, len(cards)),
	}
	copy(c.cards, cards)
	for i, cd := range c.cards {
		if _, ok := c.index[cd.ID]; !ok {
			c.index[cd.ID] = i
		}
	}
	return c, nil
}

// NewConcerns builds a concern catalog from categories in display order.
// Every category needs at least one situation to choose from.
func NewConcerns(categories []Category) (*Concerns, error) {
	if len(categories) == 0 {
		return nil, ErrEmptyCatalog
	}
	for _, cat := range categories {
		if len(cat.Situations) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrNoSituations, cat.ID)
		}
	}
	c := &Concerns{
		categories: make([]Category, len(categories)),
		index:      make(map[string]int, len(categories)),
	}
	copy(c.categories, categories)
	for i, cat := range c.categories {
		if _, ok := c.index[cat.ID]; !ok {
			c.index[cat.ID] = i
		}
	}
	return c, nil
}

// All returns a copy of the cards in catalog order
func (c *Cards) All() []card.Card {
	out := make([]card.Card, len(c.cards))
	copy(out, c.cards)
	return out
}

// Len returns the number of cards
func (c *Cards) Len() int {
	return len(c.cards)
}

// Get gets a card by its canonical ID
func (c *Cards) Get(id string) (card.Card, error) {
	i, ok := c.index[id]
	if !ok {
		return card.Card{}, fmt.Errorf("%w: %s", ErrCardNotFound, id)
	}
	return c.cards[i], nil
}

// All returns a copy of the categories in display order
func (c *Concerns) All() []Category {
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// Get gets a category by its ID
func (c *Concerns) Get(id string) (Category, error) {
	i, ok := c.index[id]
	if !ok {
		return Category{}, fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
	}
	return c.categories[i], nil
}

// WriteDefaults copies the embedded catalog files into dir as cards.toml
// and concerns.toml. Existing files are left alone unless overwrite is set.
// It returns the paths it wrote.
func WriteDefaults(dir string, overwrite bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("error creating catalog directory: %w", err)
	}

	var written []string
	for _, name := range []string{"cards.toml", "concerns.toml"} {
		target := filepath.Join(dir, name)
		if _, err := os.Stat(target); err == nil && !overwrite {
			continue
		}
		data, err := defaults.ReadFile("data/" + name)
		if err != nil {
			return written, fmt.Errorf("reading embedded %s: %w", name, err)
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			return written, fmt.Errorf("error writing %s: %w", target, err)
		}
		written = append(written, target)
	}
	return written, nil
}
