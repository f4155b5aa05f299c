package card

// Arcana values
const (
	MajorArcana = "major"
	MinorArcana = "minor"
)

// Card represents a tarot card in the catalog
type Card struct {
	ID         string   `toml:"id" json:"id"`                   // Canonical ID (e.g., major_arcana.00)
	Number     int      `toml:"number" json:"number"`           // Position within its arcana
	Name       string   `toml:"name" json:"name"`               // Display name
	KoreanName string   `toml:"korean_name" json:"koreanName"`  // Localized name
	Keywords   []string `toml:"keywords" json:"keywords"`       // Ordered keywords
	Upright    string   `toml:"upright" json:"upright"`         // Upright meaning
	Reversed   string   `toml:"reversed" json:"reversed"`       // Reversed meaning
	Image      string   `toml:"image" json:"image,omitempty"`   // Imagery glyph or reference
	Arcana     string   `toml:"arcana" json:"arcana,omitempty"` // major or minor
	Suit       string   `toml:"suit" json:"suit,omitempty"`     // For minor arcana
}

// IsMinor reports whether the card belongs to the minor arcana
func (c Card) IsMinor() bool {
	return c.Arcana == MinorArcana
}

// DrawnCard is a card with the orientation it was drawn in.
// The orientation is fixed when the card is drawn.
type DrawnCard struct {
	Card
	IsReversed bool `json:"isReversed"`
}

// Meaning returns the meaning text matching the orientation
func (d DrawnCard) Meaning() string {
	if d.IsReversed {
		return d.Reversed
	}
	return d.Upright
}

// Orientation returns the localized orientation label
func (d DrawnCard) Orientation() string {
	if d.IsReversed {
		return "역방향"
	}
	return "정방향"
}
