package spread

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownSpread is returned by Parse for keys outside the known spreads.
var ErrUnknownSpread = errors.New("spread: unknown spread type")

// Spread is the key of a spread type. Unknown keys are representable so
// that labels can still be derived for them.
type Spread string

const (
	Single Spread = "one"
	Three  Spread = "three"
	Celtic Spread = "celtic"
)

var fixedLabels = map[Spread][]string{
	Single: {"오늘의 메시지"},
	Three:  {"과거", "현재", "미래"},
}

var names = map[Spread]string{
	Single: "원카드 리딩",
	Three:  "쓰리카드 스프레드",
	Celtic: "켈틱 크로스",
}

// All returns the known spreads in display order.
func All() []Spread {
	return []Spread{Single, Three, Celtic}
}

// Parse resolves a spread key.
func Parse(key string) (Spread, error) {
	s := Spread(strings.ToLower(strings.TrimSpace(key)))
	if s.Count() == 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownSpread, key)
	}
	return s, nil
}

// Count is the number of cards a reading of this spread requires.
// It is zero for unknown spreads.
func (s Spread) Count() int {
	switch s {
	case Single:
		return 1
	case Three:
		return 3
	case Celtic:
		return 10
	default:
		return 0
	}
}

// Name returns the display name, or the key for unknown spreads.
func (s Spread) Name() string {
	if name, ok := names[s]; ok {
		return name
	}
	return string(s)
}

// Labels returns n position labels for the spread. Positions beyond the
// spread's fixed labels get "카드 i".
func Labels(s Spread, n int) []string {
	if n <= 0 {
		return []string{}
	}
	fixed := fixedLabels[s]
	labels := make([]string, n)
	for i := range labels {
		if i < len(fixed) {
			labels[i] = fixed[i]
			continue
		}
		labels[i] = fmt.Sprintf("카드 %d", i+1)
	}
	return labels
}
