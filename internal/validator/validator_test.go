package validator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func containsMessage(messages []string, fragment string) bool {
	for _, m := range messages {
		if strings.Contains(m, fragment) {
			return true
		}
	}
	return false
}

const validConcerns = `
[[categories]]
id = "love"
name = "연애"
icon = "💕"
situations = ["짝사랑"]
`

func TestValidate_BuiltInCatalogIsClean(t *testing.T) {
	results, err := NewValidator("", "").Validate()
	require.NoError(t, err)
	assert.Empty(t, results.Errors)
	assert.Empty(t, results.Warnings)
}

func TestValidate_CardErrors(t *testing.T) {
	cards := writeFile(t, "cards.toml", `
[[cards]]
id = "major_arcana.00"
number = 0
name = "The Fool"
upright = "u"
reversed = "r"
arcana = "major"

[[cards]]
id = "major_arcana.00"
number = 0
name = ""
upright = "u"
arcana = "major"

[[cards]]
id = "minor_arcana.cups.ace"
name = "Ace of Cups"
upright = "u"
reversed = "r"
arcana = "minor"
suit = "coins"

[[cards]]
name = "Blank"
upright = "u"
reversed = "r"
arcana = "wild"
`)
	concerns := writeFile(t, "concerns.toml", validConcerns)

	results, err := NewValidator(cards, concerns).Validate()
	require.NoError(t, err)

	for _, fragment := range []string{
		"duplicate card id major_arcana.00",
		"name is required",
		"reversed meaning is required",
		"minor arcana card needs a suit",
		"cards[3].id is required",
		`unknown arcana "wild"`,
		"major arcana number 0 used by both",
		"the celtic spread needs 10",
	} {
		assert.True(t, containsMessage(results.Errors, fragment), "missing error %q in %v", fragment, results.Errors)
	}
	for _, fragment := range []string{
		"korean_name is empty",
		"no keywords",
		"missing major arcana cards: 01",
		"layouts of 12 will be cut short",
	} {
		assert.True(t, containsMessage(results.Warnings, fragment), "missing warning %q in %v", fragment, results.Warnings)
	}
	assert.False(t, containsMessage(results.Errors, "the three spread"))
}

func TestValidate_ConcernErrors(t *testing.T) {
	concerns := writeFile(t, "concerns.toml", `
[[categories]]
id = "love"
name = "연애"
situations = []

[[categories]]
id = "love"
name = ""
icon = "x"
situations = ["  "]
`)

	results, err := NewValidator("", concerns).Validate()
	require.NoError(t, err)

	assert.True(t, containsMessage(results.Errors, "love: at least one situation is required"))
	assert.True(t, containsMessage(results.Errors, "duplicate category id love"))
	assert.True(t, containsMessage(results.Errors, "love: name is required"))
	assert.True(t, containsMessage(results.Errors, "situations[0] is empty"))
	assert.True(t, containsMessage(results.Warnings, "love: no icon"))
}

func TestValidate_EmptyFiles(t *testing.T) {
	cards := writeFile(t, "cards.toml", "# nothing\n")
	concerns := writeFile(t, "concerns.toml", "")

	results, err := NewValidator(cards, concerns).Validate()
	require.NoError(t, err)
	assert.Contains(t, results.Errors, "no [[cards]] entries found")
	assert.Contains(t, results.Errors, "no [[categories]] entries found")
}

func TestValidate_UnreadableFile(t *testing.T) {
	_, err := NewValidator(filepath.Join(t.TempDir(), "missing.toml"), "").Validate()
	assert.Error(t, err)

	broken := writeFile(t, "cards.toml", "[[cards]\nid=")
	_, err = NewValidator(broken, "").Validate()
	assert.Error(t, err)
}
