package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/tarotreading/internal/card"
)

func TestDefaultCards(t *testing.T) {
	cards, err := DefaultCards()
	require.NoError(t, err)
	require.Equal(t, 22, cards.Len())

	all := cards.All()
	assert.Equal(t, "major_arcana.00", all[0].ID)
	assert.Equal(t, "The Fool", all[0].Name)
	assert.Equal(t, "바보", all[0].KoreanName)
	assert.Equal(t, "major_arcana.21", all[21].ID)

	for _, c := range all {
		assert.NotEmpty(t, c.Keywords, c.ID)
		assert.NotEmpty(t, c.Upright, c.ID)
		assert.NotEmpty(t, c.Reversed, c.ID)
		assert.Equal(t, card.MajorArcana, c.Arcana, c.ID)
	}
}

func TestCards_Get(t *testing.T) {
	cards, err := DefaultCards()
	require.NoError(t, err)

	star, err := cards.Get("major_arcana.17")
	require.NoError(t, err)
	assert.Equal(t, "The Star", star.Name)

	_, err = cards.Get("major_arcana.99")
	assert.ErrorIs(t, err, ErrCardNotFound)
}

func TestCards_AllReturnsCopy(t *testing.T) {
	cards, err := DefaultCards()
	require.NoError(t, err)

	all := cards.All()
	all[0].Name = "changed"

	fool, err := cards.Get("major_arcana.00")
	require.NoError(t, err)
	assert.Equal(t, "The Fool", fool.Name)
}

func TestDefaultConcerns(t *testing.T) {
	concerns, err := DefaultConcerns()
	require.NoError(t, err)

	all := concerns.All()
	require.NotEmpty(t, all)
	assert.Equal(t, "love", all[0].ID)
	for _, cat := range all {
		assert.NotEmpty(t, cat.Name, cat.ID)
		assert.NotEmpty(t, cat.Situations, cat.ID)
	}

	_, err = concerns.Get("weather")
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestLoadCards_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.toml")
	content := `
[[cards]]
id = "custom.00"
name = "The Cat"
korean_name = "고양이"
keywords = ["호기심"]
upright = "explore"
reversed = "hide"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cards, err := LoadCards(path)
	require.NoError(t, err)
	require.Equal(t, 1, cards.Len())

	c, err := cards.Get("custom.00")
	require.NoError(t, err)
	assert.Equal(t, []string{"호기심"}, c.Keywords)
}

func TestLoadCards_EmptyPathUsesDefaults(t *testing.T) {
	cards, err := LoadCards("")
	require.NoError(t, err)
	assert.Equal(t, 22, cards.Len())
}

func TestLoadCards_Errors(t *testing.T) {
	_, err := LoadCards(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.toml")
	require.NoError(t, os.WriteFile(empty, []byte("# nothing\n"), 0644))
	_, err = LoadCards(empty)
	assert.ErrorIs(t, err, ErrEmptyCatalog)

	broken := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(broken, []byte("[[cards]\n"), 0644))
	_, err = LoadCards(broken)
	assert.Error(t, err)
}

func TestLoadConcerns_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concerns.toml")
	content := `
[[categories]]
id = "pets"
name = "반려동물"
icon = "🐾"
situations = ["강아지가 밥을 안 먹어요"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	concerns, err := LoadConcerns(path)
	require.NoError(t, err)

	pets, err := concerns.Get("pets")
	require.NoError(t, err)
	assert.Equal(t, "반려동물", pets.Name)
	assert.Len(t, pets.Situations, 1)
}

func TestLoadConcerns_RejectsCategoryWithoutSituations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concerns.toml")
	content := `
[[categories]]
id = "pets"
name = "반려동물"
situations = ["강아지가 밥을 안 먹어요"]

[[categories]]
id = "empty"
name = "빈 고민"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := LoadConcerns(path)
	assert.ErrorIs(t, err, ErrNoSituations)
	assert.ErrorContains(t, err, `"empty"`)

	_, err = NewConcerns([]Category{{ID: "blank", Name: "blank", Situations: []string{}}})
	assert.ErrorIs(t, err, ErrNoSituations)
}

func TestWriteDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tarotreading")

	written, err := WriteDefaults(dir, false)
	require.NoError(t, err)
	assert.Len(t, written, 2)

	cards, err := LoadCards(filepath.Join(dir, "cards.toml"))
	require.NoError(t, err)
	assert.Equal(t, 22, cards.Len())

	concerns, err := LoadConcerns(filepath.Join(dir, "concerns.toml"))
	require.NoError(t, err)
	assert.NotEmpty(t, concerns.All())

	custom := filepath.Join(dir, "cards.toml")
	require.NoError(t, os.WriteFile(custom, []byte("# mine\n"), 0644))

	written, err = WriteDefaults(dir, false)
	require.NoError(t, err)
	assert.Empty(t, written)
	data, err := os.ReadFile(custom)
	require.NoError(t, err)
	assert.Equal(t, "# mine\n", string(data))

	written, err = WriteDefaults(dir, true)
	require.NoError(t, err)
	assert.Len(t, written, 2)
}
