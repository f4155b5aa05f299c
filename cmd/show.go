package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	colorize "github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/arcanaland/tarotreading/internal/card"
)

var showCmd = &cobra.Command{
	Use:   "show [card_id]",
	Short: "Display a card with its meanings",
	Long: `Show displays a tarot card from the catalog with its keywords and its
upright and reversed meanings. Use canonical card IDs like 'major_arcana.00'.

Examples:
  tarot show major_arcana.00
  tarot show --reversed major_arcana.16`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cards, _, err := loadCatalogs(cfg)
		if err != nil {
			return err
		}

		c, err := cards.Get(args[0])
		if err != nil {
			return fmt.Errorf("error getting card: %v", err)
		}

		reversed, _ := cmd.Flags().GetBool("reversed")
		displayCard(cmd.OutOrStdout(), card.DrawnCard{Card: c, IsReversed: reversed}, terminalWidth())
		return nil
	},
}

func init() {
	RootCmd.AddCommand(showCmd)

	showCmd.Flags().BoolP("reversed", "r", false, "Highlight the reversed meaning")
}

// terminalWidth returns the width of stdout, or 80 when it is not a terminal
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// columns measures terminal cell widths. It follows the locale, so
// ambiguous-width runes are wide only on East Asian terminals.
var columns = runewidth.NewCondition()

// wrapText wraps text to a specified width
func wrapText(text string, width int) []string {
	if width < 10 {
		width = 40
	}

	var result []string
	var currentLine string
	words := strings.Fields(text)

	if len(words) == 0 {
		return []string{""}
	}

	for _, word := range words {
		switch {
		case currentLine == "":
			currentLine = word
		case columns.StringWidth(currentLine)+1+columns.StringWidth(word) <= width:
			currentLine += " " + word
		default:
			result = append(result, currentLine)
			currentLine = word
		}
	}

	if currentLine != "" {
		result = append(result, currentLine)
	}

	return result
}

func arcanaLabel(c card.Card) string {
	if c.IsMinor() {
		if c.Suit != "" {
			return fmt.Sprintf("Minor Arcana · %s", c.Suit)
		}
		return "Minor Arcana"
	}
	return "Major Arcana"
}

// displayCard prints the card header, keywords and both meanings. The
// meaning matching the card's orientation is highlighted.
func displayCard(w io.Writer, d card.DrawnCard, width int) {
	label := colorize.New(colorize.FgCyan)
	value := colorize.New(colorize.FgHiWhite)
	textWidth := max(width-6, 20)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s  %s\n", d.Image, value.Sprintf("%s (%s)", d.Name, d.KoreanName))
	fmt.Fprintln(w, "  "+label.Sprint("ID:       ")+value.Sprint(d.ID))
	fmt.Fprintln(w, "  "+label.Sprint("Type:     ")+value.Sprint(arcanaLabel(d.Card)))
	if len(d.Keywords) > 0 {
		fmt.Fprintln(w, "  "+label.Sprint("Keywords: ")+value.Sprint(strings.Join(d.Keywords, ", ")))
	}

	meanings := []struct {
		title    string
		text     string
		selected bool
	}{
		{"정방향", d.Upright, !d.IsReversed},
		{"역방향", d.Reversed, d.IsReversed},
	}
	for _, m := range meanings {
		fmt.Fprintln(w)
		title := label.Sprint(m.title)
		if m.selected {
			title = colorize.New(colorize.FgHiYellow, colorize.Bold).Sprint("▶ " + m.title)
		}
		fmt.Fprintln(w, "  "+title)
		for _, line := range wrapText(m.text, textWidth) {
			fmt.Fprintln(w, "    "+line)
		}
	}
	fmt.Fprintln(w)
}

// truncate shortens s to at most n runes
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}
