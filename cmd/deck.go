package cmd

import (
	"fmt"
	"math/rand/v2"
	"os"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcanaland/tarotreading/internal/catalog"
	"github.com/arcanaland/tarotreading/internal/config"
	"github.com/arcanaland/tarotreading/internal/deck"
	"github.com/arcanaland/tarotreading/internal/spread"
)

// deckCmd represents the deck command group
var deckCmd = &cobra.Command{
	Use:   "deck",
	Short: "Inspect and shuffle the card catalog",
	Long:  `Commands for listing, shuffling and customizing the card catalog.`,
}

// deckListCmd represents the deck ls command
var deckListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the cards in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cards, _, err := loadCatalogs(cfg)
		if err != nil {
			return err
		}

		source := cfg.Catalog.Cards
		if source == "" {
			source = "built-in"
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d cards (%s)\n\n", cards.Len(), source)
		for _, c := range cards.All() {
			fmt.Fprintf(out, "  %s %-18s %s %s\n", c.Image, c.ID, colorize.HiWhiteString(c.Name), colorize.CyanString("(%s)", c.KoreanName))
		}
		return nil
	},
}

// deckShuffleCmd represents the deck shuffle command
var deckShuffleCmd = &cobra.Command{
	Use:   "shuffle",
	Short: "Shuffle the catalog and draw a spread",
	Long: `Shuffle lays out the catalog face down, as a reading would, and turns
over the first cards of the layout for the chosen spread.

Examples:
  tarot deck shuffle --spread three
  tarot deck shuffle --spread celtic --seed 42`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cards, _, err := loadCatalogs(cfg)
		if err != nil {
			return err
		}

		spreadFlag, _ := cmd.Flags().GetString("spread")
		s, err := spread.Parse(spreadFlag)
		if err != nil {
			return err
		}

		randomizer := deck.NewRandomizer()
		if cmd.Flags().Changed("seed") {
			seed, _ := cmd.Flags().GetUint64("seed")
			randomizer = deck.NewRandomizerFromSource(rand.NewPCG(seed, seed))
		}

		layout := randomizer.Shuffle(cards.All(), max(cfg.Reading.LayoutSize, s.Count()))
		if len(layout) < s.Count() {
			return fmt.Errorf("catalog has %d cards; the %s spread needs %d", len(layout), s, s.Count())
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %d of %d cards laid out\n\n", s.Name(), s.Count(), len(layout))
		labels := spread.Labels(s, s.Count())
		for i, c := range layout[:s.Count()] {
			drawn := randomizer.Draw(c)
			orientation := colorize.GreenString(drawn.Orientation())
			if drawn.IsReversed {
				orientation = colorize.RedString(drawn.Orientation())
			}
			fmt.Fprintf(out, "  %s %s  %s (%s) · %s\n", colorize.CyanString("%-8s", labels[i]), drawn.Image, drawn.Name, drawn.KoreanName, orientation)
			fmt.Fprintf(out, "           %s\n", truncate(drawn.Meaning(), 60))
		}
		return nil
	},
}

// deckInitCmd represents the deck init command
var deckInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config and editable catalog files",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		path := configPath
		if path == "" {
			path = config.GetConfigFilePath()
		}
		if _, err := os.Stat(path); err == nil && !force {
			fmt.Printf("Config already exists at %s\n", path)
		} else {
			if err := config.Save(path, config.Default()); err != nil {
				return err
			}
			fmt.Printf("Wrote config to %s\n", path)
		}

		dataDir := config.GetDataDir()
		written, err := catalog.WriteDefaults(dataDir, force)
		if err != nil {
			return err
		}
		for _, p := range written {
			fmt.Printf("Wrote %s\n", p)
		}
		if len(written) == 0 {
			fmt.Printf("Catalog files already exist in %s\n", dataDir)
		}

		fmt.Println()
		fmt.Println("To read from the editable catalog, set in the config:")
		fmt.Println("  [catalog]")
		fmt.Println(`  cards = "cards.toml"`)
		fmt.Println(`  concerns = "concerns.toml"`)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(deckCmd)
	deckCmd.AddCommand(deckListCmd)
	deckCmd.AddCommand(deckShuffleCmd)
	deckCmd.AddCommand(deckInitCmd)

	deckShuffleCmd.Flags().StringP("spread", "s", string(spread.Three), "spread to draw (one, three, celtic)")
	deckShuffleCmd.Flags().Uint64("seed", 0, "seed for a reproducible shuffle")
	deckInitCmd.Flags().Bool("force", false, "overwrite existing files")
}
