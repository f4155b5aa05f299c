package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arcanaland/tarotreading/internal/config"
	"github.com/arcanaland/tarotreading/internal/validator"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate card and concern catalog files",
	Long: `Validate checks catalog files for missing fields, duplicate IDs and
catalogs too small for the spreads. Without flags it checks the catalogs
named in the config, or the built-in ones.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cardsPath, _ := cmd.Flags().GetString("cards")
		concernsPath, _ := cmd.Flags().GetString("concerns")

		if cardsPath == "" || concernsPath == "" {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cardsPath == "" {
				if cardsPath, err = config.ResolveCatalogPath(cfg.Catalog.Cards); err != nil {
					return err
				}
			}
			if concernsPath == "" {
				if concernsPath, err = config.ResolveCatalogPath(cfg.Catalog.Concerns); err != nil {
					return err
				}
			}
		}

		v := validator.NewValidator(cardsPath, concernsPath)
		results, err := v.Validate()
		if err != nil {
			return fmt.Errorf("validation error: %v", err)
		}

		fmt.Println("Validation Results:")
		fmt.Println("-------------------")

		name := func(path string) string {
			if path == "" {
				return "built-in"
			}
			return path
		}
		subject := fmt.Sprintf("cards: %s, concerns: %s", name(cardsPath), name(concernsPath))

		if len(results.Errors) == 0 {
			fmt.Printf("✅ Catalog (%s) is valid.\n", subject)
		} else {
			fmt.Printf("❌ Catalog (%s) has %d validation errors:\n", subject, len(results.Errors))
			for i, err := range results.Errors {
				fmt.Printf("%d. %s\n", i+1, err)
			}
			return fmt.Errorf("validation failed")
		}

		if len(results.Warnings) > 0 {
			fmt.Println("\nWarnings:")
			for i, warn := range results.Warnings {
				fmt.Printf("%d. %s\n", i+1, warn)
			}
		}

		return nil
	},
}

func init() {
	validateCmd.Flags().String("cards", "", "card catalog file")
	validateCmd.Flags().String("concerns", "", "concern catalog file")
}
