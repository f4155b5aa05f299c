package cmd

import (
	"fmt"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"
)

var concernsCmd = &cobra.Command{
	Use:   "concerns",
	Short: "List concern categories and their situations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		_, concerns, err := loadCatalogs(cfg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, c := range concerns.All() {
			fmt.Fprintf(out, "%s %s %s\n", c.Icon, colorize.HiWhiteString(c.Name), colorize.CyanString("[%s]", c.ID))
			for _, s := range c.Situations {
				fmt.Fprintf(out, "    • %s\n", s)
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(concernsCmd)
}
