package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sparkAPI/internal/catalog"
)

var catalogCategory string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the built-in challenges",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Default()
		if err != nil {
			return err
		}

		challenges := cat.Challenges()
		if catalogCategory != "" {
			if !cat.HasChallengeCategory(catalogCategory) {
				return fmt.Errorf("unknown category %q", catalogCategory)
			}
			challenges = cat.ChallengesByCategory(catalogCategory)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCATEGORY\tDIFFICULTY\tTITLE")
		for _, c := range challenges {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Category, c.Difficulty, c.Title)
		}
		return w.Flush()
	},
}

func init() {
	catalogCmd.Flags().StringVar(&catalogCategory, "category", "", "Only list challenges in this category")
	rootCmd.AddCommand(catalogCmd)
}
