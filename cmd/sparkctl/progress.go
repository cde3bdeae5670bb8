package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sparkAPI/internal/app"
	"sparkAPI/services"
)

var (
	exportOut    string
	resetConfirm bool
	nextCategory string
	nextID       string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a couple's profile and progress as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			id, err := resolveProfile(cmd.Context(), a)
			if err != nil {
				return err
			}
			export, err := a.Challenges.ExportProgress(cmd.Context(), id)
			if err != nil {
				return err
			}
			b, err := json.MarshalIndent(export, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal export json: %w", err)
			}
			if exportOut == "" {
				_, err = cmd.OutOrStdout().Write(append(b, '\n'))
				return err
			}
			if err := os.WriteFile(exportOut, b, 0o600); err != nil {
				return fmt.Errorf("write export file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", id, exportOut)
			return nil
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Erase a couple's completions, badges and current challenge",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetConfirm {
			return fmt.Errorf("reset is irreversible; pass --yes to confirm")
		}
		return withApp(cmd.Context(), func(a *app.App) error {
			id, err := resolveProfile(cmd.Context(), a)
			if err != nil {
				return err
			}
			if err := a.Challenges.ResetProgress(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Progress reset for %s\n", id)
			return nil
		})
	},
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Run a selection cycle and offer the couple a new challenge",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			id, err := resolveProfile(cmd.Context(), a)
			if err != nil {
				return err
			}
			view, err := a.Challenges.GetNextChallenge(cmd.Context(), id, services.NextChallengeRequest{
				Category:    nextCategory,
				ChallengeID: nextID,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s [%s, %s, %s]\n", view.Title, view.Category, view.Difficulty, view.Source)
			fmt.Fprintln(out, view.Description)
			return nil
		})
	},
}

func init() {
	addProfileFlags(exportCmd)
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Write to this file instead of stdout")

	addProfileFlags(resetCmd)
	resetCmd.Flags().BoolVar(&resetConfirm, "yes", false, "Confirm the reset")

	addProfileFlags(nextCmd)
	nextCmd.Flags().StringVar(&nextCategory, "category", "", "Restrict the selection to this category")
	nextCmd.Flags().StringVar(&nextID, "challenge", "", "Offer this challenge ID")

	rootCmd.AddCommand(exportCmd, resetCmd, nextCmd)
}
