package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"sparkAPI/internal/app"
	"sparkAPI/internal/config"
	"sparkAPI/internal/logger"
)

var (
	verbose   bool
	profileID string
	ownerID   string
)

var rootCmd = &cobra.Command{
	Use:           "sparkctl",
	Short:         "sparkctl administers the Spark challenge service",
	Long:          "sparkctl runs migrations, inspects the challenge catalog and manages couple progress directly against the database.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr")
}

// addProfileFlags registers the flags that pick a couple.
func addProfileFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&profileID, "profile", "", "Couple profile ID")
	cmd.Flags().StringVar(&ownerID, "owner", "", "Clerk user ID owning the profile")
}

func newLogger() (*logger.Logger, error) {
	if !verbose {
		return logger.Nop(), nil
	}
	return logger.New("dev")
}

func withApp(ctx context.Context, run func(*app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	a, err := app.New(connectCtx, cfg, log, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer a.Close()
	return run(a)
}

func resolveProfile(ctx context.Context, a *app.App) (uuid.UUID, error) {
	profileID = strings.TrimSpace(profileID)
	ownerID = strings.TrimSpace(ownerID)
	switch {
	case profileID != "" && ownerID != "":
		return uuid.Nil, fmt.Errorf("use either --profile or --owner, not both")
	case profileID != "":
		id, err := uuid.Parse(profileID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid --profile %q", profileID)
		}
		return id, nil
	case ownerID != "":
		return a.Couples.ProfileIDForOwner(ctx, ownerID)
	default:
		return uuid.Nil, fmt.Errorf("--profile or --owner is required")
	}
}
