package cmd

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"vertretungsplan-bot/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var emergencyTTL time.Duration

var emergencyCmd = &cobra.Command{
	Use:   "emergency",
	Short: "Manage the plan url used when DSBmobile cannot be reached",
}

var emergencySetCmd = &cobra.Command{
	Use:   "set <url>",
	Short: "Store an emergency plan url in Redis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := url.Parse(args[0])
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("not an absolute url: %q", args[0])
		}

		return withStorage(cmd.Context(), func(ctx context.Context, store *storage.Storage) error {
			if err := store.SetEmergencyURL(ctx, u.String(), emergencyTTL); err != nil {
				return err
			}
			logger.Info("🚨 Emergency url set", zap.String("url", u.String()), zap.Duration("ttl", emergencyTTL))
			return nil
		})
	},
}

var emergencyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the emergency plan url from Redis",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStorage(cmd.Context(), func(ctx context.Context, store *storage.Storage) error {
			if err := store.ClearEmergencyURL(ctx); err != nil {
				return err
			}
			logger.Info("Emergency url cleared")
			return nil
		})
	},
}

var emergencyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the emergency url the client would fall back to",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStorage(ctx)
		if err != nil {
			return err
		}

		sources := cfg.EmergencySources()
		if store != nil {
			defer store.Close()
			sources = cfg.EmergencySources(store)
		}

		planURL, err := sources.EmergencyURL(ctx)
		if err != nil {
			return err
		}
		if planURL == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "Keine Notfall-URL gesetzt.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), planURL)
		return nil
	},
}

func withStorage(ctx context.Context, fn func(context.Context, *storage.Storage) error) error {
	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("redis.addr is not configured")
	}
	defer store.Close()
	return fn(ctx, store)
}

func init() {
	rootCmd.AddCommand(emergencyCmd)
	emergencyCmd.AddCommand(emergencySetCmd, emergencyClearCmd, emergencyShowCmd)
	emergencySetCmd.Flags().DurationVar(&emergencyTTL, "ttl", 0, "Expire the url after this long (0 keeps it)")
}
