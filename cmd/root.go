package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"vertretungsplan-bot/config"
	"vertretungsplan-bot/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "vertretungsplan",
	Short: "Find the substitutions that concern your lessons",
	Long: `vertretungsplan logs into DSBmobile, downloads the school's current Untis
substitution plan and shows the entries that match your lessons.

Lessons are written as "<class>" or "<class> <weekday> <period> <subject> <room> [A|B]",
for example "05A" or "05A Mo 1 Deu 1.23 A".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}

		logger, err = logging.New(cfg.Log)
		if err != nil {
			return err
		}

		if cfg.Timezone != "" {
			loc, err := time.LoadLocation(cfg.Timezone)
			if err != nil {
				logger.Warn("⚠️ Failed to load timezone, using system default",
					zap.String("timezone", cfg.Timezone), zap.Error(err))
			} else {
				time.Local = loc
			}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
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
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "Path to the YAML config file")
}
