package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/examwatch/examwatch/internal/config"
	"github.com/examwatch/examwatch/internal/pipeline"
	"github.com/examwatch/examwatch/internal/worker"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Re-check monitored pages for cancellations and postponements",
	Long: `Fetch every active monitoring target, detect content changes,
classify cancellation and postponement notices and propagate verified
status changes to the database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		slog.SetDefault(logger)

		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		targets, err := st.ListActiveTargets(ctx)
		if err != nil {
			return err
		}
		if len(targets) == 0 {
			fmt.Println("No active monitoring targets.")
			return nil
		}
		logger.Info("monitoring run starting", "targets", len(targets))

		pipe, err := pipeline.NewPipeline(cfg, st, logger)
		if err != nil {
			return err
		}
		runner := worker.NewRunner(pipe, cfg.Crawl, logger)

		stats := runner.Monitor(ctx, targets)
		printStats(stats)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}
