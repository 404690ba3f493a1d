package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/examwatch/examwatch/internal/config"
	"github.com/examwatch/examwatch/internal/model"
	"github.com/examwatch/examwatch/internal/pipeline"
	"github.com/examwatch/examwatch/internal/store"
	"github.com/examwatch/examwatch/internal/worker"
)

const timeRound = 10 * time.Millisecond

var (
	crawlFile string
	crawlType string
)

var recordTypes = map[string]model.RecordType{
	"notification": model.RecordNotification,
	"admit_card":   model.RecordAdmitCard,
	"result":       model.RecordResult,
	"answer_key":   model.RecordAnswerKey,
}

var crawlCmd = &cobra.Command{
	Use:   "crawl [urls...]",
	Short: "Crawl listing pages into exam events",
	Long: `Fetch the given listing pages, extract exam records of the chosen
type and persist them. URLs come from the arguments, from --file, or
both.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		slog.SetDefault(logger)

		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}

		recordType, ok := recordTypes[crawlType]
		if !ok {
			return fmt.Errorf("unknown record type %q (notification, admit_card, result, answer_key)", crawlType)
		}

		urls := append([]string(nil), args...)
		if crawlFile != "" {
			fromFile, err := worker.ReadURLsFromFile(crawlFile)
			if err != nil {
				return err
			}
			urls = append(urls, fromFile...)
		}
		if len(urls) == 0 {
			return fmt.Errorf("no URLs given: pass them as arguments or via --file")
		}

		ctx := cmd.Context()
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		pipe, err := pipeline.NewPipeline(cfg, st, logger)
		if err != nil {
			return err
		}
		runner := worker.NewRunner(pipe, cfg.Crawl, logger)

		targets := make([]worker.CrawlTarget, 0, len(urls))
		for _, u := range urls {
			targets = append(targets, worker.CrawlTarget{URL: u, Type: recordType})
		}

		stats := runner.Crawl(ctx, targets)
		printStats(stats)
		return nil
	},
}

func openStore(ctx context.Context, cfg *config.Config) (*store.PostgresStore, error) {
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database.url is not configured (or EXAMWATCH_DATABASE_URL)")
	}
	return store.NewPostgresStore(ctx, cfg.Database.URL)
}

func printStats(stats *model.RunStats) {
	fmt.Printf("Pages fetched:    %d\n", stats.PagesFetched)
	fmt.Printf("Items extracted:  %d\n", stats.ItemsExtracted)
	fmt.Printf("Items valid:      %d\n", stats.ItemsValid)
	fmt.Printf("Items invalid:    %d\n", stats.ItemsInvalid)
	fmt.Printf("Items persisted:  %d\n", stats.ItemsPersisted)
	fmt.Printf("Changes detected: %d\n", stats.ChangesDetected)
	fmt.Printf("Changes approved: %d\n", stats.ChangesApproved)
	fmt.Printf("Duration:         %s\n", stats.Duration().Round(timeRound))
	if len(stats.Errors) > 0 {
		fmt.Fprintf(os.Stderr, "\n%d errors:\n", len(stats.Errors))
		for _, e := range stats.Errors {
			fmt.Fprintf(os.Stderr, "  [%s] %s: %s\n", e.Type, e.URL, e.Message)
		}
	}
}

func init() {
	crawlCmd.Flags().StringVarP(&crawlFile, "file", "f", "", "file with URLs, one per line")
	crawlCmd.Flags().StringVarP(&crawlType, "type", "t", "notification", "record type to extract")
	rootCmd.AddCommand(crawlCmd)
}
