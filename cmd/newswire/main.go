// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/newswire"
	"github.com/poiesic/newswire/ai"
	"github.com/poiesic/newswire/config"
	"github.com/poiesic/newswire/dedup"
	"github.com/poiesic/newswire/digest"
	"github.com/poiesic/newswire/ingestion"
	"github.com/poiesic/newswire/notify"
	"github.com/poiesic/newswire/notify/email"
	"github.com/poiesic/newswire/notify/telegram"
	"github.com/poiesic/newswire/reembed"
	"github.com/poiesic/newswire/scoring"
	"github.com/poiesic/newswire/source"
	"github.com/poiesic/newswire/source/newsapi"
	"github.com/poiesic/newswire/source/rss"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

// errAllEntitiesFailed is returned by run when no entity completed.
var errAllEntitiesFailed = errors.New("every entity failed")

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to the YAML configuration file (defaults to $NEWSWIRE_CONFIG)",
	}

	return &cli.App{
		Name:  "newswire",
		Usage: "Collect, score and deduplicate company news into a daily digest",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run the pipeline for every configured company and deliver the digest",
				Action: runCommand,
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{
						Name:  "metrics-addr",
						Usage: "Serve Prometheus metrics on this address while running (e.g. :9090)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search stored articles of a company",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{
						Name:     "entity",
						Aliases:  []string{"e"},
						Usage:    "Company whose articles are searched",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 10,
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all stored articles with the configured embedding model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					configFlag,
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of articles to process in each batch",
						Value: reembed.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N articles",
						Value: 100,
					},
				},
			},
		},
	}
}

func runCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	if addr := c.String("metrics-addr"); addr != "" {
		shutdown := serveMetrics(addr)
		defer shutdown()
	}

	src, err := buildSource(cfg)
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	scorer, err := scoring.NewScorer(scoring.WithFloor(cfg.Scoring.Floor))
	if err != nil {
		return err
	}

	pipeline, err := db.NewPipeline(src, cfg.Entities(),
		ingestion.WithWorkers(cfg.Pipeline.Workers),
		ingestion.WithScorer(scorer),
		ingestion.WithMaxPerEntity(cfg.Pipeline.MaxPerEntity),
		ingestion.WithEntityTimeout(cfg.Pipeline.Timeout),
		ingestion.WithRetryPolicy(cfg.RetryPolicy()),
	)
	if err != nil {
		return err
	}

	runs, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	builder, err := digest.NewBuilder(digest.WithHighPriorityCutoff(cfg.Scoring.HighPriority))
	if err != nil {
		return err
	}
	d := builder.Build(runs)

	notifier, closeOutput, err := buildNotifier(cfg, c.App.Writer)
	if err != nil {
		return err
	}
	defer closeOutput()

	if err := notifier.Notify(ctx, d); err != nil {
		return fmt.Errorf("failed to deliver digest: %w", err)
	}

	if len(d.FailedEntities()) == len(runs) {
		return errAllEntitiesFailed
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("a search query is required")
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return err
	}

	results, err := searcher.FindSimilar(c.Context, c.String("entity"), query, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out := c.App.Writer
	if len(results) == 0 {
		fmt.Fprintln(out, "No matching articles.")
		return nil
	}
	for _, r := range results {
		fmt.Fprintf(out, "%.3f  %s\n       %s\n", r.Score, r.Article.Title, r.Article.URL)
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	if c.Int("batch-size") <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if c.Int("report-interval") <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	reembedder, err := db.NewReembedder(&reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		Retry:          cfg.RetryPolicy(),
	}, os.Stderr)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", cfg.Storage.Path)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", cfg.AI.Host)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", cfg.AI.Model)
	fmt.Fprintln(os.Stderr)

	if _, err := reembedder.Run(c.Context); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func openDatabase(cfg config.Config, opts ...newswire.DatabaseOption) (*newswire.Database, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(cfg.AI.Host),
		ai.WithEmbeddingModel(cfg.AI.Model),
		ai.WithAPIKey(cfg.AI.APIKey),
	)

	base := []newswire.DatabaseOption{
		newswire.WithAIConfig(aiConfig),
		newswire.WithGateOptions(
			dedup.WithThreshold(cfg.Dedup.Threshold),
			dedup.WithTopK(cfg.Dedup.TopK),
			dedup.WithRetryPolicy(cfg.RetryPolicy()),
		),
		newswire.WithStoreOptions(
			ingestion.WithStoreWorkers(cfg.Pipeline.StoreWorkers),
			ingestion.WithStoreRetryPolicy(cfg.RetryPolicy()),
		),
	}
	if cfg.Storage.InMemory {
		base = append(base, newswire.WithInMemory())
	}
	return newswire.NewDatabase(cfg.Storage.Path, append(base, opts...)...)
}

func buildSource(cfg config.Config) (source.Adapter, error) {
	var adapters []source.Adapter

	if cfg.Sources.NewsAPI.Enabled {
		client, err := newsapi.NewClient(cfg.Sources.NewsAPI.APIKey,
			newsapi.WithBaseURL(cfg.Sources.NewsAPI.BaseURL),
			newsapi.WithPageSize(cfg.Sources.NewsAPI.PageSize),
			newsapi.WithDaysBack(cfg.Sources.NewsAPI.DaysBack),
		)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, client)
	}

	if cfg.Sources.RSS.Enabled {
		feed, err := rss.NewGoogleNews(
			rss.WithBaseURL(cfg.Sources.RSS.BaseURL),
			rss.WithLimit(cfg.Sources.RSS.Limit),
			rss.WithRateLimit(cfg.Sources.RSS.RequestsPerSecond, 2),
		)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, feed)
	}

	if len(adapters) == 1 {
		return adapters[0], nil
	}
	multi, err := source.NewMulti(slog.Default(), adapters...)
	if err != nil {
		return nil, err
	}
	return multi, nil
}

// buildNotifier assembles the configured delivery channels. The returned
// close function releases the output file, if one was opened.
func buildNotifier(cfg config.Config, stdout io.Writer) (notify.Notifier, func() error, error) {
	closer := func() error { return nil }
	notifiers := notify.Multi{notify.NewLogNotifier(slog.Default())}

	format, err := notify.ParseFormat(cfg.Notify.Format)
	if err != nil {
		return nil, closer, err
	}

	switch cfg.Notify.Output {
	case "":
	case "-":
		notifiers = append(notifiers, notify.NewWriterNotifier(stdout, format))
	default:
		f, err := os.Create(cfg.Notify.Output)
		if err != nil {
			return nil, closer, fmt.Errorf("failed to open digest output: %w", err)
		}
		closer = f.Close
		notifiers = append(notifiers, notify.NewWriterNotifier(f, format))
	}

	if cfg.Notify.Telegram.Enabled() {
		tg, err := telegram.NewNotifier(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID)
		if err != nil {
			closer()
			return nil, func() error { return nil }, err
		}
		notifiers = append(notifiers, tg)
	}

	if mailCfg := cfg.Notify.Email; mailCfg.Enabled() {
		mailer, err := email.NewNotifier(email.Config{
			Host:     mailCfg.Host,
			Port:     mailCfg.Port,
			Username: mailCfg.Username,
			Password: mailCfg.Password,
			From:     mailCfg.Sender(),
			To:       mailCfg.Recipients(),
			TLS:      email.TLS(mailCfg.TLS),
		})
		if err != nil {
			closer()
			return nil, func() error { return nil }, err
		}
		notifiers = append(notifiers, mailer)
	}

	return notifiers, closer, nil
}

// serveMetrics exposes the Prometheus registry until the returned function is called.
func serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server stopped", "addr", addr, "err", err)
		}
	}()
	slog.Info("serving metrics", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
