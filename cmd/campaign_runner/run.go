package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/campaign-runner/internal/calling"
	"github.com/jonathan/campaign-runner/internal/campaign"
	"github.com/jonathan/campaign-runner/internal/config"
	"github.com/jonathan/campaign-runner/internal/db"
	"github.com/jonathan/campaign-runner/internal/logging"
	"github.com/jonathan/campaign-runner/internal/metrics"
	"github.com/jonathan/campaign-runner/internal/observability"
	"github.com/jonathan/campaign-runner/internal/report"
	"github.com/jonathan/campaign-runner/internal/schemas"
	"github.com/jonathan/campaign-runner/internal/transcripts"
	"github.com/jonathan/campaign-runner/internal/types"
)

// dbTimeout bounds each database interaction. Persistence is best-effort.
const dbTimeout = 10 * time.Second

type runFlags struct {
	configPath     string
	input          string
	output         string
	assistantID    string
	assistantName  string
	fromNumber     string
	apiURL         string
	delay          time.Duration
	concurrency    int
	skipTranscript bool
	maxPolls       int
	pollInterval   time.Duration
	matchEarliest  bool
	databaseURL    string
	metricsAddr    string
	logFormat      string
	verbose        bool
}

func newRunCommand() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Call every contact and write the results report",
		Long: `Reads contacts (name,number) from a CSV file, places one call per contact, waits
for each call's transcript and writes name,number,call_id,call_status,transcript rows.

With --concurrency 1 contacts are called one at a time with --delay between calls;
otherwise up to --concurrency calls run in parallel.

Configuration can be loaded from a JSON or YAML file using --config. Command-line
arguments override config file values, which override the environment.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCampaignCmd(cmd, &f)
		},
	}

	flags := cmd.Flags()
	// Config file flag (processed first)
	flags.StringVar(&f.configPath, "config", "", "Path to a JSON or YAML config file (values can be overridden by other flags)")

	flags.StringVarP(&f.input, "input", "i", "", "Input CSV file path (columns: name,number)")
	flags.StringVarP(&f.output, "output", "o", "", "Output CSV file path")
	flags.StringVarP(&f.assistantID, "assistant-id", "a", "", "Assistant ID to use for calls")
	flags.StringVarP(&f.assistantName, "assistant-name", "n", config.DefaultAssistantName, "Assistant name")
	flags.StringVarP(&f.fromNumber, "from-number", "f", "", "Trunk phone number (e.g., +13157918262)")
	flags.StringVar(&f.apiURL, "api-url", config.DefaultAPIURL, "Dashboard API URL")
	flags.DurationVarP(&f.delay, "delay", "d", config.DefaultDelay, "Delay between calls in sequential mode")
	flags.IntVarP(&f.concurrency, "concurrency", "c", config.DefaultConcurrency, "Number of parallel calls (1 = sequential)")
	flags.BoolVar(&f.skipTranscript, "skip-transcript", false, "Skip waiting for transcripts")
	flags.IntVar(&f.maxPolls, "max-polls", config.DefaultMaxPolls, "Maximum transcript fetch attempts per call")
	flags.DurationVar(&f.pollInterval, "poll-interval", config.DefaultPollInterval, "Delay between transcript fetch attempts")
	flags.BoolVar(&f.matchEarliest, "match-earliest", false, "When several transcripts match by phone and time, take the earliest")

	flags.StringVar(&f.databaseURL, "db-url", "", "PostgreSQL connection URL for storing results (optional, defaults to DATABASE_URL env var)")
	flags.StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address during the run (e.g., :9090)")
	flags.StringVar(&f.logFormat, "log-format", config.DefaultLogFormat, "Log format: console or json")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "Print detailed debug information")

	return cmd
}

// resolveConfig merges config file, environment, defaults and explicitly set
// flags, in increasing priority.
func resolveConfig(cmd *cobra.Command, f *runFlags) (config.Config, error) {
	var cfg config.Config
	if f.configPath != "" {
		loaded, err := config.LoadConfig(f.configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		if err := checkConfigSchema(cmd.ErrOrStderr(), f.configPath); err != nil {
			return cfg, err
		}
		if err := loaded.Validate(); err != nil {
			return cfg, err
		}
		cfg = *loaded
	}

	cfg = cfg.MergeWithDefaults(config.FromEnv(nil))
	cfg = cfg.MergeWithDefaults(config.Defaults())

	// Only override if the flag was explicitly set
	changed := cmd.Flags().Changed
	if changed("input") {
		cfg.Input = f.input
	}
	if changed("output") {
		cfg.Output = f.output
	}
	if changed("assistant-id") {
		cfg.AssistantID = f.assistantID
	}
	if changed("assistant-name") {
		cfg.AssistantName = f.assistantName
	}
	if changed("from-number") {
		cfg.FromNumber = f.fromNumber
	}
	if changed("api-url") {
		cfg.APIURL = f.apiURL
	}
	if changed("delay") {
		cfg.Delay = config.Duration{Duration: f.delay}
	}
	if changed("concurrency") {
		cfg.Concurrency = f.concurrency
	}
	if changed("skip-transcript") {
		cfg.SkipTranscript = f.skipTranscript
	}
	if changed("max-polls") {
		cfg.MaxPolls = f.maxPolls
	}
	if changed("poll-interval") {
		cfg.PollInterval = config.Duration{Duration: f.pollInterval}
	}
	if changed("match-earliest") {
		cfg.MatchEarliest = f.matchEarliest
	}
	if changed("db-url") {
		cfg.DatabaseURL = f.databaseURL
	}
	if changed("metrics-addr") {
		cfg.MetricsAddr = f.metricsAddr
	}
	if changed("log-format") {
		cfg.LogFormat = f.logFormat
	}
	if changed("verbose") {
		cfg.Verbose = f.verbose
	}

	if err := cfg.ValidateForRun(); err != nil {
		return cfg, err
	}
	if !cfg.SkipTranscript {
		if err := cfg.Credentials().Validate(); err != nil {
			return cfg, fmt.Errorf("transcript polling needs provider credentials (or use --skip-transcript): %w", err)
		}
	}
	return cfg, nil
}

// checkConfigSchema validates the config document against the bundled schema.
// A missing or unloadable schema only warns; a document that violates it fails.
func checkConfigSchema(stderr io.Writer, path string) error {
	schemaPath := schemas.ResolveSchemaPath(schemas.CampaignConfigSchema)
	if schemaPath == "" {
		return nil
	}

	doc, err := config.LoadDocument(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := schemas.ValidateDocument(schemaPath, doc); err != nil {
		var validationErr *schemas.ValidationError
		var schemaLoadErr *schemas.SchemaLoadError
		if errors.As(err, &validationErr) {
			return fmt.Errorf("config file does not validate against schema: %w", err)
		} else if errors.As(err, &schemaLoadErr) {
			_, _ = fmt.Fprintf(stderr, "Warning: Could not validate config against schema (schema loading failed): %v\n", err)
		} else {
			_, _ = fmt.Fprintf(stderr, "Warning: Could not validate config against schema: %v\n", err)
		}
	}
	return nil
}

func runCampaignCmd(cmd *cobra.Command, f *runFlags) error {
	cfg, err := resolveConfig(cmd, f)
	if err != nil {
		return err
	}

	baseLogger, err := logging.New(cmd.ErrOrStderr(), cfg.LogFormat, cfg.Verbose)
	if err != nil {
		return err
	}
	campaignID := uuid.New()
	logger := baseLogger.With(logging.String("campaign_id", campaignID.String()))

	// Input errors are fatal and must surface before any call is placed.
	contacts, err := report.ReadContacts(cfg.Input)
	if err != nil {
		return err
	}
	logger.Info("contacts loaded", logging.Int("contacts", len(contacts)), logging.String("input", cfg.Input))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		metricsCtx, stopMetrics := context.WithCancel(context.Background())
		defer stopMetrics()
		go func() {
			if err := m.Serve(metricsCtx, cfg.MetricsAddr); err != nil {
				logger.Error("metrics server failed", err, logging.String("addr", cfg.MetricsAddr))
			}
		}()
		logger.Info("serving metrics", logging.String("addr", cfg.MetricsAddr))
	}

	store := openStore(ctx, cfg, campaignID, len(contacts), logger)
	if store != nil {
		defer store.Close()
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	printer.PrintCampaignHeader(observability.CampaignHeader{
		CampaignID:     campaignID.String(),
		Input:          cfg.Input,
		Output:         cfg.Output,
		AssistantName:  cfg.AssistantName,
		AssistantID:    cfg.AssistantID,
		FromNumber:     cfg.FromNumber,
		APIURL:         cfg.APIURL,
		Concurrency:    cfg.Concurrency,
		Delay:          cfg.Delay.Duration,
		Contacts:       len(contacts),
		SkipTranscript: cfg.SkipTranscript,
	})

	processor, err := buildProcessor(cfg, m, logger)
	if err != nil {
		return err
	}

	done := 0
	runner := &campaign.Runner{
		Processor:   processor,
		Concurrency: cfg.Concurrency,
		Delay:       cfg.Delay.Duration,
		Logger:      logger,
		OnResult: func(r types.ResultRecord) {
			done++
			printer.PrintResult(done, len(contacts), r)
		},
	}

	results, runErr := runner.Run(ctx, contacts)
	if runErr != nil {
		if store != nil {
			finishStore(store, campaignID, db.CampaignStatusInterrupted, campaign.Summarize(results), nil, logger)
		}
		return fmt.Errorf("campaign interrupted after %d of %d contacts, no report written: %w",
			len(results), len(contacts), runErr)
	}

	if err := report.WriteResults(cfg.Output, results); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	logger.Info("report written", logging.String("output", cfg.Output), logging.Int("rows", len(results)))

	summary := campaign.Summarize(results)
	if store != nil {
		finishStore(store, campaignID, db.CampaignStatusCompleted, summary, results, logger)
	}

	printer.PrintSummary(summary, cfg.Output)
	return nil
}

func buildProcessor(cfg config.Config, m *metrics.Metrics, logger logging.Logger) (*campaign.Processor, error) {
	caller, err := calling.NewClient(cfg.APIURL, &calling.Options{
		Timeout: calling.DefaultTimeout,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	processor := &campaign.Processor{
		Caller:         caller,
		AssistantID:    cfg.AssistantID,
		AssistantName:  cfg.AssistantName,
		FromNumber:     cfg.FromNumber,
		SkipTranscript: cfg.SkipTranscript,
		Metrics:        m,
		Logger:         logger,
	}
	if cfg.SkipTranscript {
		return processor, nil
	}

	creds := cfg.Credentials()
	logger.Debug("transcript provider configured", logging.String("credentials", creds.String()))

	source, err := transcripts.NewClient(creds.TranscriptAPIURL, creds.UserUID, creds.APIKey, &transcripts.Options{
		Timeout: transcripts.DefaultTimeout,
		Logger:  logger,
		OnListError: func(error) {
			m.RecordFetchError()
		},
	})
	if err != nil {
		return nil, err
	}

	policy := transcripts.FirstSeen
	if cfg.MatchEarliest {
		policy = transcripts.EarliestAfterStart
	}

	processor.Waiter = &transcripts.Poller{
		Source:      source,
		Matcher:     transcripts.Matcher{Policy: policy},
		MaxAttempts: cfg.MaxPolls,
		Interval:    cfg.PollInterval.Duration,
		Logger:      logger,
		OnAttempt:   func(int) { m.RecordPoll() },
	}
	processor.Content = source
	return processor, nil
}

// openStore connects the optional result database. Any failure disables
// persistence with a warning; the CSV report stays authoritative.
func openStore(ctx context.Context, cfg config.Config, id uuid.UUID, total int, logger logging.Logger) *db.DB {
	if cfg.DatabaseURL == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	store, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Warn("result database unavailable, continuing without it", logging.Err(err))
		return nil
	}
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Warn("failed to prepare result database, continuing without it", logging.Err(err))
		store.Close()
		return nil
	}
	err = store.CreateCampaign(ctx, db.CampaignInput{
		ID:          id,
		AssistantID: cfg.AssistantID,
		FromNumber:  cfg.FromNumber,
		InputPath:   cfg.Input,
		Total:       total,
	})
	if err != nil {
		logger.Warn("failed to record campaign, continuing without database", logging.Err(err))
		store.Close()
		return nil
	}
	return store
}

func finishStore(store *db.DB, id uuid.UUID, status string, summary campaign.Summary, results []types.ResultRecord, logger logging.Logger) {
	// The run context may already be cancelled here.
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if len(results) > 0 {
		if err := store.SaveResults(ctx, id, results); err != nil {
			logger.Warn("failed to store results", logging.Err(err))
		}
	}
	if err := store.CompleteCampaign(ctx, id, status, summary); err != nil {
		logger.Warn("failed to finalize campaign record", logging.Err(err))
	}
}
