package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/tgamauf/gitsup/pkg/config"
	"github.com/tgamauf/gitsup/pkg/github"
	"github.com/tgamauf/gitsup/pkg/report"
	"github.com/tgamauf/gitsup/pkg/submodule"
)

var (
	token       string
	configFile  string
	parentRef   string
	dryRun      bool
	concurrency int
	baseURL     string
	timeout     time.Duration
	logLevel    string
	reportFile  string
	failOnError bool
)

var errSubmodulesFailed = errors.New("one or more submodules could not be reconciled")

var rootCmd = &cobra.Command{
	Use:   "gitsup",
	Short: "Update git submodules to the latest commit of their tracked branch",
	Long: `gitsup moves the submodule pointers of a GitHub repository to the head of
each submodule's tracked branch. All changed pointers are written as a single
commit through the GitHub API; no local clone is needed.

Configuration is read from the command line, the environment (GITSUP_*) and
an optional YAML or JSON config file, in that order of precedence.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := withLogger(cmd.Context(), cmd.ErrOrStderr(), logLevel)
		if err != nil {
			return err
		}
		return run(ctx, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.Flags().StringVarP(&token, "token", "t", "", "GitHub personal access token (overrides GITSUP_TOKEN and the config file)")
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "Config file path in YAML/JSON syntax")
	rootCmd.Flags().StringVar(&parentRef, "parent", "", "Parent repository as owner/repo[:branch]")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute and report the changes without committing them")
	rootCmd.Flags().IntVar(&concurrency, "concurrency", submodule.DefaultConcurrency, "Number of submodule branches fetched in parallel")
	rootCmd.Flags().StringVar(&baseURL, "base-url", github.DefaultBaseURL, "GitHub API base URL (GitHub Enterprise: https://host/api/v3)")
	rootCmd.Flags().DurationVar(&timeout, "timeout", github.DefaultTimeout, "Timeout of a single GitHub API request")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.Flags().StringVar(&reportFile, "report-file", "", "Write a JSON summary of the run to this path")
	rootCmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "Exit non-zero when a submodule could not be reconciled")

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("gitsup version {{.Version}}\n")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// withLogger stores a text logger writing to w at the given level in ctx.
func withLogger(ctx context.Context, w io.Writer, level string) (context.Context, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	logger := clog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	return clog.WithLogger(ctx, logger), nil
}

// run executes one update: resolve the configuration, reconcile every
// submodule, commit the changes and report.
func run(ctx context.Context, out io.Writer) error {
	cfg, err := config.Resolve(ctx, config.Options{
		Token:      token,
		Parent:     parentRef,
		ConfigFile: configFile,
	})
	if err != nil {
		return err
	}

	log := clog.FromContext(ctx)
	log.Info("resolved configuration", "config", cfg, "dry_run", dryRun)

	client := github.NewClient(cfg.Token,
		github.WithBaseURL(baseURL),
		github.WithTimeout(timeout),
	)
	collector := report.NewCollector(cfg.Spec(), len(cfg.Submodules), dryRun)

	runErr := update(ctx, client, cfg, collector)
	if runErr != nil {
		collector.SetError(runErr)
	}

	if err := collector.Render(out); err != nil {
		log.Warnf("failed to render report: %v", err)
	}
	if reportFile != "" {
		if err := report.WriteSummary(reportFile, collector.Summary()); err != nil {
			return errors.Join(runErr, err)
		}
	}

	if runErr != nil {
		return runErr
	}
	if failOnError && collector.HasFailures() {
		return errSubmodulesFailed
	}
	return nil
}

func update(ctx context.Context, remote submodule.Remote, cfg *config.Config, collector *report.Collector) error {
	plan, err := submodule.NewReconciler(remote, concurrency).Reconcile(ctx, cfg, collector)
	if err != nil {
		return err
	}

	if dryRun {
		clog.FromContext(ctx).Infof("dry run: %d submodule(s) would be updated", len(plan.Changes))
		return nil
	}

	result, err := submodule.NewUpdater(remote).Apply(ctx, cfg, plan)
	if err != nil {
		return err
	}
	if result.Committed {
		collector.MarkCommitted(result.CommitSHA)
	}
	return nil
}
