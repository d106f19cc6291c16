package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"glance/internal/batch"
	"glance/internal/config"
	"glance/internal/logging"
	"glance/internal/media"
	"glance/internal/notifications"
	"glance/internal/run"
	"glance/internal/services/vision"
)

const defaultPrompt = "Describe this media item in detail."

func newRunCommand(cmdCtx *commandContext) *cobra.Command {
	var promptFlag string
	var promptFile string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "run [file|url ...]",
		Short: "Submit media items and collect per-item descriptions",
		Long: `Submit a mixed list of local files and remote URLs to the configured
vision model. Items are processed in fixed-size batches at the configured
rate limit; results come back in input order. Press Ctrl-C once to stop
after the current batch, twice to abandon in-flight requests.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			prompt, err := resolvePrompt(promptFlag, promptFile)
			if err != nil {
				return err
			}

			refs := make([]media.Reference, 0, len(args))
			for _, arg := range args {
				ref, err := media.Parse(arg)
				if err != nil {
					return fmt.Errorf("argument %q: %w", arg, err)
				}
				refs = append(refs, ref)
			}

			logger, err := logging.New(logging.Options{
				Level:    cfg.Logging.Level,
				Format:   cfg.Logging.Format,
				Writer:   cmd.ErrOrStderr(),
				FilePath: filepath.Join(cfg.Paths.LogDir, "glance.log"),
			})
			if err != nil {
				return err
			}

			// One active run per machine; mirrors the daemon-style lock file.
			lock := flock.New(filepath.Join(cfg.Paths.LogDir, "glance.lock"))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire run lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another glance run is active (lock %s)", lock.Path())
			}
			defer func() { _ = lock.Unlock() }()

			controller := buildController(cfg, logger)

			runCtx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			installSignalHandler(cmd, controller, cancel)

			if err := controller.Start(runCtx, refs, prompt); err != nil {
				return err
			}

			interactive := isTerminal(os.Stdout) && !jsonOut
			if interactive {
				trackProgress(cmd, controller)
			} else {
				controller.Wait()
			}

			if controller.State() == run.StateFailed {
				return fmt.Errorf("run failed: %w", controller.Err())
			}

			results := controller.Results()
			out := cmd.OutOrStdout()
			switch {
			case jsonOut:
				encoded, err := json.MarshalIndent(results, "", "  ")
				if err != nil {
					return fmt.Errorf("encode results: %w", err)
				}
				fmt.Fprintln(out, string(encoded))
			case interactive:
				fmt.Fprintln(out, renderResultsTable(results))
				fmt.Fprintln(out, summaryLine(controller, results))
			default:
				for _, result := range results {
					status := "ok"
					if result.IsError {
						status = "error"
					}
					fmt.Fprintf(out, "%s\t%s\t%s\n", result.SourceLabel, status, result.Text)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&promptFlag, "prompt", "p", "", "Prompt text sent with every item")
	cmd.Flags().StringVar(&promptFile, "prompt-file", "", "Read the prompt from a file")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit results as JSON")
	return cmd
}

func buildController(cfg *config.Config, logger *slog.Logger) *run.Controller {
	client := vision.NewClient(vision.Config{
		APIKey:         cfg.API.Key,
		BaseURL:        cfg.API.BaseURL,
		Model:          cfg.API.Model,
		Temperature:    cfg.API.Temperature,
		MaxTokens:      cfg.API.MaxTokens,
		TimeoutSeconds: cfg.API.TimeoutSeconds,
	})
	executor := vision.NewExecutor(client, logger,
		vision.WithMaxRetries(cfg.Batch.MaxRetries))
	scheduler := batch.NewScheduler(executor, logger,
		batch.WithBatchSize(cfg.Batch.Size),
		batch.WithRateLimit(cfg.Batch.RateLimitPerMinute))
	return run.NewController(scheduler, logger, notifications.NewService(cfg))
}

func resolvePrompt(flagValue, fileValue string) (string, error) {
	if trimmed := strings.TrimSpace(flagValue); trimmed != "" {
		return trimmed, nil
	}
	if fileValue != "" {
		data, err := os.ReadFile(fileValue)
		if err != nil {
			return "", fmt.Errorf("read prompt file: %w", err)
		}
		trimmed := strings.TrimSpace(string(data))
		if trimmed == "" {
			return "", fmt.Errorf("prompt file %s is empty", fileValue)
		}
		return trimmed, nil
	}
	return defaultPrompt, nil
}

// installSignalHandler maps the first interrupt to a graceful stop (the
// in-flight batch finishes) and a second interrupt to a hard cancel.
func installSignalHandler(cmd *cobra.Command, controller *run.Controller, cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			fmt.Fprintln(cmd.ErrOrStderr(), "stop requested; waiting for the current batch to finish (interrupt again to abandon)")
			controller.Stop()
		case <-controller.Done():
			return
		}
		select {
		case <-sigCh:
			cancel()
		case <-controller.Done():
		}
	}()
}

func trackProgress(cmd *cobra.Command, controller *run.Controller) {
	out := cmd.OutOrStdout()
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-controller.Done():
			fmt.Fprintf(out, "\r%-9s %3d%%\n", titleCase(string(controller.State())), controller.Progress())
			return
		case <-ticker.C:
			fmt.Fprintf(out, "\r%-9s %3d%%", titleCase(string(controller.State())), controller.Progress())
		}
	}
}

func summaryLine(controller *run.Controller, results []media.ItemResult) string {
	failed := 0
	for _, result := range results {
		if result.IsError {
			failed++
		}
	}
	return fmt.Sprintf("%s: %d items, %d failed", titleCase(string(controller.State())), len(results), failed)
}

func isTerminal(file *os.File) bool {
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
