package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/rahul4469/code-scanner/internal/config"
	"github.com/rahul4469/code-scanner/internal/logging"
	"github.com/rahul4469/code-scanner/internal/models"
	"github.com/rahul4469/code-scanner/internal/poller"
	"github.com/rahul4469/code-scanner/internal/report"
	"github.com/rahul4469/code-scanner/internal/services"
)

// NewRootCommand creates and returns the root cobra command
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scanner [flags] <file>",
		Short: "Submit source code for security analysis",
		Long: `scanner uploads a source file or ZIP archive to the analysis backend,
waits for the analysis to finish and prints the report.

Supported file types: ` + models.SupportedExtensions,
		Args:          cobra.ExactArgs(1),
		RunE:          runScan,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().Bool("html", false, "Output the report as HTML instead of plain text")
	cmd.Flags().Int("summary", 0, "Only print the first N lines of the plain text report")
	cmd.Flags().StringP("backend", "b", "", "Analysis backend address (overrides BACKEND_URL)")
	cmd.Flags().Duration("interval", 0, "Delay between status checks (overrides POLL_INTERVAL)")
	cmd.Flags().Duration("wait", 0, "Give up after this long (0 waits until the analysis finishes)")
	cmd.Flags().BoolP("verbose", "v", false, "Enable verbose output")

	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	htmlOut, _ := cmd.Flags().GetBool("html")
	summary, _ := cmd.Flags().GetInt("summary")
	backend, _ := cmd.Flags().GetString("backend")
	interval, _ := cmd.Flags().GetDuration("interval")
	wait, _ := cmd.Flags().GetDuration("wait")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load(func(c *config.Config) {
		if backend != "" {
			c.Backend.URL = backend
		}
		if interval > 0 {
			c.Poll.Interval = interval
		}
		if verbose {
			c.Log.Level = "debug"
		}
	})
	if err != nil {
		return err
	}

	logger := logr.Discard()
	if verbose {
		if logger, err = logging.New(cfg.Log.Level, true); err != nil {
			return err
		}
		defer logging.Sync(logger)
	}

	path := args[0]
	if err := models.ValidateArtifactName(path); err != nil {
		return err
	}
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}
	defer file.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := services.NewBackendClient(cfg.Backend.URL, cfg.Backend.Timeout, logger)
	job, err := services.NewSubmitter(client, logger).Submit(ctx, models.Artifact{Name: path, Body: file})
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "Uploaded %s (job %s)\n", path, job.ID)

	if wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}

	watcher := poller.NewWatcher(job.ID, client,
		poller.WithPolicy(cfg.Poll),
		poller.WithLogger(logger),
		poller.WithObserver(progress(stderr)),
	)
	snap, err := watcher.Run(ctx)
	if err != nil {
		return fmt.Errorf("stopped waiting for job %s: %w", job.ID, err)
	}

	return printView(cmd.OutOrStdout(), snap, htmlOut, summary)
}

// progress prints each distinct status line once.
func progress(w io.Writer) func(poller.Snapshot) {
	var last string
	return func(s poller.Snapshot) {
		v := report.RenderView(s)
		if v.Kind != report.ViewProcessing || v.Message == last {
			return
		}
		last = v.Message
		fmt.Fprintln(w, v.Message)
	}
}

func printView(w io.Writer, snap poller.Snapshot, htmlOut bool, summary int) error {
	v := report.RenderView(snap)
	switch v.Kind {
	case report.ViewReport:
		markup := string(v.Report)
		switch {
		case htmlOut:
			fmt.Fprintln(w, markup)
		case summary > 0:
			fmt.Fprint(w, report.Summary(markup, summary))
		default:
			fmt.Fprintln(w, report.PlainText(markup))
		}
		return nil
	case report.ViewAnalysisError:
		return errors.New("analysis failed: " + v.Message)
	default:
		if snap.Err != nil {
			return fmt.Errorf("%s: %w", v.Message, snap.Err)
		}
		return errors.New(v.Message)
	}
}
