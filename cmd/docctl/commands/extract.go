package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"doc-analyzer/internal/config"
	"doc-analyzer/internal/domain"
	"doc-analyzer/pkg/logger"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	extractJSON bool
	extractJobs int
)

var extractCmd = &cobra.Command{
	Use:   "extract FILE...",
	Short: "Extract text and metadata from one or more documents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "print results as JSON")
	extractCmd.Flags().IntVarP(&extractJobs, "jobs", "j", runtime.NumCPU(), "number of files extracted concurrently")
	rootCmd.AddCommand(extractCmd)
}

// errFilesFailed is returned when at least one file could not be extracted.
var errFilesFailed = errors.New("some files could not be extracted")

type fileExtractor interface {
	Extract(ctx context.Context, path string) (*domain.ExtractionResult, error)
}

type fileResult struct {
	Path    string                    `json:"path"`
	Result  *domain.ExtractionResult  `json:"result,omitempty"`
	Failure *domain.ExtractionFailure `json:"failure,omitempty"`
	Error   string                    `json:"error,omitempty"`
}

func (r fileResult) failed() bool {
	return r.Result == nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	appLogger := logger.New(logger.Options{
		Level:  level,
		Format: "console",
		Output: cmd.ErrOrStderr(),
	})

	ex, err := config.NewExtractor(cfg, appLogger)
	if err != nil {
		return err
	}

	results := extractFiles(ctx, ex, args, extractJobs)
	if err := writeResults(cmd.OutOrStdout(), results, extractJSON); err != nil {
		return err
	}
	for _, r := range results {
		if r.failed() {
			return errFilesFailed
		}
	}
	return nil
}

// extractFiles runs at most jobs extractions at a time. One failing file never
// stops the others; results keep the order of paths.
func extractFiles(ctx context.Context, ex fileExtractor, paths []string, jobs int) []fileResult {
	if jobs < 1 {
		jobs = 1
	}
	results := make([]fileResult, len(paths))

	var g errgroup.Group
	g.SetLimit(jobs)
	for i, path := range paths {
		g.Go(func() error {
			res := fileResult{Path: path}
			out, err := ex.Extract(ctx, path)
			if err != nil {
				var failure *domain.ExtractionFailure
				if errors.As(err, &failure) {
					res.Failure = failure
				}
				res.Error = err.Error()
			} else {
				res.Result = out
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func writeResults(w io.Writer, results []fileResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for _, r := range results {
		name := filepath.Base(r.Path)
		if r.failed() {
			if _, err := fmt.Fprintf(w, "==> %s: FAILED\n%s\n\n", name, r.Error); err != nil {
				return err
			}
			continue
		}
		header := fmt.Sprintf("==> %s (%s, %d attempt(s))", name, r.Result.Method, r.Result.Attempts())
		if title := r.Result.Metadata.Title; title != nil && *title != "" {
			header += " " + *title
		}
		if _, err := fmt.Fprintf(w, "%s\n%s\n\n", header, r.Result.Text); err != nil {
			return err
		}
	}
	return nil
}
