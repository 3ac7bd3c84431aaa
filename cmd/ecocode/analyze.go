package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/omegabytes/ecocode-sentinel/analyzer"
	"github.com/omegabytes/ecocode-sentinel/config"
	"github.com/omegabytes/ecocode-sentinel/logger"
	"github.com/omegabytes/ecocode-sentinel/report"
	"github.com/omegabytes/ecocode-sentinel/request"
	"github.com/omegabytes/ecocode-sentinel/session"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		executions int64
		lang       string
		htmlDir    string
	)

	cmd := &cobra.Command{
		Use:   "analyze <file>...",
		Short: "Ask the configured provider for a sustainability analysis of source files",
		Long: "Analyze sends each file to the configured model provider and prints the answer, an energy " +
			"comparison and the cumulative session impact.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			slog.SetDefault(logger.New(os.Stderr, cfg))

			files := args
			a, err := newApp(ctx, cfg, lang)
			if err != nil {
				return err
			}
			defer a.Close()

			if htmlDir != "" {
				if err := os.MkdirAll(htmlDir, 0o755); err != nil {
					return fmt.Errorf("failed to create html directory: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			var failed []string
			for _, path := range files {
				req, err := request.FromFile(path, executions)
				if err != nil {
					slog.ErrorContext(ctx, "failed to read file", "file", path, "error", err)
					failed = append(failed, path)
					continue
				}

				fmt.Fprintf(cmd.ErrOrStderr(), "🔬 Analyzing %s with %s...\n", req.FileName, cfg.LLM.Provider.DisplayName())
				res, err := a.analyzer.Analyze(ctx, req)
				if err != nil {
					if errors.Is(err, request.ErrBinaryContent) {
						fmt.Fprintf(out, "⚠️ %s: binary file detected, analysis available only for text-based files\n\n", path)
					} else {
						slog.ErrorContext(ctx, "analysis failed", "file", path, "error", err)
					}
					failed = append(failed, path)
					continue
				}

				totals := a.analyzer.Session().Snapshot()
				if err := report.WriteText(out, res, totals); err != nil {
					return err
				}
				fmt.Fprintln(out)

				if htmlDir != "" {
					if err := writeHTMLReport(htmlDir, path, res, totals); err != nil {
						return err
					}
				}
			}

			if len(failed) > 0 {
				return fmt.Errorf("%d of %d files could not be analyzed: %s",
					len(failed), len(files), strings.Join(failed, ", "))
			}
			return nil
		},
	}

	cmd.Flags().Int64VarP(&executions, "executions", "n", 0, "monthly executions to assume (0 lets the model assume 1M)")
	cmd.Flags().StringVar(&lang, "lang", "python", "fence tag of the optimized code block to request")
	cmd.Flags().StringVar(&htmlDir, "html", "", "also write an HTML report per file into this directory")
	return cmd
}

func writeHTMLReport(dir, path string, res *analyzer.Result, totals session.Analytics) error {
	name := filepath.Join(dir, strings.ReplaceAll(filepath.ToSlash(filepath.Clean(path)), "/", "_")+".html")
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create html report: %w", err)
	}
	if err := report.WriteHTML(f, res, totals); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write html report: %w", err)
	}
	return f.Close()
}
