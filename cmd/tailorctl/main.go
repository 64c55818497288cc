package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mkravets/resume-tailor/internal/bootstrap"
	"github.com/mkravets/resume-tailor/internal/config"
	"github.com/mkravets/resume-tailor/internal/core/ports"
	"github.com/mkravets/resume-tailor/internal/infrastructure/extractor/jdtext"
)

func main() {
	_ = godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:           "tailorctl",
		Short:         "Operate the resume tailoring engine from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newReindexCmd(), newExtractCmd())

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "tailorctl: %v\n", err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var (
		jdFile  string
		rewrite bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one tailoring pass against a job description",
		RunE: func(cmd *cobra.Command, _ []string) error {
			jdText, err := readInput(jdFile)
			if err != nil {
				return err
			}

			app, err := bootstrap.New(cmd.Context(), config.Load(), "tailorctl")
			if err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}
			defer app.Close()

			result, err := app.TailorSvc.Tailor(cmd.Context(), ports.TailorRequest{
				JDText:         jdText,
				RewriteEnabled: rewrite,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&jdFile, "jd-file", "f", "-", "job description file, '-' reads stdin")
	cmd.Flags().BoolVar(&rewrite, "rewrite", false, "enable guarded bullet rewrites")
	return cmd
}

func newReindexCmd() *cobra.Command {
	var (
		reason string
		local  bool
	)

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the bullet index, either in-process or via the worker queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := bootstrap.New(cmd.Context(), config.Load(), "tailorctl")
			if err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}
			defer app.Close()

			if local {
				if err := app.Indexer.Reindex(cmd.Context(), reason); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "index rebuilt")
				return nil
			}

			if err := app.Queue.PublishReindexRequested(cmd.Context(), reason); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "reindex queued")
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "manual", "reason recorded with the rebuild")
	cmd.Flags().BoolVar(&local, "local", false, "rebuild in-process instead of publishing to the queue")
	return cmd
}

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract plain text from a job description file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			text, err := jdtext.NewExtractor().Extract(data, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
