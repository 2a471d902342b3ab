package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/upb/hybrid-summarizer/app"
	"github.com/upb/hybrid-summarizer/config"
	"github.com/upb/hybrid-summarizer/handlers"
	"github.com/upb/hybrid-summarizer/models"
	"github.com/upb/hybrid-summarizer/routes"
	"github.com/upb/hybrid-summarizer/services/summary"
	"go.uber.org/zap"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "summarizer",
		Short:         "Hybrid local/remote text summarizer",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newSummarizeCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// bootstrap loads configuration and builds the logger and dependencies
func bootstrap(ctx context.Context) (*app.Dependencies, error) {
	cfg, err := config.New(ctx)
	if err != nil {
		return nil, err
	}

	logger, err := initLogger(cfg.Observability)
	if err != nil {
		return nil, err
	}

	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return deps, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			deps, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer deps.Close(context.Background())

			return serve(ctx, deps)
		},
	}
}

// serve runs the HTTP server until ctx is cancelled, then shuts it down gracefully
func serve(ctx context.Context, deps *app.Dependencies) error {
	cfg := deps.Config.Server
	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      routes.SetupRoutes(deps),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		deps.Logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	deps.Logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func shutdownTimeout(cfg config.ServerConfig) time.Duration {
	if cfg.ShutdownTimeout > 0 {
		return cfg.ShutdownTimeout
	}
	return 10 * time.Second
}

func newSummarizeCmd() *cobra.Command {
	var (
		override string
		file     string
		userID   string
	)

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize text read from a file or stdin and print the JSON result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := models.ParseOverride(override)
			if err != nil {
				return err
			}

			text, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			deps, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer deps.Close(context.Background())

			result, err := deps.SummaryService.Summarize(cmd.Context(), summary.Input{
				Text:     text,
				Override: parsed,
				UserID:   userID,
			})

			var failure *summary.TotalFailure
			if errors.As(err, &failure) {
				_ = printJSON(cmd.OutOrStdout(), handlers.TotalFailureResponse{
					Error:   "TotalFailure",
					Details: failure.Messages(),
				})
				return failure
			}
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), handlers.NewSummarizeResponse(result))
		},
	}

	cmd.Flags().StringVar(&override, "override", "auto", "Routing override: auto, local or remote")
	cmd.Flags().StringVar(&file, "file", "", "Read text from this file instead of stdin")
	cmd.Flags().StringVar(&userID, "user", "", "Record the summary in this user's history")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), app.Version)
			return err
		},
	}
}

// readInput returns the contents of path, or all of r when path is empty
func readInput(r io.Reader, path string) (string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
