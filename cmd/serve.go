package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/xburncrust/xburncrust/internal/assets"
	"github.com/xburncrust/xburncrust/internal/catalog"
	"github.com/xburncrust/xburncrust/internal/generation"
	"github.com/xburncrust/xburncrust/internal/handlers"
)

func newServeCmd() *cobra.Command {
	var port string
	var dbPath string
	var registryPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the media catalog API server",
		Long: `Starts the xburncrust API on the specified port.

The server exposes the public catalog endpoints and the admin back-office
for uploading and AI-generating media assets.`,
		Example: `  # Start server on default port 8888
  xburncrust serve

  # Start server on custom port with a custom model registry
  xburncrust serve --port 3000 --registry models.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := catalog.NewStore(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			registry := generation.DefaultRegistry()
			if registryPath != "" {
				registry, err = generation.LoadRegistry(registryPath)
				if err != nil {
					return err
				}
			}

			backends := map[string]generation.Backend{
				generation.BackendPollinations: generation.NewPollinationsBackend(),
				generation.BackendHuggingFace:  generation.NewHuggingFaceBackend(os.Getenv("HF_API_TOKEN")),
			}
			orchestrator := generation.NewOrchestrator(registry, backends)

			uploader, err := assets.NewUploaderFromEnv()
			if err != nil {
				if !errors.Is(err, assets.ErrNotConfigured) {
					return err
				}
				slog.Warn("Cloudinary credentials not set, save-generated is disabled")
				uploader = nil
			}

			handler := handlers.New(store, orchestrator, uploader, os.Getenv("ADMIN_TOKEN"))

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: handler.Routes(),
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("xburncrust API available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().StringVar(&dbPath, "db", "xburncrust.db", "Path to the catalog database")
	cmd.Flags().StringVar(&registryPath, "registry", "", "Optional YAML file overriding the model registry")

	return cmd
}
