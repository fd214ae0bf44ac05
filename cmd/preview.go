package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"billgen/internal/logger"
	"billgen/internal/preview"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Invoice preview server",
}

var previewServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve invoice previews and downloads over HTTP",
	Long: `Run the preview server. Each client opens a session, points it at a bill and
polls until the PDF is ready; switching bills discards documents that finish
late. GET /bills/{id}/download renders a bill on demand as an attachment.

Routes:
  POST   /sessions
  GET    /sessions/{sid}
  DELETE /sessions/{sid}
  PUT    /sessions/{sid}/bill/{billID}
  POST   /sessions/{sid}/retry
  GET    /sessions/{sid}/document
  GET    /bills/{billID}/download
  GET    /healthz

Required environment variables:
  BILLGEN_API_URL - Billing backend base URL (default: http://localhost:5000/api)

Optional environment variables:
  PREVIEW_ADDR   - Listen address (default: :8090)
  ISSUER_PROFILE - YAML file with the company details printed on invoices`,
	Example: `  # Serve on the default address
  billgen preview serve

  # Serve on a different port
  billgen preview serve --addr 127.0.0.1:9000`,
	Args: cobra.NoArgs,
	RunE: runPreviewServe,
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.AddCommand(previewServeCmd)

	previewServeCmd.Flags().String("addr", "", "Listen address (default: PREVIEW_ADDR)")
}

func runPreviewServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("preview-serve")
	addr, _ := cmd.Flags().GetString("addr")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.PreviewAddr
	}
	generator, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	manager := preview.NewManager(generator, preview.NewStore())
	defer manager.CloseAll()

	server := &http.Server{
		Addr:              addr,
		Handler:           preview.NewServer(manager, newClient(cfg), generator).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Info().
		Str("addr", addr).
		Str("backend", cfg.APIURL).
		Msg("Preview server listening")
	fmt.Printf("Preview server listening on %s\n", addr)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("preview server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Preview server shutdown was not clean")
	}

	log.Info().Int("sessions", manager.Len()).Msg("Preview server stopped")
	return nil
}
