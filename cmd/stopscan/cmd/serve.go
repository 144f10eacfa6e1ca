package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/haulware/stopscan/internal/geocode"
	"github.com/haulware/stopscan/internal/ocr"
	"github.com/haulware/stopscan/internal/pipeline"
	"github.com/haulware/stopscan/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the extraction HTTP server",
	Long: `Start the HTTP server exposing the extraction pipeline: multipart
image upload on /extract, geocoding on /geocode and /reverse, Prometheus
metrics on /metrics and a WebSocket progress stream on /ws/extract.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("host", "", "listen host (overrides config)")
	serveCmd.Flags().Int("port", 0, "listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfig()

	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Server.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Server.Port = port
	}

	// One resolver for the whole process: its cache is shared across
	// requests on purpose.
	resolver := geocode.NewResolver(
		geocode.BuildProviders(cfg.Geocoding.GoogleAPIKey),
		geocode.NewCache(cfg.Geocoding.CacheTTL),
		slog.Default(),
	)

	newRun := server.PipelineFactory(func(progress pipeline.ProgressFunc) (*pipeline.Pipeline, error) {
		return pipeline.NewBuilder().
			WithEngine(ocr.NewGosseractEngine()).
			WithResolver(resolver).
			WithPreprocessing(cfg.PreprocessOptions()).
			WithLanguage(cfg.OCR.Language).
			WithGeocoding(cfg.Geocoding.Enabled).
			WithGeocodeOptions(geocode.Options{Region: cfg.Geocoding.Region, Limit: cfg.Geocoding.Limit}).
			WithResolveDelay(cfg.ResolveDelay()).
			WithProgress(progress).
			Build()
	})

	srv := server.New(server.Config{
		Host:              cfg.Server.Host,
		Port:              cfg.Server.Port,
		MaxUploadMB:       int64(cfg.Server.MaxUploadMB),
		RequestsPerMinute: cfg.Server.RequestsPerMinute,
		TimeoutSec:        cfg.Server.TimeoutSeconds,
	}, newRun, resolver, slog.Default())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx)
}
