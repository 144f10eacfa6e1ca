package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/haulware/stopscan/internal/geocode"
	"github.com/haulware/stopscan/internal/ocr"
	"github.com/haulware/stopscan/internal/pipeline"
	"github.com/haulware/stopscan/internal/preprocess"
)

var extractCmd = &cobra.Command{
	Use:   "extract <image>",
	Short: "Extract delivery-stop locations from an image",
	Long: `Run the full extraction pipeline over one image: preprocessing, OCR,
pattern extraction and geocoding. Prints the validated candidates plus a
summary line.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("mode", "auto", "capture mode: auto, printed, handwritten")
	extractCmd.Flags().StringP("format", "f", "", "output format: text, json, yaml")
	extractCmd.Flags().String("language", "", "OCR language code (default eng)")
	extractCmd.Flags().Bool("no-geocode", false, "skip geocoding of name-only candidates")
	extractCmd.Flags().Bool("progress", false, "print progress to stderr")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := getConfig()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	modeStr, _ := cmd.Flags().GetString("mode")
	mode, err := preprocess.ParseMode(modeStr)
	if err != nil {
		return err
	}
	preOpts := cfg.PreprocessOptions()
	preOpts.Mode = mode

	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = cfg.Output.Format
	}
	language, _ := cmd.Flags().GetString("language")
	if language == "" {
		language = cfg.OCR.Language
	}
	noGeocode, _ := cmd.Flags().GetBool("no-geocode")
	showProgress, _ := cmd.Flags().GetBool("progress")

	resolver := geocode.NewResolver(
		geocode.BuildProviders(cfg.Geocoding.GoogleAPIKey),
		geocode.NewCache(cfg.Geocoding.CacheTTL),
		nil,
	)

	b := pipeline.NewBuilder().
		WithEngine(ocr.NewGosseractEngine()).
		WithResolver(resolver).
		WithPreprocessing(preOpts).
		WithLanguage(language).
		WithGeocoding(cfg.Geocoding.Enabled && !noGeocode).
		WithGeocodeOptions(geocode.Options{Region: cfg.Geocoding.Region, Limit: cfg.Geocoding.Limit}).
		WithResolveDelay(cfg.ResolveDelay())

	if showProgress {
		b = b.WithProgress(func(percent int, stage string) {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "\r%s %d%%", stage, percent)
			if percent >= 100 {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr())
			}
		})
	}

	p, err := b.Build()
	if err != nil {
		return err
	}

	result, err := p.Run(cmd.Context(), data)
	if err != nil {
		return err
	}

	rendered, err := result.Format(format)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprint(cmd.OutOrStdout(), rendered)
	return nil
}
