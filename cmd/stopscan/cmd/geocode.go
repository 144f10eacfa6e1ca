package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haulware/stopscan/internal/geocode"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode <name>...",
	Short: "Resolve place names to coordinates",
	Long: `Geocode one or more place names through the provider chain. Multiple
names resolve as a batch: fixed-size groups with an inter-group delay,
and a per-name error never aborts the rest.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGeocode,
}

func init() {
	geocodeCmd.Flags().String("region", "", "region bias (ccTLD code, e.g. \"in\")")
	geocodeCmd.Flags().Int("group-size", geocode.DefaultGroupSize, "names per batch group")
	rootCmd.AddCommand(geocodeCmd)
}

func runGeocode(cmd *cobra.Command, args []string) error {
	cfg := getConfig()

	region, _ := cmd.Flags().GetString("region")
	if region == "" {
		region = cfg.Geocoding.Region
	}
	groupSize, _ := cmd.Flags().GetInt("group-size")

	resolver := geocode.NewResolver(
		geocode.BuildProviders(cfg.Geocoding.GoogleAPIKey),
		geocode.NewCache(cfg.Geocoding.CacheTTL),
		nil,
	)

	items := resolver.ResolveBatch(cmd.Context(), args, geocode.BatchOptions{
		Query:     geocode.Options{Region: region, Limit: cfg.Geocoding.Limit},
		GroupSize: groupSize,
	})

	out := cmd.OutOrStdout()
	failed := 0
	for _, item := range items {
		if item.Err != nil {
			failed++
			_, _ = fmt.Fprintf(out, "%s\tFAILED\t%v\n", item.Name, item.Err)
			continue
		}
		best := item.Results[0]
		_, _ = fmt.Fprintf(out, "%s\t%.6f,%.6f\t%s\t%.2f\n",
			item.Name, best.Latitude, best.Longitude, best.Provider, best.Confidence)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d names failed to resolve", failed, len(items))
	}
	return nil
}
