package cli

import (
	"errors"
	"sort"

	"github.com/spf13/cobra"

	"github.com/titlegrid-labs/titlegrid-cli/internal/core/domain"
)

var sourcesRegion string

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List registered record sources",
	Long: `Lists the sources the registry knows about: which counties are
covered, how each source is accessed and whether it needs credentials.
Edit sources.toml in the config directory to add coverage.`,
	Args: cobra.NoArgs,
	RunE: runSourcesList,
}

var sourcesStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show source coverage statistics",
	Args:  cobra.NoArgs,
	RunE:  runSourcesStats,
}

func init() {
	sourcesCmd.Flags().StringVar(&sourcesRegion, "region", "", "only list sources in this region (e.g. MD)")
	sourcesCmd.AddCommand(sourcesStatsCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func runSourcesList(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if sourceCatalog == nil {
		return errors.New("source catalog not configured")
	}

	descriptors := sourceCatalog.ListAll(sourcesRegion)
	if len(descriptors) == 0 {
		cmd.Println("No sources registered.")
		return nil
	}

	sort.Slice(descriptors, func(a, b int) bool {
		if descriptors[a].Jurisdiction.Key() != descriptors[b].Jurisdiction.Key() {
			return descriptors[a].Jurisdiction.Key() < descriptors[b].Jurisdiction.Key()
		}
		return descriptors[a].Tier < descriptors[b].Tier
	})

	cmd.Printf("%-24s %-12s %-10s %-8s %s\n", "JURISDICTION", "CONNECTOR", "TIER", "ACCESS", "AUTH")
	for _, d := range descriptors {
		auth := "-"
		if d.RequiresAuth {
			auth = "required"
		}
		cmd.Printf("%-24s %-12s %-10s %-8s %s\n",
			d.Jurisdiction, d.ConnectorType, d.Tier, d.AccessMethod, auth)
	}
	return nil
}

func runSourcesStats(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if sourceCatalog == nil {
		return errors.New("source catalog not configured")
	}

	stats := sourceCatalog.Stats()
	cmd.Printf("Sources:       %d\n", stats.Sources)
	cmd.Printf("Jurisdictions: %d\n", stats.Jurisdictions)
	cmd.Printf("Regions:       %d\n", stats.Regions)
	cmd.Printf("Require auth:  %d\n", stats.RequiringAuth)

	if len(stats.ByAccessMethod) > 0 {
		cmd.Println("By access method:")
		for _, m := range []domain.AccessMethod{domain.AccessAPI, domain.AccessScrape, domain.AccessManual, domain.AccessMock} {
			if n := stats.ByAccessMethod[m]; n > 0 {
				cmd.Printf("  %-8s %d\n", m, n)
			}
		}
	}
	return nil
}
