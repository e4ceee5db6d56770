package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/titlegrid-labs/titlegrid-cli/internal/core/domain"
)

// credEnvPrefix marks environment variables carrying source
// credentials: TITLEGRID_CRED_<CONNECTOR>_<KEY>=value.
const credEnvPrefix = "TITLEGRID_CRED_"

var (
	searchParcel   string
	searchAddress  string
	searchOwner    string
	searchCounties []string
	searchYears    int
	searchMax      int
	searchKinds    []string
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search land records across counties",
	Long: `Searches every requested county for recorded documents matching a
parcel id, property address or owner name. Counties are queried
concurrently and results are merged, deduplicated and ordered newest
first. A county that fails or times out is reported in the session
summary without blocking the others.

Counties are given as "Subregion,Region", e.g. --county "Montgomery,MD".
Source credentials come from the environment:
TITLEGRID_CRED_<CONNECTOR>_<KEY>, e.g. TITLEGRID_CRED_MDLAND_EMAIL.`,
	Args: cobra.NoArgs,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchParcel, "parcel", "", "parcel / tax account number")
	searchCmd.Flags().StringVar(&searchAddress, "address", "", "property address")
	searchCmd.Flags().StringVar(&searchOwner, "owner", "", "owner or party name")
	searchCmd.Flags().StringArrayVarP(&searchCounties, "county", "c", nil, `county to search as "Subregion,Region" (repeatable)`)
	searchCmd.Flags().IntVar(&searchYears, "years", 0, "how many years back to search (default 60)")
	searchCmd.Flags().IntVarP(&searchMax, "max", "n", 0, "maximum merged results (default 1000)")
	searchCmd.Flags().StringArrayVar(&searchKinds, "kind", nil, "restrict to document kinds: deed,mortgage,lien,... (repeatable)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output the session as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if searchService == nil {
		return errors.New("search service not configured")
	}

	jurisdictions, err := parseCounties(searchCounties)
	if err != nil {
		return err
	}

	query := domain.Query{
		ParcelID:        searchParcel,
		PropertyAddress: searchAddress,
		OwnerName:       searchOwner,
		Jurisdictions:   jurisdictions,
		YearsBack:       searchYears,
		MaxResults:      searchMax,
		Credentials:     credentialsFromEnv(os.Environ()),
	}
	for _, label := range searchKinds {
		query.DocumentFilters = append(query.DocumentFilters, domain.ParseDocumentKind(label))
	}

	session, err := searchService.Search(context.Background(), query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSessionJSON(cmd, session)
	}
	outputSessionSummary(cmd, session)
	return nil
}

// parseCounties converts repeated --county flags into jurisdictions.
func parseCounties(values []string) ([]domain.Jurisdiction, error) {
	if len(values) == 0 {
		return nil, errors.New(`at least one --county "Subregion,Region" is required`)
	}
	jurisdictions := make([]domain.Jurisdiction, 0, len(values))
	for _, v := range values {
		parts := strings.SplitN(v, ",", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
			return nil, fmt.Errorf(`invalid county %q: expected "Subregion,Region"`, v)
		}
		jurisdictions = append(jurisdictions, domain.Jurisdiction{
			Subregion: strings.TrimSpace(parts[0]),
			Region:    strings.TrimSpace(parts[1]),
		})
	}
	return jurisdictions, nil
}

// credentialsFromEnv collects per-connector credentials from the
// environment. TITLEGRID_CRED_MDLAND_EMAIL=x becomes
// credentials["mdland"]["email"] = "x".
func credentialsFromEnv(environ []string) map[string]domain.Credentials {
	creds := make(map[string]domain.Credentials)
	for _, kv := range environ {
		if !strings.HasPrefix(kv, credEnvPrefix) {
			continue
		}
		name, value, ok := strings.Cut(strings.TrimPrefix(kv, credEnvPrefix), "=")
		if !ok {
			continue
		}
		connector, key, ok := strings.Cut(name, "_")
		if !ok || connector == "" || key == "" {
			continue
		}
		connector = strings.ToLower(connector)
		if creds[connector] == nil {
			creds[connector] = make(domain.Credentials)
		}
		creds[connector][strings.ToLower(key)] = value
	}
	if len(creds) == 0 {
		return nil
	}
	return creds
}

func outputSessionJSON(cmd *cobra.Command, session *domain.SearchSession) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSessionSummary(cmd *cobra.Command, session *domain.SearchSession) {
	cmd.Printf("Session %s: %s\n", session.ID, session.Status)
	cmd.Printf("Sources: %d/%d succeeded\n", session.Counts.SourcesSucceeded, session.Counts.SourcesAttempted)
	cmd.Println()

	for _, outcome := range session.Outcomes {
		line := fmt.Sprintf("  %-22s %-16s", outcome.Jurisdiction, outcome.Status)
		switch {
		case outcome.FromCache:
			line += "(cached)"
		case outcome.Status == domain.OutcomeSuccess:
			line += fmt.Sprintf("%d document(s) in %s", len(outcome.Documents), outcome.Elapsed.Round(time.Millisecond))
		case outcome.Error != "":
			line += outcome.Error
		}
		cmd.Println(line)
	}
	cmd.Println()

	if len(session.Documents) == 0 {
		cmd.Println("No documents found.")
		return
	}

	cmd.Printf("Documents (%d):\n", len(session.Documents))
	for i, doc := range session.Documents {
		cmd.Printf("  [%d] %s  %s  %s\n", i+1, doc.RecordedAt.Format("2006-01-02"), doc.Kind, doc.Jurisdiction)
		if len(doc.Grantors) > 0 || len(doc.Grantees) > 0 {
			cmd.Printf("      %s -> %s\n", strings.Join(doc.Grantors, "; "), strings.Join(doc.Grantees, "; "))
		}
		if !doc.Ref.IsZero() {
			cmd.Printf("      %s\n", formatRef(doc.Ref))
		}
	}

	for _, note := range session.Notes {
		cmd.Printf("\nNote: %s\n", note)
	}
}

func formatRef(ref domain.InstrumentRef) string {
	var parts []string
	if ref.Book != "" {
		parts = append(parts, "Book "+ref.Book)
	}
	if ref.Page != "" {
		parts = append(parts, "Page "+ref.Page)
	}
	if ref.InstrumentNumber != "" {
		parts = append(parts, "Instrument "+ref.InstrumentNumber)
	}
	return strings.Join(parts, ", ")
}
