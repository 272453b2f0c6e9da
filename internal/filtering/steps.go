package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-agent/internal/backend"
)

const (
	incompleteName  = "incomplete"
	duplicatesName  = "duplicates"
	companiesName   = "companies"
	excludeFileName = "exclude_file"
)

// Placeholders the backend emits for columns its scraper could not fill.
var missingValues = map[string]struct{}{
	"":    {},
	"n/a": {},
	"nan": {},
}

type incompleteFilter struct {
	enabled bool
	reason  string
}

// NewIncomplete creates a filter that removes listings without a usable link.
func NewIncomplete() Filter {
	return &incompleteFilter{enabled: true}
}

func (f *incompleteFilter) Name() string { return incompleteName }

func (f *incompleteFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *incompleteFilter) IsEnabled() bool { return f.enabled }

func (f *incompleteFilter) Validate(*Config) error { return nil }

func (f *incompleteFilter) Apply(_ context.Context, deps Deps, listings []backend.JobListing) ([]backend.JobListing, Step, error) {
	initial := len(listings)
	kept, dropped := keep(listings, func(l backend.JobListing) bool {
		return isMissing(l.Link)
	})

	if deps.Logger != nil && len(dropped) > 0 {
		titles := make([]string, 0, len(dropped))
		for _, l := range dropped {
			titles = append(titles, l.Title)
		}
		deps.Logger.Info("excluding listings without a link",
			zap.Strings("excluded_listings", titles),
			zap.Int("listings_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(dropped), Left: len(kept)}, nil
}

func (f *incompleteFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.enabled, Reason: f.reason}
}

type duplicatesFilter struct {
	enabled bool
	reason  string
}

// NewDuplicates creates a filter that keeps only the first listing for each link.
func NewDuplicates() Filter {
	return &duplicatesFilter{enabled: true}
}

func (f *duplicatesFilter) Name() string { return duplicatesName }

func (f *duplicatesFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *duplicatesFilter) IsEnabled() bool { return f.enabled }

func (f *duplicatesFilter) Validate(*Config) error { return nil }

func (f *duplicatesFilter) Apply(_ context.Context, deps Deps, listings []backend.JobListing) ([]backend.JobListing, Step, error) {
	initial := len(listings)
	seen := make(map[string]struct{}, len(listings))

	kept, dropped := keep(listings, func(l backend.JobListing) bool {
		key := listingKey(l)
		if _, ok := seen[key]; ok {
			return true
		}
		seen[key] = struct{}{}
		return false
	})

	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Info("excluding duplicated listings",
			zap.Strings("excluded_links", links(dropped)),
			zap.Int("listings_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(dropped), Left: len(kept)}, nil
}

func (f *duplicatesFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.enabled, Reason: f.reason}
}

type companiesFilter struct {
	companies []string
}

// NewCompanies creates a filter that removes listings by companies configured in the config.
func NewCompanies() Filter {
	return &companiesFilter{}
}

func (f *companiesFilter) Name() string { return companiesName }

func (f *companiesFilter) Disable(string) {}

func (f *companiesFilter) IsEnabled() bool { return true }

func (f *companiesFilter) Validate(cfg *Config) error {
	f.companies = nil
	if cfg == nil {
		return nil
	}

	for _, company := range cfg.ExcludeCompanies {
		if normalized := Normalize(company); normalized != "" {
			f.companies = append(f.companies, normalized)
		}
	}
	return nil
}

func (f *companiesFilter) Apply(_ context.Context, deps Deps, listings []backend.JobListing) ([]backend.JobListing, Step, error) {
	initial := len(listings)
	if len(f.companies) == 0 {
		return listings, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	excluded := make(map[string]struct{}, len(f.companies))
	for _, company := range f.companies {
		excluded[company] = struct{}{}
	}

	kept, dropped := keep(listings, func(l backend.JobListing) bool {
		_, ok := excluded[Normalize(l.Company)]
		return ok
	})

	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Info("excluding listings by companies",
			zap.Strings("excluded_companies", f.companies),
			zap.Strings("excluded_links", links(dropped)),
			zap.Int("listings_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(dropped), Left: len(kept)}, nil
}

func (f *companiesFilter) Status() Status {
	details := map[string]string{}
	if len(f.companies) > 0 {
		details["companies"] = strings.Join(f.companies, ",")
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}

func isMissing(value string) bool {
	_, ok := missingValues[strings.ToLower(strings.TrimSpace(value))]
	return ok
}

// listingKey identifies a listing by its link, falling back to title and
// company when the link is missing.
func listingKey(l backend.JobListing) string {
	if !isMissing(l.Link) {
		return strings.TrimSpace(l.Link)
	}
	return Normalize(l.Title) + "|" + Normalize(l.Company)
}
