package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/resume-agent/internal/backend"
)

// Filter represents a single filtering step applied to job listings.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, listings []backend.JobListing) ([]backend.JobListing, Step, error)
}

// Deps aggregates dependencies shared across all filtering steps.
type Deps struct {
	Logger *zap.Logger
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Config contains configuration settings consumed by the filters.
type Config struct {
	SkipIncomplete   bool
	SkipDuplicates   bool
	ExcludeCompanies []string
	ExcludeFile      string
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// Default returns the standard filter chain in execution order.
func Default(cfg *Config) []Filter {
	steps := []Filter{
		NewIncomplete(),
		NewDuplicates(),
		NewCompanies(),
		NewExcludeFile(),
	}

	if cfg == nil || !cfg.SkipIncomplete {
		DisableByName(steps, incompleteName, "disabled in config")
	}
	if cfg == nil || !cfg.SkipDuplicates {
		DisableByName(steps, duplicatesName, "disabled in config")
	}

	return steps
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run executes the supplied filters sequentially on a copy of result.
// The returned result keeps JobCount as sent by the backend.
func Run(ctx context.Context, cfg *Config, deps Deps, steps []Filter, result *backend.JobSearchResult) (*backend.JobSearchResult, error) {
	if result == nil {
		return nil, nil
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	filtered := *result
	listings := make([]backend.JobListing, len(result.JobListings))
	copy(listings, result.JobListings)

	for _, step := range steps {
		if !step.IsEnabled() {
			if deps.Logger != nil {
				deps.Logger.Debug("filter disabled", zap.String("name", step.Name()))
			}
			continue
		}

		next, info, err := step.Apply(ctx, deps, listings)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if deps.Logger != nil {
			deps.Logger.Info("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		listings = next
	}

	filtered.JobListings = listings
	return &filtered, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// keep returns the listings for which drop reports false, plus the dropped ones.
func keep(listings []backend.JobListing, drop func(backend.JobListing) bool) ([]backend.JobListing, []backend.JobListing) {
	kept := make([]backend.JobListing, 0, len(listings))
	var dropped []backend.JobListing
	for _, listing := range listings {
		if drop(listing) {
			dropped = append(dropped, listing)
			continue
		}
		kept = append(kept, listing)
	}
	return kept, dropped
}

func links(listings []backend.JobListing) []string {
	result := make([]string, 0, len(listings))
	for _, listing := range listings {
		result = append(result, listing.Link)
	}
	return result
}
