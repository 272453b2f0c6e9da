package filtering

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/resume-agent/internal/backend"
)

type ExcludedListings struct {
	Items []*ExcludedListing
}

type ExcludedListing struct {
	Link       string
	Title      string
	Company    string
	ExcludedAt time.Time
}

// ToExcluded converts listings into exclude file entries. Listings without a
// link are skipped since they cannot be matched later.
func ToExcluded(listings []backend.JobListing) *ExcludedListings {
	excluded := &ExcludedListings{}
	now := time.Now().UTC()
	for _, listing := range listings {
		if isMissing(listing.Link) {
			continue
		}
		excluded.Items = append(excluded.Items, &ExcludedListing{
			Link:       strings.TrimSpace(listing.Link),
			Title:      listing.Title,
			Company:    listing.Company,
			ExcludedAt: now,
		})
	}
	return excluded
}

// LoadExcluded reads an exclude file. A missing or empty file yields an empty list.
func LoadExcluded(path string) (*ExcludedListings, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return &ExcludedListings{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedListings{}, nil
	}

	var excluded ExcludedListings
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, fmt.Errorf("decode exclude file %q: %w", path, err)
	}
	return &excluded, nil
}

// Append adds the entries whose link is not recorded yet and returns how many were added.
func (e *ExcludedListings) Append(other *ExcludedListings) int {
	known := make(map[string]struct{}, len(e.Items))
	for _, item := range e.Items {
		known[item.Link] = struct{}{}
	}

	added := 0
	for _, item := range other.Items {
		if _, ok := known[item.Link]; ok {
			continue
		}
		known[item.Link] = struct{}{}
		e.Items = append(e.Items, item)
		added++
	}
	return added
}

func (e *ExcludedListings) Links() []string {
	result := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		result = append(result, item.Link)
	}
	return result
}

func (e *ExcludedListings) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

// Remember appends listings to the exclude file at path.
func Remember(path string, listings []backend.JobListing) (int, error) {
	excluded, err := LoadExcluded(path)
	if err != nil {
		return 0, err
	}

	added := excluded.Append(ToExcluded(listings))
	if added == 0 {
		return 0, nil
	}

	if err := excluded.ToFile(path); err != nil {
		return 0, err
	}
	return added, nil
}

type excludeFileFilter struct {
	path string
}

// NewExcludeFile creates a filter that removes listings recorded in the exclude file.
func NewExcludeFile() Filter {
	return &excludeFileFilter{}
}

func (f *excludeFileFilter) Name() string { return excludeFileName }

func (f *excludeFileFilter) Disable(string) {}

func (f *excludeFileFilter) IsEnabled() bool { return true }

func (f *excludeFileFilter) Validate(cfg *Config) error {
	f.path = ""
	if cfg != nil {
		f.path = strings.TrimSpace(cfg.ExcludeFile)
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, listings []backend.JobListing) ([]backend.JobListing, Step, error) {
	initial := len(listings)
	if f.path == "" {
		return listings, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	excluded, err := LoadExcluded(f.path)
	if err != nil {
		return listings, Step{}, fmt.Errorf("getting excluded listings from file: %w", err)
	}

	known := make(map[string]struct{}, len(excluded.Items))
	for _, link := range excluded.Links() {
		known[link] = struct{}{}
	}

	kept, dropped := keep(listings, func(l backend.JobListing) bool {
		_, ok := known[strings.TrimSpace(l.Link)]
		return ok
	})

	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Info("excluding listings based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_links", links(dropped)),
			zap.Int("listings_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(dropped), Left: len(kept)}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}
