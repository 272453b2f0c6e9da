package render

import (
	"fmt"
	"strings"

	"github.com/spigell/resume-agent/internal/backend"
	"github.com/spigell/resume-agent/internal/session"
)

const (
	// BarWidth is the number of cells in the score bar.
	BarWidth = 40

	NoneFound = "none found"

	barFilled = "█"
	barEmpty  = "░"
)

type Kind string

const (
	KindEmpty       Kind = "empty"
	KindLoading     Kind = "loading"
	KindError       Kind = "error"
	KindAnalysis    Kind = "analysis"
	KindCoverLetter Kind = "cover_letter"
	KindJobs        Kind = "jobs"
)

// View is everything a front end needs to display the session state.
type View struct {
	Kind    Kind   `json:"kind"`
	Loading string `json:"loading,omitempty"`
	Error   string `json:"error,omitempty"`

	Analysis    *AnalysisView `json:"analysis,omitempty"`
	CoverLetter string        `json:"cover_letter,omitempty"`
	Jobs        *JobsView     `json:"jobs,omitempty"`
}

type AnalysisView struct {
	// Score is the value sent by the backend; BarPercent is clamped to 0..100.
	Score       int       `json:"score"`
	ScoreLabel  string    `json:"score_label"`
	BarPercent  int       `json:"bar_percent"`
	Bar         string    `json:"bar"`
	Matched     SkillList `json:"matched_skills"`
	Missing     SkillList `json:"missing_skills"`
	Suggestions string    `json:"suggestions"`
}

// SkillList keeps the backend order. Empty lists are flagged so that the
// front end prints NoneFound instead of an empty region.
type SkillList struct {
	Items []string `json:"items"`
	Empty bool     `json:"empty"`
}

type JobsView struct {
	Count    int                  `json:"job_count"`
	Location string               `json:"location_searched"`
	Source   string               `json:"search_source"`
	Terms    []string             `json:"search_terms,omitempty"`
	Listings []backend.JobListing `json:"job_listings"`
	Empty    bool                 `json:"empty"`
	// Hidden counts listings dropped by client-side filters.
	Hidden int       `json:"hidden"`
	Skills SkillList `json:"all_extracted_skills"`
}

// Build maps a session snapshot onto a View. It does not modify state.
func Build(state session.State) View {
	switch {
	case state.Status == session.InFlight:
		return View{Kind: KindLoading, Loading: LoadingText(state.Operation)}
	case state.Status == session.Failed:
		return View{Kind: KindError, Error: state.Error}
	case state.Analysis != nil:
		return View{Kind: KindAnalysis, Analysis: buildAnalysis(state.Analysis)}
	case state.CoverLetter != nil:
		return View{Kind: KindCoverLetter, CoverLetter: state.CoverLetter.Text}
	case state.Jobs != nil:
		return View{Kind: KindJobs, Jobs: buildJobs(state.Jobs)}
	default:
		return View{Kind: KindEmpty}
	}
}

func LoadingText(op session.Operation) string {
	switch op {
	case session.OpAnalyze:
		return "Analyzing..."
	case session.OpCoverLetter:
		return "Generating..."
	case session.OpFindJobs:
		return "Searching..."
	default:
		return "Loading..."
	}
}

func buildAnalysis(result *backend.AnalysisResult) *AnalysisView {
	percent := ClampPercent(result.MatchingScorePercent)

	return &AnalysisView{
		Score:       result.MatchingScorePercent,
		ScoreLabel:  fmt.Sprintf("%d%%", result.MatchingScorePercent),
		BarPercent:  percent,
		Bar:         Bar(percent, BarWidth),
		Matched:     skillList(result.MatchedSkills),
		Missing:     skillList(result.MissingSkills),
		Suggestions: result.EnhancementSuggestions,
	}
}

func buildJobs(result *backend.JobSearchResult) *JobsView {
	listings := make([]backend.JobListing, len(result.JobListings))
	copy(listings, result.JobListings)

	hidden := result.JobCount - len(listings)
	if hidden < 0 {
		hidden = 0
	}

	return &JobsView{
		Count:    result.JobCount,
		Location: result.LocationSearched,
		Source:   result.SearchSource,
		Terms:    append([]string(nil), result.SearchTerms...),
		Listings: listings,
		Empty:    len(listings) == 0,
		Hidden:   hidden,
		Skills:   skillList(result.AllExtractedSkills),
	}
}

func skillList(skills []string) SkillList {
	items := make([]string, len(skills))
	copy(items, skills)

	return SkillList{Items: items, Empty: len(items) == 0}
}

// ClampPercent limits p to 0..100.
func ClampPercent(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// Bar draws a proportional bar of width cells, rounding to the nearest cell.
func Bar(percent, width int) string {
	if width <= 0 {
		return ""
	}

	filled := (ClampPercent(percent)*width + 50) / 100

	return strings.Repeat(barFilled, filled) + strings.Repeat(barEmpty, width-filled)
}
