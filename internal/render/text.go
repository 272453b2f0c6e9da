package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// printer remembers the first write error so that callers check once.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// Text writes the view for a terminal.
func Text(w io.Writer, v View) error {
	p := &printer{w: w}

	switch v.Kind {
	case KindLoading:
		p.printf("%s\n", v.Loading)
	case KindError:
		p.printf("An Error Occurred: %s\n", v.Error)
	case KindAnalysis:
		writeAnalysis(p, v.Analysis)
	case KindCoverLetter:
		p.printf("Generated Cover Letter\n\n%s\n", strings.TrimSpace(v.CoverLetter))
	case KindJobs:
		writeJobs(p, v.Jobs)
	default:
		p.printf("Nothing to show yet.\n")
	}

	return p.err
}

// JSON writes the view as indented JSON.
func JSON(w io.Writer, v View) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeAnalysis(p *printer, a *AnalysisView) {
	p.printf("Analysis Report\n\n")
	p.printf("Overall Match Score: %s\n", a.ScoreLabel)
	p.printf("%s\n\n", a.Bar)
	p.printf("Matched Skills: %s\n", tags(a.Matched))
	p.printf("Missing Skills: %s\n\n", tags(a.Missing))
	p.printf("AI-Powered Suggestions:\n%s\n", strings.TrimSpace(a.Suggestions))
}

func writeJobs(p *printer, j *JobsView) {
	p.printf("Found %d jobs in %s\n", j.Count, j.Location)
	if j.Source != "" {
		p.printf("Searched by %s\n", j.Source)
	}
	if j.Hidden > 0 {
		p.printf("Showing %d of %d listings, %d hidden by filters\n", len(j.Listings), j.Count, j.Hidden)
	}
	p.printf("\n")

	if j.Empty {
		p.printf("Job Listings: %s\n", NoneFound)
	} else if p.err == nil {
		table := tablewriter.NewWriter(p.w)
		table.SetHeader([]string{"Title", "Company", "Location", "Link"})
		table.SetAutoWrapText(false)
		for _, listing := range j.Listings {
			table.Append([]string{listing.Title, listing.Company, listing.Location, listing.Link})
		}
		table.Render()
	}

	p.printf("\nSkills found in resume: %s\n", tags(j.Skills))
}

func tags(list SkillList) string {
	if list.Empty {
		return NoneFound
	}

	parts := make([]string, 0, len(list.Items))
	for _, item := range list.Items {
		parts = append(parts, "["+item+"]")
	}
	return strings.Join(parts, " ")
}
