package backend

// ResumeFile is the uploaded résumé document.
type ResumeFile struct {
	Name    string
	Content []byte
}

// Empty reports whether there is nothing to upload.
func (r *ResumeFile) Empty() bool {
	return r == nil || len(r.Content) == 0
}

// AnalyzeRequest is shared by the analysis and cover letter routes.
type AnalyzeRequest struct {
	Resume         *ResumeFile
	JobDescription string
}

type JobSearchRequest struct {
	Resume      *ResumeFile
	SearchQuery string
	Location    string
}

type AnalysisResult struct {
	MatchingScorePercent   int      `json:"matching_score_percent"`
	MatchedSkills          []string `json:"matched_skills"`
	MissingSkills          []string `json:"missing_skills"`
	EnhancementSuggestions string   `json:"enhancement_suggestions"`
}

type CoverLetter struct {
	Text string `json:"cover_letter_text"`
}

type JobSearchResult struct {
	JobCount           int          `json:"job_count"`
	LocationSearched   string       `json:"location_searched"`
	SearchSource       string       `json:"search_source"`
	SearchTerms        []string     `json:"search_terms,omitempty"`
	JobListings        []JobListing `json:"job_listings"`
	AllExtractedSkills []string     `json:"all_extracted_skills"`
}

type JobListing struct {
	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location"`
	Link     string `json:"link"`
}

func (r *JobSearchResult) Len() int {
	return len(r.JobListings)
}
