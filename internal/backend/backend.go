package backend

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const (
	DefaultURL = "http://localhost:8000"
	userAgent  = "spigell/resume-agent"

	AnalyzePath     = "/analyze/"
	CoverLetterPath = "/generate-cover-letter/"
	FindJobsPath    = "/find-jobs/"

	// DefaultLocation is sent when the user leaves the job search location unset.
	DefaultLocation = "remote"
)

// Client talks to the résumé analysis backend. It performs exactly one HTTP
// request per call and never retries.
type Client struct {
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	BaseURL    string
}

func New(logger *zap.Logger, baseURL string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultURL
	}

	return &Client{
		logger:     logger,
		HTTPClient: &http.Client{},
		UserAgent:  userAgent,
		BaseURL:    baseURL,
	}
}

// Analyze scores the résumé against the job description.
func (c *Client) Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalysisResult, error) {
	fields := []formField{
		{name: fieldJobDescription, value: req.JobDescription},
	}

	var result AnalysisResult
	if err := c.postMultipart(ctx, "analyze", AnalyzePath, req.Resume, fields, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// GenerateCoverLetter asks the backend to write a cover letter for the job description.
func (c *Client) GenerateCoverLetter(ctx context.Context, req *AnalyzeRequest) (*CoverLetter, error) {
	fields := []formField{
		{name: fieldJobDescription, value: req.JobDescription},
	}

	var result CoverLetter
	if err := c.postMultipart(ctx, "cover-letter", CoverLetterPath, req.Resume, fields, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// FindJobs searches job listings. An empty search query is omitted from the
// request so that the backend falls back to skills extracted from the résumé.
func (c *Client) FindJobs(ctx context.Context, req *JobSearchRequest) (*JobSearchResult, error) {
	location := strings.TrimSpace(req.Location)
	if location == "" {
		location = DefaultLocation
	}

	fields := []formField{
		{name: fieldLocation, value: location},
	}

	if query := strings.TrimSpace(req.SearchQuery); query != "" {
		fields = append(fields, formField{name: fieldSearchQuery, value: query})
	}

	var result JobSearchResult
	if err := c.postMultipart(ctx, "find-jobs", FindJobsPath, req.Resume, fields, &result); err != nil {
		return nil, err
	}

	return &result, nil
}
