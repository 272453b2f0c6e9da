package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/resume-agent/internal/backend"
)

var (
	testResume      = &backend.ResumeFile{Name: "resume.pdf", Content: []byte("%PDF")}
	testDescription = "Senior Go Engineer, 5 years distributed systems"
)

type fakeBackend struct {
	mu sync.Mutex

	analyzeCalls     []*backend.AnalyzeRequest
	coverLetterCalls []*backend.AnalyzeRequest
	findJobsCalls    []*backend.JobSearchRequest

	analysis    *backend.AnalysisResult
	coverLetter *backend.CoverLetter
	jobs        *backend.JobSearchResult
	err         error

	// block, when set, holds every call until it is closed or ctx is done.
	block   chan struct{}
	started chan struct{}
}

func (f *fakeBackend) wait(ctx context.Context) error {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block == nil {
		return nil
	}
	select {
	case <-f.block:
		return nil
	case <-ctx.Done():
		return &backend.TransportError{Err: ctx.Err()}
	}
}

func (f *fakeBackend) Analyze(ctx context.Context, req *backend.AnalyzeRequest) (*backend.AnalysisResult, error) {
	f.mu.Lock()
	f.analyzeCalls = append(f.analyzeCalls, req)
	f.mu.Unlock()

	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.analysis, nil
}

func (f *fakeBackend) GenerateCoverLetter(ctx context.Context, req *backend.AnalyzeRequest) (*backend.CoverLetter, error) {
	f.mu.Lock()
	f.coverLetterCalls = append(f.coverLetterCalls, req)
	f.mu.Unlock()

	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.coverLetter, nil
}

func (f *fakeBackend) FindJobs(ctx context.Context, req *backend.JobSearchRequest) (*backend.JobSearchResult, error) {
	f.mu.Lock()
	f.findJobsCalls = append(f.findJobsCalls, req)
	f.mu.Unlock()

	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.jobs, nil
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.analyzeCalls) + len(f.coverLetterCalls) + len(f.findJobsCalls)
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		analysis: &backend.AnalysisResult{
			MatchingScorePercent:   72,
			MatchedSkills:          []string{"Go", "Kubernetes"},
			MissingSkills:          []string{"gRPC"},
			EnhancementSuggestions: "Add gRPC experience.",
		},
		coverLetter: &backend.CoverLetter{Text: "Dear hiring manager"},
		jobs: &backend.JobSearchResult{
			JobCount:         1,
			LocationSearched: "remote",
			SearchSource:     "resume skills: go",
			JobListings:      []backend.JobListing{{Title: "Go Developer", Company: "Acme", Location: "Remote", Link: "https://jobs.example/1"}},
		},
	}
}

func TestNewSessionIsIdle(t *testing.T) {
	s := New(newFakeBackend())

	state := s.Snapshot()
	assert.Equal(t, Idle, state.Status)
	assert.Equal(t, backend.DefaultLocation, state.Inputs.Location)
	assert.Nil(t, state.Analysis)
	assert.Nil(t, state.CoverLetter)
	assert.Nil(t, state.Jobs)
	assert.Empty(t, state.Error)
}

func TestValidationNeverReachesNetwork(t *testing.T) {
	tests := []struct {
		name    string
		call    func(s *Session) error
		message string
	}{
		{
			name:    "analysis without resume",
			call:    func(s *Session) error { return s.RequestAnalysis(context.Background(), nil, testDescription) },
			message: "missing resume or job description",
		},
		{
			name: "analysis with empty resume",
			call: func(s *Session) error {
				return s.RequestAnalysis(context.Background(), &backend.ResumeFile{Name: "empty.pdf"}, testDescription)
			},
			message: "missing resume or job description",
		},
		{
			name:    "analysis without description",
			call:    func(s *Session) error { return s.RequestAnalysis(context.Background(), testResume, "  ") },
			message: "missing resume or job description",
		},
		{
			name:    "cover letter without description",
			call:    func(s *Session) error { return s.RequestCoverLetter(context.Background(), testResume, "") },
			message: "missing resume or job description",
		},
		{
			name:    "job search without resume",
			call:    func(s *Session) error { return s.RequestJobSearch(context.Background(), nil, "go", "") },
			message: "missing resume",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeBackend()
			s := New(fake)

			err := tt.call(s)

			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tt.message, validationErr.Message)
			assert.Zero(t, fake.calls())

			state := s.Snapshot()
			assert.Equal(t, Failed, state.Status)
			assert.Equal(t, tt.message, state.Error)
			assert.False(t, s.Busy())
		})
	}
}

func TestJobSearchDoesNotRequireDescription(t *testing.T) {
	fake := newFakeBackend()
	s := New(fake)

	require.NoError(t, s.RequestJobSearch(context.Background(), testResume, "", ""))

	require.Len(t, fake.findJobsCalls, 1)
	assert.Equal(t, "", fake.findJobsCalls[0].SearchQuery)
	assert.Equal(t, backend.DefaultLocation, fake.findJobsCalls[0].Location)

	state := s.Snapshot()
	assert.Equal(t, Succeeded, state.Status)
	assert.Equal(t, OpFindJobs, state.Operation)
	assert.Same(t, fake.jobs, state.Jobs)
}

func TestAnalysisScenario(t *testing.T) {
	fake := newFakeBackend()
	s := New(fake)

	require.NoError(t, s.RequestAnalysis(context.Background(), testResume, testDescription))

	require.Len(t, fake.analyzeCalls, 1)
	assert.Same(t, testResume, fake.analyzeCalls[0].Resume)
	assert.Equal(t, testDescription, fake.analyzeCalls[0].JobDescription)

	state := s.Snapshot()
	assert.Equal(t, Succeeded, state.Status)
	require.NotNil(t, state.Analysis)
	assert.Equal(t, 72, state.Analysis.MatchingScorePercent)
	assert.Nil(t, state.CoverLetter)
	assert.Nil(t, state.Jobs)
	assert.Empty(t, state.Error)
}

func TestServerErrorPopulatesOnlyFailure(t *testing.T) {
	fake := newFakeBackend()
	fake.err = &backend.ServerError{StatusCode: 500, Detail: "resume parsing failed"}
	s := New(fake)

	err := s.RequestJobSearch(context.Background(), testResume, "", "")
	require.Error(t, err)

	state := s.Snapshot()
	assert.Equal(t, Failed, state.Status)
	assert.Equal(t, "resume parsing failed", state.Error)
	assert.Nil(t, state.Jobs)
	assert.Nil(t, state.Analysis)
	assert.Nil(t, state.CoverLetter)
	assert.Equal(t, 1, fake.calls())
}

func TestStartingOperationClearsOtherSlots(t *testing.T) {
	fake := newFakeBackend()
	s := New(fake)
	ctx := context.Background()

	require.NoError(t, s.RequestAnalysis(ctx, testResume, testDescription))
	require.NotNil(t, s.Snapshot().Analysis)

	require.NoError(t, s.RequestCoverLetter(ctx, testResume, testDescription))
	state := s.Snapshot()
	assert.Nil(t, state.Analysis)
	require.NotNil(t, state.CoverLetter)
	assert.Equal(t, "Dear hiring manager", state.CoverLetter.Text)

	fake.err = errors.New("boom")
	require.Error(t, s.RequestJobSearch(ctx, testResume, "", ""))
	state = s.Snapshot()
	assert.Nil(t, state.CoverLetter)
	assert.Nil(t, state.Jobs)
	assert.Equal(t, "boom", state.Error)

	fake.err = nil
	require.NoError(t, s.RequestJobSearch(ctx, testResume, "", ""))
	state = s.Snapshot()
	assert.Empty(t, state.Error)
	assert.NotNil(t, state.Jobs)

	// A validation failure also clears the previous outcome.
	require.Error(t, s.RequestAnalysis(ctx, nil, ""))
	state = s.Snapshot()
	assert.Nil(t, state.Jobs)
	assert.Equal(t, "missing resume or job description", state.Error)
}

func TestOutcomeClearedWhileInFlight(t *testing.T) {
	fake := newFakeBackend()
	s := New(fake)
	ctx := context.Background()

	require.NoError(t, s.RequestAnalysis(ctx, testResume, testDescription))

	fake.block = make(chan struct{})
	fake.started = make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() { done <- s.RequestCoverLetter(ctx, testResume, testDescription) }()

	<-fake.started
	state := s.Snapshot()
	assert.Equal(t, InFlight, state.Status)
	assert.Equal(t, OpCoverLetter, state.Operation)
	assert.Nil(t, state.Analysis)
	assert.Empty(t, state.Error)
	assert.True(t, s.Busy())

	close(fake.block)
	require.NoError(t, <-done)
	assert.Equal(t, Succeeded, s.Snapshot().Status)
}

func TestSecondInvocationWhileInFlightIsRejected(t *testing.T) {
	fake := newFakeBackend()
	fake.block = make(chan struct{})
	fake.started = make(chan struct{}, 1)
	s := New(fake)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- s.RequestAnalysis(ctx, testResume, testDescription) }()
	<-fake.started

	err := s.RequestJobSearch(ctx, testResume, "", "")
	assert.ErrorIs(t, err, ErrBusy)
	assert.False(t, s.Ready(OpFindJobs))

	state := s.Snapshot()
	assert.Equal(t, InFlight, state.Status)
	assert.Equal(t, OpAnalyze, state.Operation)

	close(fake.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, fake.calls())
	assert.NotNil(t, s.Snapshot().Analysis)
}

func TestRequestTimeout(t *testing.T) {
	fake := newFakeBackend()
	fake.block = make(chan struct{})
	s := New(fake, WithTimeout(20*time.Millisecond))

	err := s.RequestAnalysis(context.Background(), testResume, testDescription)

	var transportErr *backend.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.True(t, transportErr.Timeout())
	assert.Equal(t, Failed, s.Snapshot().Status)
	assert.False(t, s.Busy())
}

func TestCloseCancelsInFlightRequest(t *testing.T) {
	fake := newFakeBackend()
	fake.block = make(chan struct{})
	fake.started = make(chan struct{}, 1)
	s := New(fake)
	s.SetJobDescription(testDescription)

	done := make(chan error, 1)
	go func() { done <- s.RequestCoverLetter(context.Background(), testResume, testDescription) }()
	<-fake.started

	s.Close()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, s.Inputs().JobDescription)
	assert.ErrorIs(t, s.RequestAnalysis(context.Background(), testResume, testDescription), ErrClosed)
	assert.False(t, s.Busy())
}

func TestDisabledOperation(t *testing.T) {
	fake := newFakeBackend()
	s := New(fake, WithOperations(NewOperationSet(OpFindJobs)))

	err := s.RequestAnalysis(context.Background(), testResume, testDescription)
	assert.ErrorIs(t, err, ErrOperationDisabled)
	assert.Zero(t, fake.calls())
	assert.Equal(t, Idle, s.Snapshot().Status)

	s.SetResume(testResume)
	assert.False(t, s.Ready(OpAnalyze))
	assert.True(t, s.Ready(OpFindJobs))
}

func TestSubmitUsesHeldInputs(t *testing.T) {
	fake := newFakeBackend()
	s := New(fake, WithDefaultLocation("Berlin"))

	s.SetResume(testResume)
	s.SetSearchQuery("Python Developer")
	assert.False(t, s.Ready(OpAnalyze))
	assert.True(t, s.Ready(OpFindJobs))

	require.NoError(t, s.Submit(context.Background(), OpFindJobs))
	require.Len(t, fake.findJobsCalls, 1)
	assert.Equal(t, "Python Developer", fake.findJobsCalls[0].SearchQuery)
	assert.Equal(t, "Berlin", fake.findJobsCalls[0].Location)

	s.SetLocation("New York")
	s.SetJobDescription(testDescription)
	assert.True(t, s.Ready(OpAnalyze))

	require.NoError(t, s.Submit(context.Background(), OpAnalyze))
	require.NoError(t, s.Submit(context.Background(), OpFindJobs))
	assert.Equal(t, "New York", fake.findJobsCalls[1].Location)

	s.SetLocation("")
	assert.Equal(t, "Berlin", s.Inputs().Location)
}

func TestFailureIsLogged(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	fake := newFakeBackend()
	fake.err = &backend.ServerError{StatusCode: 502}
	s := New(fake, WithLogger(zap.New(core)))

	require.Error(t, s.RequestAnalysis(context.Background(), testResume, testDescription))

	entries := observed.FilterMessage("operation failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "analyze", entries[0].ContextMap()["operation"])
	assert.Equal(t, "request failed with status 502", s.Snapshot().Error)
}

func TestParseOperationSet(t *testing.T) {
	set, err := ParseOperationSet(nil)
	require.NoError(t, err)
	assert.Equal(t, AllOperations, set)

	set, err = ParseOperationSet([]string{"analyze", " Find-Jobs "})
	require.NoError(t, err)
	assert.Equal(t, []Operation{OpAnalyze, OpFindJobs}, set.List())
	assert.False(t, set.Has(OpCoverLetter))

	_, err = ParseOperationSet([]string{"apply"})
	assert.Error(t, err)
}
