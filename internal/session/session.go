package session

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/resume-agent/internal/backend"
	"github.com/spigell/resume-agent/internal/logger"
)

const (
	DefaultTimeout = 2 * time.Minute

	maxLogLength = 80
)

// Backend is the remote service the session dispatches to.
type Backend interface {
	Analyze(ctx context.Context, req *backend.AnalyzeRequest) (*backend.AnalysisResult, error)
	GenerateCoverLetter(ctx context.Context, req *backend.AnalyzeRequest) (*backend.CoverLetter, error)
	FindJobs(ctx context.Context, req *backend.JobSearchRequest) (*backend.JobSearchResult, error)
}

// Inputs are the values collected from the user.
type Inputs struct {
	Resume         *backend.ResumeFile
	JobDescription string
	SearchQuery    string
	Location       string
}

// State is a render-ready copy of the session. Result pointers are shared
// with the session and must be treated as read-only.
type State struct {
	Status    Status
	Operation Operation
	Inputs    Inputs

	Analysis    *backend.AnalysisResult
	CoverLetter *backend.CoverLetter
	Jobs        *backend.JobSearchResult
	// Error is the user-visible failure message. It is set only when Status is Failed.
	Error string
}

// Session holds inputs and the outcome of the last operation. At most one
// outcome slot or failure message is populated at any time.
type Session struct {
	client          Backend
	logger          *zap.Logger
	ops             OperationSet
	timeout         time.Duration
	defaultLocation string

	ctx    context.Context
	cancel context.CancelFunc

	inFlight atomic.Bool

	mu          sync.RWMutex
	closed      bool
	inputs      Inputs
	status      Status
	current     Operation
	analysis    *backend.AnalysisResult
	coverLetter *backend.CoverLetter
	jobs        *backend.JobSearchResult
	err         error
}

type Option func(*Session)

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithOperations(set OperationSet) Option {
	return func(s *Session) {
		s.ops = set
	}
}

// WithTimeout bounds every request. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithDefaultLocation(location string) Option {
	return func(s *Session) {
		if location = strings.TrimSpace(location); location != "" {
			s.defaultLocation = location
		}
	}
}

func New(client Backend, opts ...Option) *Session {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		client:          client,
		logger:          zap.NewNop(),
		ops:             AllOperations,
		timeout:         DefaultTimeout,
		defaultLocation: backend.DefaultLocation,
		ctx:             ctx,
		cancel:          cancel,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.inputs.Location = s.defaultLocation

	return s
}

// Close cancels a request in flight and drops the held inputs.
func (s *Session) Close() {
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.inputs = Inputs{Location: s.defaultLocation}
}

func (s *Session) SetResume(resume *backend.ResumeFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs.Resume = resume
}

func (s *Session) SetJobDescription(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs.JobDescription = text
}

func (s *Session) SetSearchQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs.SearchQuery = query
}

// SetLocation sets the job search location. An empty value restores the default.
func (s *Session) SetLocation(location string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if location = strings.TrimSpace(location); location == "" {
		location = s.defaultLocation
	}
	s.inputs.Location = location
}

func (s *Session) Inputs() Inputs {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inputs
}

func (s *Session) Operations() OperationSet {
	return s.ops
}

// Busy reports whether a request is in flight.
func (s *Session) Busy() bool {
	return s.inFlight.Load()
}

// Ready reports whether op could be submitted right now with the held inputs.
func (s *Session) Ready(op Operation) bool {
	if !s.ops.Has(op) || s.Busy() {
		return false
	}

	in := s.Inputs()
	switch op {
	case OpAnalyze, OpCoverLetter:
		return !in.Resume.Empty() && strings.TrimSpace(in.JobDescription) != ""
	case OpFindJobs:
		return !in.Resume.Empty()
	default:
		return false
	}
}

func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := State{
		Status:      s.status,
		Operation:   s.current,
		Inputs:      s.inputs,
		Analysis:    s.analysis,
		CoverLetter: s.coverLetter,
		Jobs:        s.jobs,
	}

	if s.err != nil {
		state.Error = s.err.Error()
	}

	return state
}

// Submit runs op with the held inputs.
func (s *Session) Submit(ctx context.Context, op Operation) error {
	in := s.Inputs()

	switch op {
	case OpAnalyze:
		return s.RequestAnalysis(ctx, in.Resume, in.JobDescription)
	case OpCoverLetter:
		return s.RequestCoverLetter(ctx, in.Resume, in.JobDescription)
	case OpFindJobs:
		return s.RequestJobSearch(ctx, in.Resume, in.SearchQuery, in.Location)
	default:
		return disabledError(op)
	}
}

// RequestAnalysis scores the résumé against the job description.
func (s *Session) RequestAnalysis(ctx context.Context, resume *backend.ResumeFile, jobDescription string) error {
	if err := s.begin(OpAnalyze); err != nil {
		return err
	}
	defer s.inFlight.Store(false)

	if resume.Empty() || strings.TrimSpace(jobDescription) == "" {
		return s.fail(newValidationError(OpAnalyze, "missing resume or job description"))
	}

	log := s.dispatch(OpAnalyze, resume, jobDescription)

	ctx, cancel := s.requestContext(ctx)
	defer cancel()

	result, err := s.client.Analyze(ctx, &backend.AnalyzeRequest{
		Resume:         resume,
		JobDescription: jobDescription,
	})
	if err != nil {
		return s.fail(err)
	}

	s.mu.Lock()
	s.analysis = result
	s.status = Succeeded
	s.mu.Unlock()

	log.Info("analysis received",
		zap.Int("matching_score_percent", result.MatchingScorePercent),
		zap.Int("matched_skills", len(result.MatchedSkills)),
		zap.Int("missing_skills", len(result.MissingSkills)),
	)

	return nil
}

// RequestCoverLetter generates a cover letter for the job description.
func (s *Session) RequestCoverLetter(ctx context.Context, resume *backend.ResumeFile, jobDescription string) error {
	if err := s.begin(OpCoverLetter); err != nil {
		return err
	}
	defer s.inFlight.Store(false)

	if resume.Empty() || strings.TrimSpace(jobDescription) == "" {
		return s.fail(newValidationError(OpCoverLetter, "missing resume or job description"))
	}

	log := s.dispatch(OpCoverLetter, resume, jobDescription)

	ctx, cancel := s.requestContext(ctx)
	defer cancel()

	letter, err := s.client.GenerateCoverLetter(ctx, &backend.AnalyzeRequest{
		Resume:         resume,
		JobDescription: jobDescription,
	})
	if err != nil {
		return s.fail(err)
	}

	s.mu.Lock()
	s.coverLetter = letter
	s.status = Succeeded
	s.mu.Unlock()

	log.Info("cover letter received", zap.Int("length", len([]rune(letter.Text))))

	return nil
}

// RequestJobSearch searches job listings. The job description is not needed;
// an empty query lets the backend derive search terms from the résumé.
func (s *Session) RequestJobSearch(ctx context.Context, resume *backend.ResumeFile, searchQuery, location string) error {
	if err := s.begin(OpFindJobs); err != nil {
		return err
	}
	defer s.inFlight.Store(false)

	if resume.Empty() {
		return s.fail(newValidationError(OpFindJobs, "missing resume"))
	}

	if location = strings.TrimSpace(location); location == "" {
		location = s.defaultLocation
	}

	log := s.dispatch(OpFindJobs, resume, searchQuery).With(zap.String("location", location))

	ctx, cancel := s.requestContext(ctx)
	defer cancel()

	result, err := s.client.FindJobs(ctx, &backend.JobSearchRequest{
		Resume:      resume,
		SearchQuery: searchQuery,
		Location:    location,
	})
	if err != nil {
		return s.fail(err)
	}

	s.mu.Lock()
	s.jobs = result
	s.status = Succeeded
	s.mu.Unlock()

	log.Info("job listings received",
		zap.Int("job_count", result.JobCount),
		zap.String("search_source", result.SearchSource),
	)

	return nil
}

// begin claims the in-flight flag and clears every outcome slot and the
// previous error. A busy session is left untouched.
func (s *Session) begin(op Operation) error {
	if !s.ops.Has(op) {
		return disabledError(op)
	}

	if !s.inFlight.CompareAndSwap(false, true) {
		return ErrBusy
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.inFlight.Store(false)
		return ErrClosed
	}

	s.current = op
	s.status = Idle
	s.analysis = nil
	s.coverLetter = nil
	s.jobs = nil
	s.err = nil

	return nil
}

func (s *Session) dispatch(op Operation, resume *backend.ResumeFile, text string) *zap.Logger {
	s.mu.Lock()
	s.status = InFlight
	s.mu.Unlock()

	log := logger.WithFields(s.logger, logger.StringFields(
		logger.StringField{Key: logger.FieldOperation, Value: op.String()},
		logger.StringField{Key: "resume", Value: resume.Name},
	)...)

	log.Debug("dispatching request",
		zap.Int("resume_size", len(resume.Content)),
		zap.String("text_preview", logger.TruncateForLog(text, maxLogLength)),
		zap.Duration("timeout", s.timeout),
	)

	return log
}

func (s *Session) fail(err error) error {
	s.mu.Lock()
	s.err = err
	s.status = Failed
	op := s.current
	s.mu.Unlock()

	s.logger.Warn("operation failed", zap.String(logger.FieldOperation, op.String()), zap.Error(err))

	return err
}

// requestContext bounds ctx by the session timeout and cancels it on Close.
func (s *Session) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	stop := context.AfterFunc(s.ctx, cancel)

	return ctx, func() {
		stop()
		cancel()
	}
}
