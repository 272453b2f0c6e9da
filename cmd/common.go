package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-agent/internal/backend"
	"github.com/spigell/resume-agent/internal/filtering"
	"github.com/spigell/resume-agent/internal/input"
	"github.com/spigell/resume-agent/internal/logger"
	"github.com/spigell/resume-agent/internal/render"
	"github.com/spigell/resume-agent/internal/resume"
	"github.com/spigell/resume-agent/internal/session"
)

const (
	outputText = "text"
	outputJSON = "json"
)

// Replaced in tests.
var exit = os.Exit

// runtime bundles what every command needs for one session.
type runtime struct {
	config  *Config
	logger  *zap.Logger
	session *session.Session
	filters []filtering.Filter
	filter  *filtering.Config
	out     io.Writer
}

func setup() *runtime {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Debug("starting the resume-agent", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	rt, err := newRuntime(config, logger)
	if err != nil {
		logger.Fatal("preparing the session", zap.Error(err))
	}

	return rt
}

func newRuntime(config *Config, logger *zap.Logger) (*runtime, error) {
	output := strings.ToLower(strings.TrimSpace(config.Output))
	if output == "" {
		output = outputText
	}
	if output != outputText && output != outputJSON {
		return nil, fmt.Errorf("invalid output format %q, use %s or %s", config.Output, outputText, outputJSON)
	}
	config.Output = output

	ops, err := session.ParseOperationSet(config.Operations)
	if err != nil {
		return nil, fmt.Errorf("parsing operations: %w", err)
	}

	client := backend.New(logger, config.Backend.URL)
	if ua := strings.TrimSpace(config.Backend.UserAgent); ua != "" {
		client.UserAgent = ua
	}

	s := session.New(client,
		session.WithLogger(logger),
		session.WithOperations(ops),
		session.WithTimeout(config.Backend.Timeout),
		session.WithDefaultLocation(config.Search.Location),
	)

	filterConfig := &filtering.Config{
		SkipIncomplete:   config.Jobs.SkipIncomplete,
		SkipDuplicates:   config.Jobs.SkipDuplicates,
		ExcludeCompanies: config.Jobs.ExcludeCompanies,
		ExcludeFile:      config.Jobs.ExcludeFile,
	}

	return &runtime{
		config:  config,
		logger:  logger,
		session: s,
		filters: filtering.Default(filterConfig),
		filter:  filterConfig,
		out:     os.Stdout,
	}, nil
}

// loadInputs moves the configured inputs into the session. Missing inputs are
// left for the session to report.
func (r *runtime) loadInputs() error {
	file, err := resume.Load(r.config.Resume)
	if err != nil {
		return err
	}
	r.session.SetResume(file)

	description, err := input.Load(input.Source{
		Name:  "job description",
		Value: r.config.JobDescription,
		File:  r.config.JobDescriptionFile,
	})
	if err != nil {
		return err
	}
	r.session.SetJobDescription(description)

	r.session.SetSearchQuery(r.config.Search.Query)
	r.session.SetLocation(r.config.Search.Location)

	return nil
}

// show renders the current session state. Job listings pass through the
// filters first; the returned view holds what was actually shown.
func (r *runtime) show(ctx context.Context) (render.View, error) {
	state := r.session.Snapshot()

	if state.Jobs != nil {
		filtered, err := filtering.Run(ctx, r.filter, filtering.Deps{Logger: r.logger}, r.filters, state.Jobs)
		if err != nil {
			return render.View{}, fmt.Errorf("filtering job listings: %w", err)
		}
		state.Jobs = filtered
	}

	view := render.Build(state)

	if r.config.Output == outputJSON {
		return view, render.JSON(r.out, view)
	}
	return view, render.Text(r.out, view)
}

func (r *runtime) close() {
	r.session.Close()
	_ = r.logger.Sync()
}

// fatal logs msg, tears the session down and exits non-zero.
func (r *runtime) fatal(msg string, fields ...zap.Field) {
	r.logger.Error(msg, fields...)
	r.close()
	exit(1)
}

// runOperation is shared by the single-shot commands. It exits non-zero when
// the operation failed, after the failure has been rendered.
func runOperation(cmd *cobra.Command, op session.Operation) render.View {
	ctx := cmd.Context()

	rt := setup()
	defer rt.close()

	if !rt.session.Operations().Has(op) {
		rt.fatal("operation is disabled in the config",
			zap.String("operation", op.String()),
			zap.Strings("enabled", rt.config.Operations),
		)
		return render.View{}
	}

	if err := rt.loadInputs(); err != nil {
		rt.fatal("loading inputs", zap.Error(err))
		return render.View{}
	}

	rt.logger.Info(render.LoadingText(op), zap.String("backend", rt.config.Backend.URL))

	opErr := rt.session.Submit(ctx, op)

	view, err := rt.show(ctx)
	if err != nil {
		rt.fatal("rendering result", zap.Error(err))
		return render.View{}
	}

	if opErr != nil {
		rt.close()
		exit(1)
		return view
	}

	if op == session.OpFindJobs && viper.GetBool("remember") {
		rememberListings(rt, view)
	}

	return view
}

func rememberListings(rt *runtime, view render.View) {
	path := strings.TrimSpace(rt.config.Jobs.ExcludeFile)
	if path == "" {
		rt.logger.Warn("skipping remember", zap.String("reason", "jobs.exclude-file is not set"))
		return
	}

	if view.Jobs == nil || len(view.Jobs.Listings) == 0 {
		return
	}

	added, err := filtering.Remember(path, view.Jobs.Listings)
	if err != nil {
		rt.logger.Error("appending listings to exclude file", zap.String("filename", path), zap.Error(err))
		return
	}

	rt.logger.Info("appended to exclude file", zap.String("filename", path), zap.Int("count", added))
}
