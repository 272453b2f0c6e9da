package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-agent/internal/input"
	"github.com/spigell/resume-agent/internal/render"
	"github.com/spigell/resume-agent/internal/resume"
	"github.com/spigell/resume-agent/internal/session"
)

const (
	PromptAnalyze             = "Analyze & Improve"
	PromptCoverLetter         = "Generate Cover Letter"
	PromptFindJobs            = "Find Jobs"
	PromptResume              = "Choose resume file"
	PromptJobDescription      = "Set job description"
	PromptSearchQuery         = "Set search query"
	PromptLocation            = "Set location"
	PromptAppendToExcludeFile = "Append shown listings to exclude file"
	PromptExit                = "Exit"
)

var errExit = errors.New("exit requested")

var operationPrompts = map[session.Operation]string{
	session.OpAnalyze:     PromptAnalyze,
	session.OpCoverLetter: PromptCoverLetter,
	session.OpFindJobs:    PromptFindJobs,
}

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Run an interactive session that keeps inputs between operations",
	Run: func(cmd *cobra.Command, _ []string) {
		interactive(cmd)
	},
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}

// menuItem is one line of the action menu.
type menuItem struct {
	action string
	op     session.Operation
	label  string
}

func interactive(cmd *cobra.Command) {
	ctx := cmd.Context()

	rt := setup()
	defer rt.close()

	if err := rt.loadInputs(); err != nil {
		rt.logger.Warn("ignoring configured inputs", zap.Error(err))
	}

	var shown render.View
	for {
		items := menu(rt)

		labels := make([]string, 0, len(items))
		for _, item := range items {
			labels = append(labels, item.label)
		}

		actionPrompt := promptui.Select{
			Label: summary(rt.session.Inputs()),
			Items: labels,
			Size:  len(labels),
		}

		idx, _, err := actionPrompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return
			}
			rt.fatal("exiting", zap.Error(err))
			return
		}

		view, err := handleItem(ctx, rt, items[idx], shown)
		if err != nil {
			if errors.Is(err, errExit) {
				return
			}
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) {
				continue
			}
			rt.logger.Error("action failed", zap.String("action", items[idx].action), zap.Error(err))
			continue
		}

		if view != nil {
			shown = *view
		}
	}
}

// menu lists the enabled operations followed by input actions. Operations
// that cannot run yet carry the reason in their label.
func menu(rt *runtime) []menuItem {
	items := make([]menuItem, 0)

	for _, op := range rt.session.Operations().List() {
		label := operationPrompts[op]
		if reason := unavailableReason(rt.session, op); reason != "" {
			label = fmt.Sprintf("%s (unavailable: %s)", label, reason)
		}
		items = append(items, menuItem{action: operationPrompts[op], op: op, label: label})
	}

	for _, action := range []string{PromptResume, PromptJobDescription, PromptSearchQuery, PromptLocation} {
		items = append(items, menuItem{action: action, label: action})
	}

	if rt.config.Jobs.ExcludeFile != "" {
		items = append(items, menuItem{action: PromptAppendToExcludeFile, label: PromptAppendToExcludeFile})
	}

	return append(items, menuItem{action: PromptExit, label: PromptExit})
}

// handleItem performs one menu action. A non-nil view is what got rendered.
func handleItem(ctx context.Context, rt *runtime, item menuItem, shown render.View) (*render.View, error) {
	if item.op != 0 {
		return submit(ctx, rt, item.op)
	}

	switch item.action {
	case PromptResume:
		return nil, chooseResume(rt)
	case PromptJobDescription:
		return nil, setJobDescription(rt)
	case PromptSearchQuery:
		value, err := ask("Search query (empty to derive from the resume)", rt.session.Inputs().SearchQuery)
		if err != nil {
			return nil, err
		}
		rt.session.SetSearchQuery(value)
		return nil, nil
	case PromptLocation:
		value, err := ask("Location (empty for remote)", rt.session.Inputs().Location)
		if err != nil {
			return nil, err
		}
		rt.session.SetLocation(value)
		return nil, nil
	case PromptAppendToExcludeFile:
		if shown.Jobs == nil || len(shown.Jobs.Listings) == 0 {
			rt.logger.Info("nothing to append", zap.String("reason", "no job listings shown"))
			return nil, nil
		}
		rememberListings(rt, shown)
		return nil, nil
	case PromptExit:
		rt.logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return nil, errExit
	default:
		return nil, fmt.Errorf("invalid action: %s", item.action)
	}
}

func submit(ctx context.Context, rt *runtime, op session.Operation) (*render.View, error) {
	if reason := unavailableReason(rt.session, op); reason != "" {
		rt.logger.Warn("operation is unavailable", zap.String("operation", op.String()), zap.String("reason", reason))
		return nil, nil
	}

	rt.logger.Info(render.LoadingText(op))

	reqCtx, stop := interruptible(ctx)
	defer stop()

	// The failure is part of the session state and gets rendered below.
	_ = rt.session.Submit(reqCtx, op)

	view, err := rt.show(ctx)
	if err != nil {
		return nil, err
	}

	return &view, nil
}

func chooseResume(rt *runtime) error {
	current := ""
	if in := rt.session.Inputs(); in.Resume != nil {
		current = in.Resume.Name
	}

	resumePrompt := promptui.Prompt{
		Label:   "Path to resume (PDF or DOCX)",
		Default: current,
		Validate: func(path string) error {
			if strings.TrimSpace(path) == "" {
				return errors.New("path is required")
			}
			_, err := resume.Load(path)
			return err
		},
	}

	path, err := resumePrompt.Run()
	if err != nil {
		return err
	}

	file, err := resume.Load(path)
	if err != nil {
		return err
	}

	rt.session.SetResume(file)
	rt.logger.Info("resume selected", zap.String("resume", file.Name), zap.Int("size", len(file.Content)))

	return nil
}

func setJobDescription(rt *runtime) error {
	value, err := ask("Job description (@path reads a file)", "")
	if err != nil {
		return err
	}

	description, err := input.Load(descriptionSource(value))
	if err != nil {
		return err
	}

	rt.session.SetJobDescription(description)
	rt.logger.Info("job description set", zap.Int("length", len([]rune(description))))

	return nil
}

// interruptible returns a context for one request that an interrupt cancels.
// It does not inherit cancellation from parent, so an interrupt that ended an
// earlier request does not fail the next one.
func interruptible(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.WithoutCancel(parent), os.Interrupt, syscall.SIGTERM)
}

// descriptionSource treats a leading @ as a file reference.
func descriptionSource(value string) input.Source {
	src := input.Source{Name: "job description"}

	value = strings.TrimSpace(value)
	if path, ok := strings.CutPrefix(value, "@"); ok {
		src.File = path
		return src
	}

	src.Value = value
	return src
}

func ask(label, current string) (string, error) {
	p := promptui.Prompt{
		Label:   label,
		Default: current,
	}

	return p.Run()
}

// unavailableReason returns why op cannot run now, or an empty string.
func unavailableReason(s *session.Session, op session.Operation) string {
	if s.Ready(op) {
		return ""
	}

	if !s.Operations().Has(op) {
		return "disabled"
	}

	if s.Busy() {
		return "busy"
	}

	in := s.Inputs()
	missing := make([]string, 0, 2)
	if in.Resume.Empty() {
		missing = append(missing, "resume")
	}
	if op != session.OpFindJobs && strings.TrimSpace(in.JobDescription) == "" {
		missing = append(missing, "job description")
	}

	return "missing " + strings.Join(missing, " and ")
}

func summary(in session.Inputs) string {
	resumeName := "not set"
	if !in.Resume.Empty() {
		resumeName = in.Resume.Name
	}

	description := "not set"
	if text := strings.TrimSpace(in.JobDescription); text != "" {
		description = fmt.Sprintf("%d chars", len([]rune(text)))
	}

	return fmt.Sprintf("resume: %s | job description: %s | location: %s", resumeName, description, in.Location)
}
