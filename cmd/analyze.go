package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/ai"
	"github.com/spigell/talent-matcher/internal/notify"
	"github.com/spigell/talent-matcher/internal/store"
	"github.com/spigell/talent-matcher/internal/talent"
)

const (
	PromptInsights            = "Show insights"
	PromptAlerts              = "Show bias alerts"
	PromptHeatmap             = "Show skills heatmap"
	PromptReportByStatus      = "Report by status"
	PromptChangeStatus        = "Change candidate status"
	PromptAppendToExcludeFile = "Append shortlisted candidates to exclude file"
	PromptPoolToFile          = "Dump pool to file"
	PromptAsk                 = "Ask the assistant"
	PromptExit                = "Exit"
	PromptBack                = "back"
)

var errExit = errors.New("exit requested")

var analyzePrompt = promptui.Select{
	Label: "Choose an action",
	Items: []string{
		PromptInsights, PromptAlerts, PromptHeatmap, PromptReportByStatus,
		PromptChangeStatus, PromptAppendToExcludeFile, PromptPoolToFile, PromptAsk, PromptExit,
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Explore a scored pool: insights, bias alerts, statuses and the assistant",
	Run: func(cmd *cobra.Command, _ []string) {
		analyze(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("pool", "p", "", "scored pool file written by the score command")
	analyzeCmd.Flags().String("requirement-id", "", "load the pool of this requirement from the database")
	analyzeCmd.Flags().StringP("exclude-file", "e", "", "file with excluded candidates")
	analyzeCmd.Flags().BoolP("print", "y", false, "print the insights and exit without the menu")
}

// session is the state of an interactive analyze run.
type session struct {
	req         *talent.Requirement
	pool        *talent.Pool
	store       *store.Store
	notifier    *notify.Notifier
	assistant   ai.Assistant
	excludeFile string
	logger      *zap.Logger
}

func analyze(cmd *cobra.Command) {
	ctx := context.Background()

	logger, config := setup(componentCLI)

	poolFile, _ := cmd.Flags().GetString("pool")
	requirementID, _ := cmd.Flags().GetString("requirement-id")

	req, pool, s, err := loadRequirementPool(ctx, config, poolFile, requirementID, logger)
	if err != nil {
		logger.Fatal("loading the pool", zap.Error(err))
	}
	if s != nil {
		defer s.Close()
	}

	if pool.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "the pool is empty"))
		return
	}

	sess := &session{
		req:       req,
		pool:      pool,
		store:     s,
		assistant: newAssistant(ctx, config.AI, logger),
		logger:    logger,
	}
	if sess.excludeFile, _ = cmd.Flags().GetString("exclude-file"); sess.excludeFile == "" {
		sess.excludeFile = config.ExcludeFile
	}

	if publisher, err := dialBroker(config, logger); err == nil {
		defer publisher.Close()
		sess.notifier = notify.NewNotifier(publisher, logger)
	} else {
		logger.Debug("status events are disabled", zap.Error(err))
	}

	if printOnly, _ := cmd.Flags().GetBool("print"); printOnly {
		if err := sess.handle(ctx, PromptInsights); err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		return
	}

	for {
		_, action, err := analyzePrompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := sess.handle(ctx, action); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func (s *session) handle(ctx context.Context, action string) error {
	switch action {
	case PromptInsights:
		return s.print("insights", insightsFor(s.pool))
	case PromptAlerts:
		insights := insightsFor(s.pool)
		return s.print("bias alerts", map[string]any{
			"pool_audit":      insights.BiasAlerts,
			"shortlist_check": insights.ShortlistAlerts,
			"diversity_score": insights.DiversityScore,
		})
	case PromptHeatmap:
		return s.print("skills heatmap", insightsFor(s.pool).Heatmap)
	case PromptReportByStatus:
		return s.print("report by status", s.pool.ReportByStatus())
	case PromptChangeStatus:
		return s.changeStatus(ctx)
	case PromptAppendToExcludeFile:
		return s.appendToExcludeFile()
	case PromptPoolToFile:
		filename, err := s.pool.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump pool to file: %w", err)
		}
		s.logger.Info("dumping pool to file", zap.String("filename", filename))
		return nil
	case PromptAsk:
		return s.ask(ctx)
	case PromptExit:
		s.logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func (s *session) print(title string, v any) error {
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	s.logger.Info(title + "\n" + string(pretty))
	return nil
}

func (s *session) changeStatus(ctx context.Context) error {
	items := make([]string, 0, s.pool.Len()+1)
	for _, item := range s.pool.Ranked().Items {
		items = append(items, fmt.Sprintf("%s %s / %.2f / %s",
			item.Candidate.ID, item.Candidate.Name, item.OverallScore(), item.Candidate.Status,
		))
	}

	candidatePrompt := promptui.Select{
		Label: "Choose a candidate and press ENTER",
		Items: append(items, PromptBack),
	}
	_, selected, err := candidatePrompt.Run()
	if err != nil {
		return err
	}
	if selected == PromptBack {
		return nil
	}

	statusPrompt := promptui.Select{
		Label: "New status",
		Items: []string{
			string(talent.StatusShortlisted), string(talent.StatusRejected),
			string(talent.StatusAccepted), string(talent.StatusPending), PromptBack,
		},
	}
	_, rawStatus, err := statusPrompt.Run()
	if err != nil {
		return err
	}
	if rawStatus == PromptBack {
		return nil
	}

	id := strings.Split(selected, " ")[0]
	for _, item := range s.pool.Items {
		if item.Candidate.ID.String() != id {
			continue
		}
		return s.setStatus(ctx, item, talent.Status(rawStatus))
	}
	return fmt.Errorf("there is no such candidate id %s", id)
}

func (s *session) setStatus(ctx context.Context, item *talent.ScoredCandidate, status talent.Status) error {
	previous := item.Candidate.Status
	if _, err := item.Candidate.Transition(status); err != nil {
		return err
	}

	if s.store != nil {
		if err := s.store.UpdateCandidateStatus(ctx, item.Candidate.ID, status); err != nil {
			return err
		}
	}

	if s.notifier != nil {
		if _, err := s.notifier.CandidateStatusChanged(ctx, item.Candidate, previous, s.req, item.Result); err != nil {
			s.logger.Warn("status event was not published", zap.Error(err))
		}
	}

	s.logger.Info("candidate status changed",
		zap.String("candidate", item.Candidate.Name),
		zap.String("previous_status", string(previous)),
		zap.String("status", string(status)),
	)
	return nil
}

func (s *session) appendToExcludeFile() error {
	excludeFile := s.excludeFile
	if excludeFile == "" {
		s.logger.Warn("exclude file is not configured", zap.String("hint", "use --exclude-file"))
		return nil
	}

	shortlisted := &talent.Pool{RequirementID: s.pool.RequirementID}
	for _, item := range s.pool.Items {
		if item.Candidate.IsShortlisted() {
			shortlisted.Items = append(shortlisted.Items, item)
		}
	}

	excluded, err := talent.GetExcludedCandidatesFromFile(excludeFile)
	if err != nil {
		return err
	}
	excluded.Append(shortlisted.ToExcluded("shortlisted"))

	if err := excluded.ToFile(excludeFile); err != nil {
		return err
	}

	s.logger.Info("appended to exclude file", zap.String("filename", excludeFile), zap.Int("count", shortlisted.Len()))
	return nil
}

func (s *session) ask(ctx context.Context) error {
	questionPrompt := promptui.Prompt{Label: "Question"}
	question, err := questionPrompt.Run()
	if err != nil {
		return err
	}

	return askAndPrint(ctx, s.assistant, question, ai.NewContext(s.req, s.pool, insightsFor(s.pool)), s.logger)
}

func askAndPrint(ctx context.Context, assistant ai.Assistant, question string, dashboard *ai.Context, logger *zap.Logger) error {
	answer, err := assistant.Ask(ctx, question, dashboard)
	if err != nil {
		logger.Warn("the assistant could not answer", zap.Error(err))
		answer = &ai.Answer{
			Text:        "I apologize, but I'm having trouble processing your request right now.",
			Suggestions: ai.Suggestions(dashboard),
		}
	}

	logger.Info(answer.Text)
	for _, rec := range answer.Recommendations {
		logger.Info("recommendation", zap.String("text", rec))
	}
	logger.Info("you may also ask", zap.Strings("suggestions", answer.Suggestions))
	return nil
}
