package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/fairness"
	"github.com/spigell/talent-matcher/internal/filtering"
	"github.com/spigell/talent-matcher/internal/matching"
	"github.com/spigell/talent-matcher/internal/talent"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score candidates against a requirement, audit the pool and build a shortlist",
	Run: func(cmd *cobra.Command, _ []string) {
		score(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringP("requirement", "r", "", "requirement JSON file")
	scoreCmd.Flags().StringP("candidates", "c", "", "candidates JSON file")
	scoreCmd.Flags().StringP("exclude-file", "e", "", "file with candidates to exclude from the shortlist")
	scoreCmd.Flags().StringP("output", "o", "", "write the scored pool to this file (default is a temporary file)")
	scoreCmd.Flags().Bool("mark-shortlist", false, "set the shortlisted status on candidates that passed the shortlist")
	scoreCmd.Flags().Bool("save", false, "persist the requirement, candidates, results and fairness reports")

	viper.BindPFlag("requirement", scoreCmd.Flags().Lookup("requirement"))
	viper.BindPFlag("candidates", scoreCmd.Flags().Lookup("candidates"))
	viper.BindPFlag("exclude-file", scoreCmd.Flags().Lookup("exclude-file"))
}

func score(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := setup(componentCLI)

	logger.Info("starting the scoring", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config.Requirement == "" || config.Candidates == "" {
		logger.Fatal("both requirement and candidates files are required",
			zap.String("hint", "use --requirement and --candidates or the config keys"),
		)
	}

	req, err := talent.LoadRequirement(config.Requirement)
	if err != nil {
		logger.Fatal("loading the requirement", zap.Error(err))
	}

	candidates, err := talent.LoadCandidates(config.Candidates)
	if err != nil {
		logger.Fatal("loading candidates", zap.Error(err))
	}

	logger.Info("loaded candidates", zap.Int("count", len(candidates)), zap.String("requirement", req.Title))

	loadResumeTexts(ctx, config, candidates, logger)

	pool, err := matching.NewMatcher(logger).ScorePool(ctx, req, candidates, config.Scoring.Workers)
	if err != nil {
		logger.Fatal("scoring candidates", zap.Error(err))
	}

	reports := fairness.NewAnalyzer(logger).RunAll(pool)

	shortlist, err := buildShortlist(ctx, config, pool, logger)
	if err != nil {
		logger.Fatal("building the shortlist", zap.Error(err))
	}

	if flag, _ := cmd.Flags().GetBool("mark-shortlist"); flag {
		markShortlisted(pool, shortlist, logger)
	}

	if flag, _ := cmd.Flags().GetBool("save"); flag {
		if err := savePool(ctx, config, req, pool, reports, logger); err != nil {
			logger.Fatal("saving results", zap.Error(err))
		}
	}

	filename, err := writePool(cmd, pool.Ranked())
	if err != nil {
		logger.Fatal("writing the scored pool", zap.Error(err))
	}

	report, _ := json.MarshalIndent(shortlist.ReportByStatus(), "", "  ")
	logger.Info(string(report), zap.Int("shortlisted", shortlist.Len()))
	logger.Info("scoring finished",
		zap.String("filename", filename),
		zap.Int("scored", pool.Len()),
		zap.Float64("diversity_score", reports[0].DiversityScore),
	)
}

// loadResumeTexts fills empty raw texts from resume documents.
func loadResumeTexts(ctx context.Context, config *Config, candidates []*talent.Candidate, logger *zap.Logger) {
	pending := 0
	for _, c := range candidates {
		if c.RawText == "" && c.ResumePath != "" {
			pending++
		}
	}
	if pending == 0 {
		return
	}

	loader := newDocumentLoader(ctx, config, logger)
	for _, c := range candidates {
		if c.RawText != "" || c.ResumePath == "" {
			continue
		}
		text, err := loader.Load(ctx, c.ResumePath)
		if err != nil {
			logger.Warn("skipping resume document", zap.String("candidate", c.Name), zap.Error(err))
			continue
		}
		c.RawText = text
	}
}

func shortlistConfig(config *Config) (*filtering.Config, error) {
	statuses := make([]talent.Status, 0, len(config.Shortlist.ExcludeStatuses))
	for _, raw := range config.Shortlist.ExcludeStatuses {
		status, err := talent.ParseStatus(raw)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}

	return &filtering.Config{
		MinimumScore:    config.Shortlist.MinimumScore,
		ExcludeStatuses: statuses,
		ExcludeFile:     config.ExcludeFile,
		Top:             config.Shortlist.Top,
	}, nil
}

func buildShortlist(ctx context.Context, config *Config, pool *talent.Pool, logger *zap.Logger) (*talent.Pool, error) {
	cfg, err := shortlistConfig(config)
	if err != nil {
		return nil, err
	}

	steps := filtering.DefaultSteps()
	for _, name := range config.Shortlist.Disable {
		filtering.DisableByName(steps, name, "disabled in config")
	}

	// Steps drop items in place, so the full pool is kept intact.
	working := &talent.Pool{RequirementID: pool.RequirementID, Items: append([]*talent.ScoredCandidate(nil), pool.Items...)}
	return filtering.Run(ctx, cfg, filtering.Deps{Logger: logger}, steps, working)
}

func markShortlisted(pool, shortlist *talent.Pool, logger *zap.Logger) {
	for _, id := range shortlist.IDs() {
		item := pool.FindByID(id)
		if item == nil {
			continue
		}
		if _, err := item.Candidate.Transition(talent.StatusShortlisted); err != nil {
			logger.Warn("marking candidate", zap.String("candidate", item.Candidate.Name), zap.Error(err))
		}
	}
}

func savePool(ctx context.Context, config *Config, req *talent.Requirement, pool *talent.Pool, reports []*fairness.Report, logger *zap.Logger) error {
	s, err := openStore(ctx, config, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.SaveRequirement(ctx, req); err != nil {
		return err
	}

	results := make([]*talent.MatchResult, 0, pool.Len())
	for _, item := range pool.Items {
		if err := s.SaveCandidate(ctx, item.Candidate); err != nil {
			return err
		}
		results = append(results, item.Result)
	}

	if err := s.SaveMatchResults(ctx, results); err != nil {
		return err
	}

	for _, report := range reports {
		if err := s.ReplaceFairness(ctx, req.ID, report); err != nil {
			return err
		}
	}

	logger.Info("results saved", zap.String("requirement_id", req.ID.String()), zap.Int("results", len(results)))
	return nil
}

func writePool(cmd *cobra.Command, pool *talent.Pool) (string, error) {
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		return pool.DumpToTmpFile()
	}

	data, err := json.MarshalIndent(pool, "", "  ")
	if err != nil {
		return "", err
	}
	return output, os.WriteFile(output, data, 0o644)
}
