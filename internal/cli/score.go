package cli

import (
	"context"
	"fmt"

	"atscore/internal/common"
	"atscore/internal/config"
	"atscore/internal/provider"
	"atscore/internal/types"

	"github.com/spf13/cobra"
)

var (
	scoreConfig   common.CommandConfig
	scoreJDFile   string
	scoreProvider string
)

var scoreCmd = &cobra.Command{
	Use:   "score [resume-file...]",
	Short: "Score one or more resumes",
	Long: `Score resumes on section completeness, keyword optimization, formatting,
content quality and action words. With --job the keyword rubric also measures
overlap with the job description. Several files are scored concurrently.`,
	Args: cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveFormat(cmd, &scoreConfig)
	},
	RunE: runScore,
}

func init() {
	addOutputFlags(scoreCmd, &scoreConfig)
	scoreCmd.Flags().StringVar(&scoreJDFile, "job", "", "Job description file")
	scoreCmd.Flags().StringVar(&scoreProvider, "provider", "", "Scoring provider: local, http, or gemini (overrides config)")
}

func runScore(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())
	fp := newFileProcessor(cmd)

	contents, err := fp.ValidateAndReadFiles(args...)
	if err != nil {
		return err
	}
	jd, err := fp.ReadOptional(scoreJDFile)
	if err != nil {
		return err
	}

	svc, err := newService(cmd, func(cfg *config.Config) {
		if scoreProvider != "" {
			cfg.Scoring.Provider = scoreProvider
		}
	})
	if err != nil {
		return err
	}

	logger.Info("Scoring resumes", "files", len(args), "with_jd", jd != "", "provider", svc.ProviderName())

	if len(args) == 1 {
		return common.RunCommand(cmd.Context(), logger, scoreConfig, "score",
			func(ctx context.Context) (*types.ScoreResult, error) {
				return svc.Score(ctx, types.ScoreInput{ResumeText: contents[0], JobDescription: jd})
			})
	}

	docs := make([]provider.Document, len(args))
	for i, name := range args {
		docs[i] = provider.Document{Name: name, Text: contents[i]}
	}
	err = common.RunCommand(cmd.Context(), logger, scoreConfig, "score",
		func(ctx context.Context) (*types.BatchScoreOutput, error) {
			return svc.BatchScore(ctx, docs, jd)
		})
	if err != nil {
		return fmt.Errorf("failed to score resumes: %w", err)
	}
	return nil
}
