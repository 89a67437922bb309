package cli

import (
	"context"
	"fmt"

	"atscore/internal/common"
	"atscore/internal/types"

	"github.com/spf13/cobra"
)

var (
	improveConfig      common.CommandConfig
	improveJDFile      string
	improveHistoryFile string
)

var improveCmd = &cobra.Command{
	Use:   "improve [resume-file]",
	Short: "Score, enhance and rescore a resume",
	Long: `Run the full pipeline: score the resume, enhance it, score the enhanced
text and report the change. With --history both scores are appended to a
JSON-lines history file.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveFormat(cmd, &improveConfig)
	},
	RunE: runImprove,
}

func init() {
	addOutputFlags(improveCmd, &improveConfig)
	improveCmd.Flags().StringVar(&improveJDFile, "job", "", "Job description file")
	improveCmd.Flags().StringVar(&improveHistoryFile, "history", "", "Append both scores to this JSON-lines file")
}

func runImprove(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())
	fp := newFileProcessor(cmd)

	contents, err := fp.ValidateAndReadFiles(args[0])
	if err != nil {
		return err
	}
	jd, err := fp.ReadOptional(improveJDFile)
	if err != nil {
		return err
	}

	svc, err := newService(cmd)
	if err != nil {
		return err
	}

	return common.RunCommand(cmd.Context(), logger, improveConfig, "improve",
		func(ctx context.Context) (*types.ImproveOutput, error) {
			out, err := svc.Improve(ctx, types.ImproveInput{ResumeText: contents[0], JobDescription: jd})
			if err != nil {
				return nil, err
			}
			if improveHistoryFile != "" {
				if err := recordImprovement(fp, improveHistoryFile, out); err != nil {
					return nil, fmt.Errorf("failed to update history: %w", err)
				}
			}
			logger.Info("Resume improved",
				"original", out.Report.OriginalScore,
				"enhanced", out.Report.EnhancedScore,
				"status", out.Report.Status)
			return out, nil
		})
}

func recordImprovement(fp *common.FileProcessor, path string, out *types.ImproveOutput) error {
	history, err := fp.LoadHistory(path)
	if err != nil {
		return err
	}
	entries := []types.ScoreEntry{
		history.Record("original", out.Original),
		history.Record("enhanced", out.Enhanced),
	}
	return fp.AppendHistory(path, entries)
}
