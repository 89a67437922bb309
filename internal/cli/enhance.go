package cli

import (
	"context"

	"atscore/internal/common"
	"atscore/internal/config"
	"atscore/internal/types"

	"github.com/spf13/cobra"
)

var (
	enhanceConfig common.CommandConfig
	enhanceJDFile string
	enhanceGuard  bool
)

var enhanceCmd = &cobra.Command{
	Use:   "enhance [resume-file]",
	Short: "Rewrite weak phrasing in a resume",
	Long: `Replace weak verbs with stronger ones, flag achievements that lack a metric
and, with --job, append the job's technical terms the resume is missing.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveFormat(cmd, &enhanceConfig)
	},
	RunE: runEnhance,
}

func init() {
	addOutputFlags(enhanceCmd, &enhanceConfig)
	enhanceCmd.Flags().StringVar(&enhanceJDFile, "job", "", "Job description file")
	enhanceCmd.Flags().BoolVar(&enhanceGuard, "guard", false, "Do not suffix lines that already carry the metric prompt")
}

func runEnhance(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())
	fp := newFileProcessor(cmd)

	contents, err := fp.ValidateAndReadFiles(args[0])
	if err != nil {
		return err
	}
	jd, err := fp.ReadOptional(enhanceJDFile)
	if err != nil {
		return err
	}

	svc, err := newService(cmd, func(cfg *config.Config) {
		if enhanceGuard {
			cfg.Enhance.GuardReapplication = true
		}
	})
	if err != nil {
		return err
	}

	return common.RunCommand(cmd.Context(), logger, enhanceConfig, "enhance",
		func(ctx context.Context) (*types.EnhanceOutput, error) {
			return svc.Enhance(ctx, types.EnhanceInput{ResumeText: contents[0], JobDescription: jd})
		})
}
