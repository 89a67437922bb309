package cli

import (
	"context"
	"fmt"
	"strconv"

	"atscore/internal/ats"
	"atscore/internal/common"
	"atscore/internal/types"

	"github.com/spf13/cobra"
)

var compareConfig common.CommandConfig

var compareCmd = &cobra.Command{
	Use:   "compare [original-score] [enhanced-score]",
	Short: "Report the change between two scores",
	Args:  cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveFormat(cmd, &compareConfig)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		original, err := parseScore(args[0])
		if err != nil {
			return err
		}
		enhanced, err := parseScore(args[1])
		if err != nil {
			return err
		}
		return common.RunCommand(cmd.Context(), getLoggerFromContext(cmd.Context()), compareConfig, "compare",
			func(context.Context) (types.ImprovementReport, error) {
				return ats.Compare(original, enhanced), nil
			})
	},
}

func init() {
	addOutputFlags(compareCmd, &compareConfig)
}

func parseScore(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid score %q: %w", s, err)
	}
	if v < 0 || v > types.MaxTotalScore {
		return 0, fmt.Errorf("score %v out of range [0, %v]", v, types.MaxTotalScore)
	}
	return v, nil
}
