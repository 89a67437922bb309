package cli

import (
	"context"

	"atscore/internal/common"
	"atscore/internal/types"

	"github.com/spf13/cobra"
)

var historyConfig common.CommandConfig

var historyCmd = &cobra.Command{
	Use:   "history [history-file]",
	Short: "Show a score history written by improve --history",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveFormat(cmd, &historyConfig)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		fp := newFileProcessor(cmd)
		return common.RunCommand(cmd.Context(), getLoggerFromContext(cmd.Context()), historyConfig, "history",
			func(context.Context) ([]types.ScoreEntry, error) {
				history, err := fp.LoadHistory(args[0])
				if err != nil {
					return nil, err
				}
				return history.Entries(), nil
			})
	},
}

func init() {
	addOutputFlags(historyCmd, &historyConfig)
}
