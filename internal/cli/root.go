package cli

import (
	"context"

	"atscore/internal/common"
	"atscore/internal/config"
	"atscore/internal/errors"
	"atscore/internal/provider"

	"github.com/spf13/cobra"
)

type configKeyType struct{}
type loggerKeyType struct{}

var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = &cobra.Command{
	Use:   "atscore",
	Short: "Score resumes the way applicant tracking systems do",
	Long: `atscore rates a resume against the rubrics an applicant tracking system
applies (sections, keywords, formatting, content quality and action words),
rewrites weak phrasing, and reports how much the rewrite improved the score.`,
	SilenceUsage: true,
}

// Execute runs the root command with cfg and logger available to every subcommand
func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context")
}

func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context")
}

// addOutputFlags registers -o and --format on cmd
func addOutputFlags(cmd *cobra.Command, cc *common.CommandConfig) {
	cmd.Flags().StringVarP(&cc.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&cc.OutputFormat, "format", "", "Output format: json, text, or markdown")
	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return getConfigFromContext(cmd.Context()).App.SupportedFormats, cobra.ShellCompDirectiveNoFileComp
	})
}

// resolveFormat applies the configured default format and validates the result
func resolveFormat(cmd *cobra.Command, cc *common.CommandConfig) error {
	cfg := getConfigFromContext(cmd.Context())
	if cc.OutputFormat == "" {
		cc.OutputFormat = cfg.App.DefaultFormat
	}
	return common.ValidateOutputFormat(cc.OutputFormat, cfg.App.SupportedFormats)
}

// newService builds the scoring service from a copy of the loaded config with
// overrides applied
func newService(cmd *cobra.Command, overrides ...func(*config.Config)) (*provider.Service, error) {
	cfg := *getConfigFromContext(cmd.Context())
	for _, override := range overrides {
		override(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return provider.NewServiceFromConfig(cmd.Context(), &cfg, nil, getLoggerFromContext(cmd.Context()))
}

func newFileProcessor(cmd *cobra.Command) *common.FileProcessor {
	cfg := getConfigFromContext(cmd.Context())
	return common.NewFileProcessor(getLoggerFromContext(cmd.Context()), cfg.App.MaxFileSize)
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(enhanceCmd)
	rootCmd.AddCommand(improveCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
