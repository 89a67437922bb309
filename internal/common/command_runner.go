package common

import (
	"context"
	"time"

	"atscore/internal/errors"
)

// OperationFunc produces the result of a command
type OperationFunc[Output any] func(context.Context) (Output, error)

// RunCommand runs operation, logs its duration and writes the result through an OutputHandler.
func RunCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	name string,
	operation OperationFunc[Output],
) error {
	return RunCommandWithHandler(ctx, logger, NewOutputHandler(logger), cmdConfig, name, operation)
}

// RunCommandWithHandler is RunCommand with an explicit output handler
func RunCommandWithHandler[Output any](
	ctx context.Context,
	logger *errors.Logger,
	handler *OutputHandler,
	cmdConfig CommandConfig,
	name string,
	operation OperationFunc[Output],
) error {
	if logger == nil {
		logger = errors.NewNopLogger()
	}

	start := time.Now()
	result, err := operation(ctx)
	if err != nil {
		logger.LogError(err, "Command failed", "command", name)
		return err
	}
	logger.Debug("Command completed",
		"command", name,
		"duration_ms", time.Since(start).Milliseconds(),
		"format", cmdConfig.OutputFormat)

	return handler.HandleOutput(result, cmdConfig)
}
