package config

import (
	"fmt"

	"atscore/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// Watch reads the config file again on every change and hands the result to
// onChange. Invalid reloads are logged and dropped. Watch returns an error
// when no config file exists to watch.
func Watch(logger *errors.Logger, onChange func(*Config)) error {
	v := newViper()
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("cannot watch config: %w", err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(v)
		if err == nil {
			err = cfg.Validate()
		}
		if err != nil {
			logger.LogError(err, "Ignoring invalid config reload", "file", e.Name)
			return
		}
		logger.Info("Configuration reloaded", "file", e.Name)
		onChange(cfg)
	})
	v.WatchConfig()

	logger.Info("Watching config file for changes", "file", v.ConfigFileUsed())
	return nil
}
