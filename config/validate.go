package config

import "github.com/dennwc/webidl2js/errors"

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	if len(c.Input) == 0 {
		return errors.WithHint(errors.New("input cannot be empty"),
			"pass IDL files or directories as arguments or set input in the config file")
	}
	for i, in := range c.Input {
		if in == "" {
			return errors.Newf("input[%d] cannot be empty", i)
		}
	}
	if c.ImplSuffix == "" {
		return errors.New("impl_suffix cannot be empty")
	}
	if c.OutputDir == "" {
		return errors.New("output_dir cannot be empty")
	}
	// Workers: 0 = GOMAXPROCS, negative = invalid
	if c.Workers < 0 {
		return errors.Newf("workers must be >= 0, got %d", c.Workers)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return errors.Newf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	return nil
}
