package config

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the structural validity of a Config. It accumulates all
// problems rather than stopping at the first.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if cfg.LogLevel != "" && !validLogLevels[cfg.LogLevel] {
		errs = append(errs, fmt.Errorf("config: invalid log_level %q", cfg.LogLevel))
	}

	if cfg.Sandbox.Root == "" {
		errs = append(errs, errors.New("config: sandbox.root is required"))
	}
	if cfg.Sandbox.MaxReadBytes < 0 {
		errs = append(errs, errors.New("config: sandbox.max_read_bytes must not be negative"))
	}
	if cfg.Sandbox.MaxWriteBytes < 0 {
		errs = append(errs, errors.New("config: sandbox.max_write_bytes must not be negative"))
	}

	if cfg.Server.RequestTimeout < 0 {
		errs = append(errs, errors.New("config: server.request_timeout must not be negative"))
	}

	if cfg.Security.InvokesPerMin < 0 || cfg.Security.AuthPerMin < 0 {
		errs = append(errs, errors.New("config: security rate limits must not be negative"))
	}

	errs = append(errs, validateSchedules(cfg.Schedules)...)

	return errors.Join(errs...)
}

func validateSchedules(schedules []ScheduleEntry) []error {
	var errs []error
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	seen := map[string]bool{}

	for i, s := range schedules {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("config: schedules[%d]: name is required", i))
		} else if seen[s.Name] {
			errs = append(errs, fmt.Errorf("config: schedules[%d]: duplicate name %q", i, s.Name))
		} else {
			seen[s.Name] = true
		}

		if s.Task == "" {
			errs = append(errs, fmt.Errorf("config: schedules[%d]: task is required", i))
		}

		if s.Cron == "" {
			errs = append(errs, fmt.Errorf("config: schedules[%d]: cron is required", i))
		} else if _, err := parser.Parse(s.Cron); err != nil {
			errs = append(errs, fmt.Errorf("config: schedules[%d]: invalid cron %q: %w", i, s.Cron, err))
		}
	}
	return errs
}
