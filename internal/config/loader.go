package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// envPattern matches ${VAR} and ${VAR:-default} expressions.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// Load reads a YAML configuration file, expands environment variables,
// parses it, applies environment overrides, and fills defaults. The result
// is not yet validated; call Validate separately.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	expanded, err := expandEnv(raw)
	if err != nil {
		return nil, fmt.Errorf("config: expanding variables in %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// expandEnv replaces ${VAR} and ${VAR:-default} patterns in raw YAML bytes.
// Returns an error listing all unresolved variables (no default, no env
// value).
func expandEnv(raw []byte) ([]byte, error) {
	var errs []error

	result := envPattern.ReplaceAllFunc(raw, func(match []byte) []byte {
		subs := envPattern.FindSubmatch(match)
		name := string(subs[1])

		if value, ok := os.LookupEnv(name); ok {
			return []byte(value)
		}
		if subs[2] != nil {
			return subs[2]
		}

		errs = append(errs, fmt.Errorf("unresolved variable: %s", name))
		return match
	})

	return result, errors.Join(errs...)
}

// Environment overrides beat file values. They exist so deployments can
// relocate the sandbox or adjust timeouts without editing the file.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("GATEHOUSE_SANDBOX_ROOT"); v != "" {
		cfg.Sandbox.Root = v
	}
	if v := os.Getenv("GATEHOUSE_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("GATEHOUSE_BEARER_TOKEN"); v != "" {
		cfg.Server.BearerToken = v
	}
	if v := os.Getenv("GATEHOUSE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GATEHOUSE_TIMEOUT: %w", err)
		}
		cfg.Server.RequestTimeout = d
	}
	return nil
}
