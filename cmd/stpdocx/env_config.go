package main

import (
	"strconv"
	"strings"

	"github.com/alnah/go-stpdocx/internal/config"
	"github.com/alnah/go-stpdocx/internal/logging"
)

// Environment variable names.
const (
	envPrefix   = "STPDOCX_"
	envConfig   = "STPDOCX_CONFIG"
	envPolicy   = "STPDOCX_POLICY"
	envLogLevel = "STPDOCX_LOG_LEVEL"
	envWorkers  = "STPDOCX_WORKERS"
)

var knownEnvVars = map[string]bool{
	envConfig:   true,
	envPolicy:   true,
	envLogLevel: true,
	envWorkers:  true,
}

// envSettings holds configuration read from STPDOCX_* variables.
type envSettings struct {
	ConfigPath string
	Policy     string
	LogLevel   string
	Workers    int
}

// loadEnvSettings reads the recognized variables. A malformed or
// non-positive STPDOCX_WORKERS is ignored.
func loadEnvSettings(lookup func(string) (string, bool)) *envSettings {
	get := func(name string) string {
		v, _ := lookup(name)
		return strings.TrimSpace(v)
	}

	s := &envSettings{
		ConfigPath: get(envConfig),
		Policy:     get(envPolicy),
		LogLevel:   get(envLogLevel),
	}
	if w, err := strconv.Atoi(get(envWorkers)); err == nil && w > 0 {
		s.Workers = w
	}
	return s
}

// warnUnknownEnvVars logs a warning for each STPDOCX_* variable that is not
// recognized, to surface typos such as STPDOCX_POLICIY.
func warnUnknownEnvVars(environ []string, log logging.Logger) {
	for _, kv := range environ {
		if !strings.HasPrefix(kv, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(kv, "=")
		if !knownEnvVars[name] {
			log.Warn("unknown environment variable (typo?)", "name", name)
		}
	}
}

// applyEnvSettings overlays environment values on cfg. Flags are merged
// afterwards, giving flags > env > config file > defaults.
func applyEnvSettings(s *envSettings, cfg *config.Config) {
	if s.Policy != "" {
		cfg.Policy = s.Policy
	}
	if s.LogLevel != "" {
		cfg.Log.Level = s.LogLevel
	}
	if s.Workers > 0 {
		cfg.Workers = s.Workers
	}
}
