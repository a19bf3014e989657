package main

import (
	"strings"
	"testing"

	"github.com/alnah/go-stpdocx/internal/config"
)

func lookupFrom(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

// ---------------------------------------------------------------------------
// TestLoadEnvSettings
// ---------------------------------------------------------------------------

func TestLoadEnvSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		vars map[string]string
		want envSettings
	}{
		{"none", nil, envSettings{}},
		{
			"all",
			map[string]string{envConfig: "thesis", envPolicy: "strict", envLogLevel: "debug", envWorkers: "3"},
			envSettings{ConfigPath: "thesis", Policy: "strict", LogLevel: "debug", Workers: 3},
		},
		{"trimmed", map[string]string{envPolicy: "  strict \n"}, envSettings{Policy: "strict"}},
		{"bad workers", map[string]string{envWorkers: "many"}, envSettings{}},
		{"zero workers", map[string]string{envWorkers: "0"}, envSettings{}},
		{"negative workers", map[string]string{envWorkers: "-2"}, envSettings{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := loadEnvSettings(lookupFrom(tt.vars)); *got != tt.want {
				t.Errorf("loadEnvSettings() = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestApplyEnvSettings - Env overrides config file values
// ---------------------------------------------------------------------------

func TestApplyEnvSettings(t *testing.T) {
	t.Parallel()

	t.Run("set values override", func(t *testing.T) {
		t.Parallel()
		cfg := config.DefaultConfig()
		cfg.Workers = 2
		applyEnvSettings(&envSettings{Policy: "strict", LogLevel: "warn", Workers: 6}, cfg)
		if cfg.Policy != "strict" || cfg.Log.Level != "warn" || cfg.Workers != 6 {
			t.Errorf("cfg = %+v", cfg)
		}
	})

	t.Run("empty values keep config", func(t *testing.T) {
		t.Parallel()
		cfg := config.DefaultConfig()
		cfg.Workers = 2
		applyEnvSettings(&envSettings{}, cfg)
		if cfg.Policy != config.DefaultConfig().Policy || cfg.Workers != 2 || cfg.Log.Level != "info" {
			t.Errorf("cfg = %+v", cfg)
		}
	})
}

// ---------------------------------------------------------------------------
// TestWarnUnknownEnvVars
// ---------------------------------------------------------------------------

func TestWarnUnknownEnvVars(t *testing.T) {
	t.Parallel()

	log := &recordLogger{}
	warnUnknownEnvVars([]string{
		"HOME=/root",
		"STPDOCX_POLICY=strict",
		"STPDOCX_POLICIY=strict",
		"STPDOCX_WORKERS=2",
		"STPDOCX_THEME=dark",
	}, log)

	msgs := log.messages()
	if len(msgs) != 2 {
		t.Fatalf("warnings = %q, want 2", msgs)
	}
	for _, m := range msgs {
		if !strings.HasPrefix(m, "WARN unknown environment variable") {
			t.Errorf("unexpected message %q", m)
		}
	}
}
