package cli

import (
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/variational-research/variational-go/internal/config"
)

// SetupLogging applies the configured logx settings. An empty config keeps
// logx's console defaults.
func SetupLogging(cfg *config.Config) error {
	if cfg == nil || cfg.Log.Mode == "" {
		return nil
	}
	if err := logx.SetUp(cfg.Log); err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	return nil
}

// ConfigSummaryLines returns human readable lines describing the loaded app config.
func ConfigSummaryLines(cfg *config.Config) []string {
	if cfg == nil {
		return []string{"Configuration: <nil>"}
	}

	lines := []string{
		fmt.Sprintf("Environment: %s", cfg.Env),
		profileLine(cfg),
		fmt.Sprintf("Postgres ledger: %s", presence(cfg.Postgres.DSN != "")),
		fmt.Sprintf("Redis asset cache: %s", presence(strings.TrimSpace(cfg.Redis.Host) != "")),
		fmt.Sprintf("Asset TTL: %s", cfg.Assets.TTL),
		fmt.Sprintf("Ledger interval: %s", cfg.Ledger.Interval),
	}
	if cfg.Journal.Dir != "" {
		lines = append(lines, fmt.Sprintf("Poll journal: %s", cfg.ResolvePath(cfg.Journal.Dir)))
	} else {
		lines = append(lines, "Poll journal: disabled")
	}
	return lines
}

// LogConfigSummary emits the configuration summary using logx.
func LogConfigSummary(cfg *config.Config) {
	logx.Info("configuration summary")
	for _, line := range ConfigSummaryLines(cfg) {
		logx.Infof("config • %s", line)
	}
}

func presence(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func profileLine(cfg *config.Config) string {
	if cfg.Variational.Value == nil {
		return "Variational profiles: not configured"
	}
	name := cfg.Profile
	if name == "" {
		name = cfg.Variational.Value.Default
	}
	if name == "" {
		name = "<default>"
	}
	return fmt.Sprintf("Variational profiles: %s (active %s, from %s)",
		strings.Join(cfg.Variational.Value.ProfileNames(), ", "), name, cfg.Variational.File)
}
