package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxConfigFileSize = 1024 * 1024 // 1MB

// LoadWithFile loads configuration from a YAML file, then overrides with
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (GOVERNANCE_ESCALATE_BUDGET_ABOVE, LOGGING_LEVEL, ...)
//  2. YAML config file (~/.config/directord/config.yaml)
//  3. Reference defaults
//
// The config file must live under ~/.config/directord/ or /etc/directord/,
// must not be world-readable, and must not exceed 1MB. Environment variables
// map section-first: GOVERNANCE_ESCALATE_BUDGET_ABOVE becomes
// governance.escalate_budget_above.
func LoadWithFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", "directord", "config.yaml")
	}

	if err := validateConfigPath(configPath); err != nil {
		return nil, fmt.Errorf("config path validation failed: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		// Open once and validate through the descriptor to avoid a TOCTOU race.
		f, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		if err := validateConfigFileProperties(info); err != nil {
			return nil, fmt.Errorf("config file validation failed: %w", err)
		}

		content, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		// Section-first mapping: split on the first underscore, keep the
		// rest as the field name. LOGGING_LEVEL -> logging.level,
		// GOVERNANCE_ESCALATE_BUDGET_ABOVE -> governance.escalate_budget_above.
		lower := strings.ToLower(s)
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// EnsureConfigDir creates the directord config directory if it doesn't exist.
// The directory is created with 0700 permissions.
func EnsureConfigDir() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(home, ".config", "directord")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", configDir, err)
	}
	return nil
}

// validateConfigPath checks if path is in an allowed directory. This runs
// even if the file doesn't exist yet.
func validateConfigPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	// Resolve symlinks so a link cannot escape the allowed directories. A
	// failed resolution means the path doesn't exist yet; validate as-is.
	resolvedPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		resolvedPath = absPath
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	allowedDirs := []string{
		filepath.Join(home, ".config", "directord"),
		"/etc/directord",
	}
	for _, dir := range allowedDirs {
		if strings.HasPrefix(resolvedPath, dir) {
			return nil
		}
	}
	return fmt.Errorf("config file must be in ~/.config/directord/ or /etc/directord/")
}

// validateConfigFileProperties checks file permissions and size from an
// already-opened descriptor.
func validateConfigFileProperties(info os.FileInfo) error {
	// Windows has a different permission model; skip the mode check there.
	if runtime.GOOS != "windows" {
		perm := info.Mode().Perm()
		if perm != 0600 && perm != 0400 {
			return fmt.Errorf("insecure config file permissions: %v (expected 0600 or 0400)", perm)
		}
	}

	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	return nil
}

// applyDefaults fills in the reference value for every unset field.
func applyDefaults(cfg *Config) {
	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "directord"
	}
	if cfg.Observability.Endpoint == "" {
		cfg.Observability.Endpoint = "localhost:4317"
	}
	if cfg.Observability.Protocol == "" {
		cfg.Observability.Protocol = "grpc"
	}
	if cfg.Observability.SamplingRate == 0 {
		cfg.Observability.SamplingRate = 1.0
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Governance.AutoApproveBudget == 0 {
		cfg.Governance.AutoApproveBudget = 50_000
	}
	if cfg.Governance.AutoApproveHiring == 0 {
		cfg.Governance.AutoApproveHiring = 3
	}
	if cfg.Governance.AutoApproveVendorContract == 0 {
		cfg.Governance.AutoApproveVendorContract = 25_000
	}
	if cfg.Governance.EscalateConfidenceBelow == 0 {
		cfg.Governance.EscalateConfidenceBelow = 0.60
	}
	if cfg.Governance.EscalateBudgetAbove == 0 {
		cfg.Governance.EscalateBudgetAbove = 500_000
	}
	if cfg.Governance.EscalateHeadcountAbove == 0 {
		cfg.Governance.EscalateHeadcountAbove = 20
	}
	if cfg.Governance.EscalateDepartmentsAbove == 0 {
		cfg.Governance.EscalateDepartmentsAbove = 3
	}

	if cfg.Conflict.ResourceThreshold == 0 {
		cfg.Conflict.ResourceThreshold = 3
	}

	if cfg.Orchestrator.PhasedBudgetShare == 0 {
		cfg.Orchestrator.PhasedBudgetShare = 0.60
	}
	if cfg.Orchestrator.PhasedTimelineDays == 0 {
		cfg.Orchestrator.PhasedTimelineDays = 180
	}
	if cfg.Orchestrator.MVPBudgetShare == 0 {
		cfg.Orchestrator.MVPBudgetShare = 0.30
	}
	if cfg.Orchestrator.MVPTimelineDays == 0 {
		cfg.Orchestrator.MVPTimelineDays = 45
	}
}
