// Package config provides configuration loading for directord.
//
// Configuration is loaded from a YAML file and overridden by environment
// variables. Every threshold has a reference default; an empty configuration
// is fully usable.
package config

import (
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/directord/internal/conflict"
	"github.com/fyrsmithlabs/directord/internal/governance"
	"github.com/fyrsmithlabs/directord/internal/orchestrator"
)

// Config holds the complete directord configuration.
type Config struct {
	Observability ObservabilityConfig `koanf:"observability"`
	Logging       LoggingConfig       `koanf:"logging"`
	Governance    GovernanceConfig    `koanf:"governance"`
	Conflict      ConflictConfig      `koanf:"conflict"`
	Orchestrator  OrchestratorConfig  `koanf:"orchestrator"`
}

// ObservabilityConfig holds OpenTelemetry configuration.
type ObservabilityConfig struct {
	EnableTelemetry bool    `koanf:"enable_telemetry"`
	ServiceName     string  `koanf:"service_name"`
	Endpoint        string  `koanf:"endpoint"`
	Protocol        string  `koanf:"protocol"` // grpc, http/protobuf
	Insecure        bool    `koanf:"insecure"`
	SamplingRate    float64 `koanf:"sampling_rate"`
}

// LoggingConfig holds logger construction settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json, console
}

// GovernanceConfig holds auto-approval limits and escalation thresholds.
type GovernanceConfig struct {
	AutoApproveBudget         float64 `koanf:"auto_approve_budget"`
	AutoApproveHiring         float64 `koanf:"auto_approve_hiring"`
	AutoApproveVendorContract float64 `koanf:"auto_approve_vendor_contract"`

	EscalateConfidenceBelow  float64 `koanf:"escalate_confidence_below"`
	EscalateBudgetAbove      float64 `koanf:"escalate_budget_above"`
	EscalateHeadcountAbove   int     `koanf:"escalate_headcount_above"`
	EscalateDepartmentsAbove int     `koanf:"escalate_departments_above"`
}

// ConflictConfig holds conflict detection thresholds.
type ConflictConfig struct {
	ResourceThreshold float64 `koanf:"resource_threshold"`
}

// OrchestratorConfig scales the strategic options in decision packages.
type OrchestratorConfig struct {
	PhasedBudgetShare  float64 `koanf:"phased_budget_share"`
	PhasedTimelineDays int     `koanf:"phased_timeline_days"`
	MVPBudgetShare     float64 `koanf:"mvp_budget_share"`
	MVPTimelineDays    int     `koanf:"mvp_timeline_days"`
}

// Validate checks every configured value is in range.
func (c *Config) Validate() error {
	if c.Observability.EnableTelemetry && c.Observability.ServiceName == "" {
		return errors.New("service name required when telemetry is enabled")
	}
	switch c.Observability.Protocol {
	case "", "grpc", "http/protobuf":
	default:
		return fmt.Errorf("invalid telemetry protocol: %q", c.Observability.Protocol)
	}
	if c.Observability.SamplingRate < 0 || c.Observability.SamplingRate > 1 {
		return fmt.Errorf("sampling_rate must be in [0, 1], got %v", c.Observability.SamplingRate)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %q", c.Logging.Format)
	}

	g := c.Governance
	if g.AutoApproveBudget < 0 || g.AutoApproveHiring < 0 || g.AutoApproveVendorContract < 0 {
		return errors.New("auto-approval limits must not be negative")
	}
	if g.EscalateConfidenceBelow < 0 || g.EscalateConfidenceBelow > 1 {
		return fmt.Errorf("escalate_confidence_below must be in [0, 1], got %v", g.EscalateConfidenceBelow)
	}
	if g.EscalateBudgetAbove <= 0 {
		return errors.New("escalate_budget_above must be positive")
	}
	if g.EscalateHeadcountAbove <= 0 {
		return errors.New("escalate_headcount_above must be positive")
	}
	if g.EscalateDepartmentsAbove <= 0 {
		return errors.New("escalate_departments_above must be positive")
	}

	if c.Conflict.ResourceThreshold <= 0 {
		return errors.New("resource_threshold must be positive")
	}

	o := c.Orchestrator
	if o.PhasedBudgetShare <= 0 || o.PhasedBudgetShare > 1 {
		return fmt.Errorf("phased_budget_share must be in (0, 1], got %v", o.PhasedBudgetShare)
	}
	if o.MVPBudgetShare <= 0 || o.MVPBudgetShare > 1 {
		return fmt.Errorf("mvp_budget_share must be in (0, 1], got %v", o.MVPBudgetShare)
	}
	if o.PhasedTimelineDays <= 0 || o.MVPTimelineDays <= 0 {
		return errors.New("option timelines must be positive")
	}

	return nil
}

// GovernanceConfig materializes the governance engine configuration: the
// reference authority profiles with this config's limits and thresholds.
func (c *Config) GovernanceConfig() *governance.Config {
	cfg := governance.DefaultConfig()
	cfg.AutoApprove["budget"] = c.Governance.AutoApproveBudget
	cfg.AutoApprove["hiring"] = c.Governance.AutoApproveHiring
	cfg.AutoApprove["vendor_contract"] = c.Governance.AutoApproveVendorContract
	cfg.EscalateConfidenceBelow = c.Governance.EscalateConfidenceBelow
	cfg.EscalateBudgetAbove = c.Governance.EscalateBudgetAbove
	cfg.EscalateHeadcountAbove = c.Governance.EscalateHeadcountAbove
	cfg.EscalateDepartmentsAbove = c.Governance.EscalateDepartmentsAbove
	return cfg
}

// ConflictConfig materializes the conflict engine configuration.
func (c *Config) ConflictConfig() *conflict.Config {
	return &conflict.Config{ResourceThreshold: c.Conflict.ResourceThreshold}
}

// OrchestratorConfig materializes the orchestrator configuration.
func (c *Config) OrchestratorConfig() *orchestrator.Config {
	return &orchestrator.Config{
		PhasedBudgetShare:  c.Orchestrator.PhasedBudgetShare,
		PhasedTimelineDays: c.Orchestrator.PhasedTimelineDays,
		MVPBudgetShare:     c.Orchestrator.MVPBudgetShare,
		MVPTimelineDays:    c.Orchestrator.MVPTimelineDays,
	}
}
