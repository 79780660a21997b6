// Package main implements the directord CLI: it coordinates the reference
// worker set through a directive and renders the resulting decision package.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/directord/internal/audit"
	"github.com/fyrsmithlabs/directord/internal/config"
	"github.com/fyrsmithlabs/directord/internal/conflict"
	"github.com/fyrsmithlabs/directord/internal/enterprise"
	"github.com/fyrsmithlabs/directord/internal/governance"
	"github.com/fyrsmithlabs/directord/internal/intent"
	"github.com/fyrsmithlabs/directord/internal/logging"
	"github.com/fyrsmithlabs/directord/internal/orchestrator"
	"github.com/fyrsmithlabs/directord/internal/state"
	"github.com/fyrsmithlabs/directord/internal/telemetry"
	"github.com/fyrsmithlabs/directord/internal/workforce"
)

var (
	configPath string
	jsonOutput bool
	version    = "dev"
)

const defaultDirective = "Improve customer retention by 8% without increasing CAC"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "directord",
	Short: "Coordination layer for functional workers",
	Long: `directord coordinates independent functional workers (sales, marketing,
finance, operations, support, hiring) that produce recommendations for a
business directive. It parses the directive, dispatches tasks, resolves
conflicts between outputs, applies governance rules, and assembles an
auditable decision package.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.config/directord/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit JSON instead of tables")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(reportCmd)
}

// app wires every component together for one CLI invocation.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	tel    *telemetry.Telemetry
	store  *state.Store
	trail  *audit.Trail
	orch   *orchestrator.Orchestrator
}

func newApp() (*app, error) {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	logger = logger.With(zap.String("session_id", uuid.NewString()))

	telCfg := telemetry.DefaultConfig()
	telCfg.Enabled = cfg.Observability.EnableTelemetry
	telCfg.ServiceName = cfg.Observability.ServiceName
	telCfg.ServiceVersion = version
	telCfg.Endpoint = cfg.Observability.Endpoint
	telCfg.Protocol = cfg.Observability.Protocol
	telCfg.Insecure = cfg.Observability.Insecure
	telCfg.SamplingRate = cfg.Observability.SamplingRate
	tel, err := telemetry.New(context.Background(), telCfg, logger)
	if err != nil {
		return nil, err
	}

	store := state.NewStore(logger)
	trail := audit.NewTrail(logger)

	orch, err := orchestrator.New(cfg.OrchestratorConfig(), orchestrator.Deps{
		Store:      store,
		Trail:      trail,
		Conflicts:  conflict.NewEngine(cfg.ConflictConfig(), logger),
		Governance: governance.NewEngine(cfg.GovernanceConfig(), logger),
		Parser:     intent.NewPatternParser(),
		Data:       enterprise.NewDataSource(),
		Workers:    workforce.All(),
	}, logger)
	if err != nil {
		return nil, err
	}
	orch.SeedEnterprise()

	return &app{cfg: cfg, logger: logger, tel: tel, store: store, trail: trail, orch: orch}, nil
}

func (a *app) close() {
	if err := a.tel.Shutdown(context.Background()); err != nil {
		a.logger.Warn("telemetry shutdown failed", zap.Error(err))
	}
	_ = logging.Sync(a.logger)
}

// directiveArg returns the directive text from args or the reference default.
func directiveArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return defaultDirective
}
