// Package service wires the Classification Orchestrator, Dispatcher,
// Rate Limiter, and durable workflow engine into the HTTP submission
// endpoint and background cron jobs that cmd/classifierd exposes,
// following the teacher's cmd-thin/internal-application-heavy layering
// (_examples/sawpanic-cryptorun/cmd/cryptorun/main.go delegates to
// internal/application the same way cmd/classifierd delegates here).
package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/econindex/classifier/internal/config"
	"github.com/econindex/classifier/internal/dispatcher/circuit"
	"github.com/econindex/classifier/internal/fx"
	"github.com/econindex/classifier/internal/llm"
	"github.com/econindex/classifier/internal/models"
	"github.com/econindex/classifier/internal/orchestrator"
	"github.com/econindex/classifier/internal/persistence"
	"github.com/econindex/classifier/internal/ratelimiter"
	"github.com/econindex/classifier/internal/workflow"
)

// Service holds every collaborator the HTTP handlers and cron jobs need.
type Service struct {
	Config       config.ServiceConfig
	Repo         persistence.Repository
	Orchestrator *orchestrator.Orchestrator
	Capability   *llm.DispatchingCapability
	Circuits     *circuit.Manager
	Scheduler    *ratelimiter.Scheduler
	Engine       workflow.Engine
	Log          zerolog.Logger

	fxMu    sync.RWMutex
	fxTable models.FXTable
}

// New builds the circuit manager, dispatching capability, and
// orchestrator from cfg, wrapping repo and engine as given.
func New(cfg config.ServiceConfig, repo persistence.Repository, engine workflow.Engine, log zerolog.Logger) *Service {
	circuits := circuit.NewManager()
	for _, ep := range cfg.Endpoints {
		circuits.AddEndpoint(ep.Name, circuit.Config{
			FailureThreshold: ep.Circuit.FailureThreshold,
			HalfOpenMaxCalls: ep.Circuit.HalfOpenMaxCalls,
			Timeout:          time.Duration(ep.Circuit.TimeoutMS) * time.Millisecond,
			RequestTimeout:   time.Duration(ep.TimeoutMS) * time.Millisecond,
		})
	}

	generator := llm.NewJSONHTTPGenerator(nil)
	capability := llm.NewDispatchingCapability(cfg.Endpoints, generator, circuits)

	scheduler := newRateLimiterScheduler(cfg.RateLimiter)

	orchOpts := orchestrator.DefaultOptions()
	orchOpts.MaxConcurrentIndicators = cfg.MaxConcurrentIndicators
	orch := orchestrator.New(capability, scheduler, repo, orchOpts)

	return &Service{
		Config:       cfg,
		Repo:         repo,
		Orchestrator: orch,
		Capability:   capability,
		Circuits:     circuits,
		Scheduler:    scheduler,
		Engine:       engine,
		Log:          log,
	}
}

// RefreshFX reloads the fallback FX table from disk and swaps it in,
// used by both startup and the scheduled FX-refresh job.
func (s *Service) RefreshFX(ctx context.Context) error {
	if !s.Config.Normalize.UseLiveFX {
		return nil
	}
	table, err := fx.LoadFallback(s.Config.Normalize.FXFallbackPath)
	if err != nil {
		return err
	}
	s.fxMu.Lock()
	s.fxTable = table
	s.fxMu.Unlock()
	return nil
}

// CurrentFXTable returns the most recently loaded FX table.
func (s *Service) CurrentFXTable() models.FXTable {
	s.fxMu.RLock()
	defer s.fxMu.RUnlock()
	return s.fxTable
}
