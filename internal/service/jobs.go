package service

import (
	"context"
	"fmt"
)

// FXRefreshJob reloads the fallback FX table on a fixed cadence (SPEC_FULL.md
// §2.6); a no-op when useLiveFX is disabled.
type FXRefreshJob struct {
	svc *Service
}

// NewFXRefreshJob builds the scheduled FX-refresh job.
func NewFXRefreshJob(svc *Service) *FXRefreshJob { return &FXRefreshJob{svc: svc} }

func (j *FXRefreshJob) Name() string { return "fx-refresh" }

func (j *FXRefreshJob) Run(ctx context.Context) error {
	return j.svc.RefreshFX(ctx)
}

// SweepJob resubmits indicators left in a stage_failed state, without the
// force flag, so their already-completed stages short-circuit and only
// the failed stage onward re-runs.
type SweepJob struct {
	svc   *Service
	limit int
}

// NewSweepJob builds the scheduled stage_failed sweep job.
func NewSweepJob(svc *Service, limit int) *SweepJob {
	return &SweepJob{svc: svc, limit: limit}
}

func (j *SweepJob) Name() string { return "stage-failed-sweep" }

func (j *SweepJob) Run(ctx context.Context) error {
	ids, err := j.svc.Repo.Classifications.ListStageFailed(ctx, j.limit)
	if err != nil {
		return fmt.Errorf("failed to list stage_failed indicators: %w", err)
	}

	for _, id := range ids {
		descriptor, err := j.svc.Repo.Indicators.Get(ctx, id)
		if err != nil {
			j.svc.Log.Error().Err(err).Str("indicator_id", id).Msg("sweep: failed to load descriptor")
			continue
		}
		if descriptor == nil {
			j.svc.Log.Warn().Str("indicator_id", id).Msg("sweep: stage_failed marker with no descriptor")
			continue
		}

		if _, _, err := j.svc.Orchestrator.RunIndicator(ctx, *descriptor, false); err != nil {
			j.svc.Log.Warn().Err(err).Str("indicator_id", id).Msg("sweep: resubmit failed again")
		}
	}

	return nil
}
