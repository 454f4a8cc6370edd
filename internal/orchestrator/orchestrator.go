package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/econindex/classifier/internal/errs"
	"github.com/econindex/classifier/internal/llm"
	"github.com/econindex/classifier/internal/models"
	"github.com/econindex/classifier/internal/persistence"
	"github.com/econindex/classifier/internal/ratelimiter"
	"github.com/econindex/classifier/internal/stage"
)

// stageFailedMarker is the sentinel stage name the sweep job's
// ListStageFailed query looks for (see
// internal/persistence/postgres/classification_repo.go).
const stageFailedMarker = "stage_failed"

// Options configures an Orchestrator.
type Options struct {
	// ConfidenceThreshold gates Final Review: it runs whenever Boolean
	// Review flags the record or overall confidence falls below this.
	ConfidenceThreshold float64
	// LLMOptions is passed to every stage's generateStructured call.
	LLMOptions llm.Options
	// MaxConcurrentIndicators bounds RunBatch's fan-out.
	MaxConcurrentIndicators int
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		ConfidenceThreshold:     stage.DefaultConfidenceThreshold,
		LLMOptions:              llm.DefaultOptions(),
		MaxConcurrentIndicators: 4,
	}
}

// Orchestrator drives indicators through the six classification stages,
// issuing LLM calls through a rate limiter and persisting each stage's
// result before advancing.
type Orchestrator struct {
	capability llm.Capability
	scheduler  *ratelimiter.Scheduler
	repo       persistence.Repository
	opts       Options
}

// New builds an Orchestrator. scheduler may be nil to run unthrottled
// (tests only; production always configures a Scheduler).
func New(capability llm.Capability, scheduler *ratelimiter.Scheduler, repo persistence.Repository, opts Options) *Orchestrator {
	if opts.ConfidenceThreshold <= 0 {
		opts.ConfidenceThreshold = stage.DefaultConfidenceThreshold
	}
	if opts.MaxConcurrentIndicators <= 0 {
		opts.MaxConcurrentIndicators = 4
	}
	if opts.LLMOptions.MaxRetries <= 0 {
		opts.LLMOptions = llm.DefaultOptions()
	}
	return &Orchestrator{capability: capability, scheduler: scheduler, repo: repo, opts: opts}
}

// RunIndicator drives one indicator through the state machine. When
// force is false and a completed classification record already exists,
// it is returned unchanged (idempotent resubmission). When force is
// true, all prior stage results are deleted before restarting.
func (o *Orchestrator) RunIndicator(ctx context.Context, descriptor models.IndicatorDescriptor, force bool) (*models.ClassificationRecord, State, error) {
	if !force {
		existing, err := o.repo.Classifications.Get(ctx, descriptor.ID)
		if err != nil {
			return nil, StateFailed, err
		}
		if existing != nil {
			return existing, StateCompleted, nil
		}
	} else {
		if err := o.repo.StageResults.DeleteByIndicator(ctx, descriptor.ID); err != nil {
			return nil, StateFailed, err
		}
	}

	record := models.ClassificationRecord{IndicatorID: descriptor.ID}
	var confidences []float64

	normResp, _, err := o.runStage(ctx, descriptor, stage.Normalization, buildNormalizationPrompt(descriptor))
	if err != nil {
		return nil, StateFailed, err
	}
	record.Normalized = stage.DecodeNormalization(normResp)
	confidences = append(confidences, record.Normalized.ParsingConfidence)

	timeResp, _, err := o.runStage(ctx, descriptor, stage.TimeInference, buildTimePrompt(descriptor, record.Normalized))
	if err != nil {
		return nil, StateFailed, err
	}
	record.Time = stage.DecodeTimeInference(timeResp)
	confidences = append(confidences, record.Time.Confidence)

	familyResp, _, err := o.runStage(ctx, descriptor, stage.FamilyAssign, buildFamilyPrompt(descriptor, record))
	if err != nil {
		return nil, StateFailed, err
	}
	record.Family = stage.DecodeFamily(familyResp)
	confidences = append(confidences, record.Family.Confidence)

	typeResp, _, err := o.runStage(ctx, descriptor, stage.TypeClassify, buildTypePrompt(descriptor, record))
	if err != nil {
		return nil, StateFailed, err
	}
	record.Type = stage.DecodeType(typeResp)
	confidences = append(confidences, record.Type.Confidence)

	reviewResp, _, err := o.runStage(ctx, descriptor, stage.BooleanReview, buildReviewPrompt(descriptor, record))
	if err != nil {
		return nil, StateFailed, err
	}
	record.Review = stage.DecodeBooleanReview(reviewResp)
	confidences = append(confidences, record.Review.Confidence)

	record.OverallConfidence = averageConfidence(confidences)

	if stage.ShouldRunFinalReview(record.Review, record.OverallConfidence, o.opts.ConfidenceThreshold) {
		finalResp, _, err := o.runStage(ctx, descriptor, stage.FinalReview, buildFinalReviewPrompt(descriptor, record))
		if err != nil {
			return nil, StateFailed, err
		}
		final := stage.DecodeFinalReview(finalResp)
		record.FinalReview = &final
	}

	record.CreatedAt = time.Now().UTC()
	if err := o.repo.Classifications.Put(ctx, record); err != nil {
		return nil, StateFailed, err
	}
	return &record, StateCompleted, nil
}

// runStage executes one stage: it short-circuits on an already-persisted
// result (resume-after-crash), otherwise paces the call through the rate
// limiter, invokes the LLM capability with retry, persists the result
// under (indicatorId, stageName), and on persistent failure writes the
// stage_failed marker the sweep job looks for.
func (o *Orchestrator) runStage(ctx context.Context, descriptor models.IndicatorDescriptor, name stage.Name, prompt string) (map[string]interface{}, State, error) {
	state := stateForStage[name]

	existing, err := o.repo.StageResults.Get(ctx, descriptor.ID, string(name))
	if err != nil {
		return nil, StateFailed, err
	}
	if existing != nil {
		return existing.Payload, state, nil
	}

	if o.scheduler != nil {
		if err := o.scheduler.Wait(ctx, 1); err != nil {
			return nil, StateFailed, err
		}
	}

	response, callErr := llm.CallWithRetry(ctx, string(name), o.capability, prompt, stage.Schema(name), o.opts.LLMOptions)
	if callErr != nil {
		_ = o.repo.StageResults.Put(ctx, models.StageResult{
			StageName:   stageFailedMarker,
			IndicatorID: descriptor.ID,
			Payload:     map[string]interface{}{"failedStage": string(name), "error": callErr.Error()},
			CreatedAt:   time.Now().UTC(),
		})
		return nil, StateFailed, callErr
	}

	result := models.StageResult{
		StageName:   string(name),
		IndicatorID: descriptor.ID,
		Payload:     response,
		Confidence:  floatField(response, "confidence"),
		Reasoning:   stringField(response, "reasoning"),
		LLMProvider: o.opts.LLMOptions.ModelName,
		CreatedAt:   time.Now().UTC(),
	}
	if err := o.repo.StageResults.Put(ctx, result); err != nil {
		return nil, StateFailed, errs.StageFailure(string(name), "failed to persist stage result", err)
	}
	return response, state, nil
}

func floatField(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func averageConfidence(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func buildNormalizationPrompt(d models.IndicatorDescriptor) string {
	return fmt.Sprintf("Parse units and infer scale/currency/unit-type for indicator %q (name=%q, units=%q, scale hint=%q, currency hint=%q).",
		d.ID, d.Name, d.UnitsRaw, d.Scale, d.CurrencyCode)
}

func buildTimePrompt(d models.IndicatorDescriptor, norm models.NormalizationResult) string {
	return fmt.Sprintf("Infer reporting frequency and time basis for indicator %q (periodicity hint=%q, parsed units=%q).",
		d.ID, d.Periodicity, norm.OriginalUnits)
}

func buildFamilyPrompt(d models.IndicatorDescriptor, rec models.ClassificationRecord) string {
	return fmt.Sprintf("Assign a family for indicator %q (name=%q, topic=%q, parsed unit type=%q).",
		d.ID, d.Name, d.Topic, rec.Normalized.ParsedUnitType)
}

func buildTypePrompt(d models.IndicatorDescriptor, rec models.ClassificationRecord) string {
	return fmt.Sprintf("Classify indicator type and temporal aggregation for indicator %q (family=%q, time basis=%q).",
		d.ID, rec.Family.Family, rec.Time.TimeBasis)
}

func buildReviewPrompt(d models.IndicatorDescriptor, rec models.ClassificationRecord) string {
	return fmt.Sprintf("Review the classification of indicator %q: family=%q, type=%q, temporal aggregation=%q. Is it correct?",
		d.ID, rec.Family.Family, rec.Type.IndicatorType, rec.Type.TemporalAggregation)
}

func buildFinalReviewPrompt(d models.IndicatorDescriptor, rec models.ClassificationRecord) string {
	return fmt.Sprintf("Final review for indicator %q: boolean review flagged=%v, incorrect fields=%v, overall confidence=%.2f.",
		d.ID, !rec.Review.IsCorrect, rec.Review.IncorrectFields, rec.OverallConfidence)
}
