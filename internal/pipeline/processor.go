// Package pipeline implements the eight-stage prompt processing sequence
// that runs ahead of code generation. Unlike the generation engine, the
/// processor is fail-fast: a stage error is recorded in the trace and then
// returned, aborting the remaining stages.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/orusmind/orus-builder/internal/spec"
)

var tracer = otel.Tracer("prompt-pipeline")

// ReadyThreshold is the minimum extraction confidence for a request to be
// considered ready for generation.
const ReadyThreshold = 0.6

// Stage names, in execution order.
const (
	StageParse        = "parse"
	StageClassify     = "classify-intent"
	StageValidate     = "validation"
	StageContext      = "analyze-context"
	StageAmbiguity    = "resolve-ambiguity"
	StageRequirements = "extract-requirements"
	StageConversation = "manage-conversation"
	StageHistory      = "record-history"
)

// Options controls which skippable stages run.
type Options struct {
	SkipValidation   bool
	SkipAmbiguity    bool
	SkipConversation bool
	SessionID        string
}

// Result is the aggregate outcome of one Process call. Trace holds one
// record per stage in execution order, including skipped stages.
type Result struct {
	Parsed       ParsedPrompt       `json:"parsed"`
	Intent       Intent             `json:"intent"`
	Validation   ValidationReport   `json:"validation"`
	Context      ContextAnalysis    `json:"context"`
	Ambiguity    AmbiguityReport    `json:"ambiguity"`
	Requirements []Requirement      `json:"requirements"`
	Confidence   float64            `json:"confidence"`
	Ready        bool               `json:"ready"`
	Trace        []spec.StageRecord `json:"trace"`
	Duration     time.Duration      `json:"duration"`
}

// Processor runs the fixed stage sequence. Sub-engines are plain injected
// values, constructed once at startup and shared across requests.
type Processor struct {
	parser        *Parser
	classifier    *IntentClassifier
	validator     *Validator
	analyzer      *ContextAnalyzer
	resolver      *AmbiguityResolver
	extractor     *RequirementExtractor
	conversations *ConversationManager
	history       *HistoryRecorder
	logger        zerolog.Logger
	tracer        trace.Tracer
}

// NewProcessor wires the default sub-engines.
func NewProcessor(logger zerolog.Logger) *Processor {
	return &Processor{
		parser:        NewParser(),
		classifier:    NewIntentClassifier(),
		validator:     NewValidator(),
		analyzer:      NewContextAnalyzer(),
		resolver:      NewAmbiguityResolver(),
		extractor:     NewRequirementExtractor(),
		conversations: NewConversationManager(),
		history:       NewHistoryRecorder(),
		logger:        logger.With().Str("component", "pipeline").Logger(),
		tracer:        tracer,
	}
}

// Process runs all eight stages in fixed order and computes the final
// readiness verdict. The first hard stage error aborts processing; the
// partial trace up to and including the failed stage is still returned.
func (p *Processor) Process(ctx context.Context, promptText string, opts Options) (*Result, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.process")
	defer span.End()

	started := time.Now()
	res := &Result{}

	err := p.runStage(res, StageParse, func() (spec.StageStatus, string, error) {
		parsed, err := p.parser.Parse(promptText)
		if err != nil {
			return spec.StageError, "", err
		}
		res.Parsed = parsed
		if parsed.WordCount < 3 {
			return spec.StageWarning, "prompt is very short", nil
		}
		return spec.StageSuccess, "", nil
	})
	if err != nil {
		return res, err
	}

	err = p.runStage(res, StageClassify, func() (spec.StageStatus, string, error) {
		res.Intent = p.classifier.Classify(res.Parsed)
		return spec.StageSuccess, fmt.Sprintf("intent=%s domain=%s", res.Intent.Action, res.Intent.Domain), nil
	})
	if err != nil {
		return res, err
	}

	if opts.SkipValidation {
		p.skipStage(res, StageValidate)
		res.Validation = ValidationReport{Passed: true, Skipped: true}
	} else {
		err = p.runStage(res, StageValidate, func() (spec.StageStatus, string, error) {
			res.Validation = p.validator.Validate(res.Parsed)
			if !res.Validation.Passed {
				return spec.StageWarning, res.Validation.Reason, nil
			}
			return spec.StageSuccess, "", nil
		})
		if err != nil {
			return res, err
		}
	}

	err = p.runStage(res, StageContext, func() (spec.StageStatus, string, error) {
		res.Context = p.analyzer.Analyze(res.Parsed, res.Intent)
		return spec.StageSuccess, "", nil
	})
	if err != nil {
		return res, err
	}

	if opts.SkipAmbiguity {
		p.skipStage(res, StageAmbiguity)
	} else {
		err = p.runStage(res, StageAmbiguity, func() (spec.StageStatus, string, error) {
			res.Ambiguity = p.resolver.Resolve(res.Parsed, res.Intent)
			if res.Ambiguity.NeedsClarification {
				return spec.StageWarning, "prompt needs clarification", nil
			}
			return spec.StageSuccess, "", nil
		})
		if err != nil {
			return res, err
		}
	}

	err = p.runStage(res, StageRequirements, func() (spec.StageStatus, string, error) {
		reqs, confidence := p.extractor.Extract(res.Parsed, res.Intent)
		res.Requirements = reqs
		res.Confidence = confidence
		if len(reqs) == 0 {
			return spec.StageWarning, "no requirements extracted", nil
		}
		return spec.StageSuccess, fmt.Sprintf("%d requirements", len(reqs)), nil
	})
	if err != nil {
		return res, err
	}

	if opts.SkipConversation {
		p.skipStage(res, StageConversation)
	} else {
		err = p.runStage(res, StageConversation, func() (spec.StageStatus, string, error) {
			p.conversations.Append(opts.SessionID, promptText, res.Intent)
			return spec.StageSuccess, "", nil
		})
		if err != nil {
			return res, err
		}
	}

	err = p.runStage(res, StageHistory, func() (spec.StageStatus, string, error) {
		p.history.Record(promptText, res.Intent, res.Confidence)
		return spec.StageSuccess, "", nil
	})
	if err != nil {
		return res, err
	}

	res.Ready = res.Validation.Passed &&
		!res.Ambiguity.NeedsClarification &&
		len(res.Requirements) > 0 &&
		res.Confidence > ReadyThreshold
	res.Duration = time.Since(started)

	span.SetAttributes(
		attribute.Bool("pipeline.ready", res.Ready),
		attribute.Float64("pipeline.confidence", res.Confidence),
	)
	p.logger.Info().
		Bool("ready", res.Ready).
		Float64("confidence", res.Confidence).
		Dur("duration", res.Duration).
		Msg("pipeline processed")

	return res, nil
}

// runStage wraps one stage in a timer and appends its trace record. A stage
// error is recorded with status error before being returned to the caller.
func (p *Processor) runStage(res *Result, name string, fn func() (spec.StageStatus, string, error)) error {
	start := time.Now()
	status, message, err := fn()
	record := spec.StageRecord{
		Name:     name,
		Status:   status,
		Duration: time.Since(start),
		Message:  message,
	}
	if err != nil {
		record.Status = spec.StageError
		record.Message = err.Error()
		res.Trace = append(res.Trace, record)
		p.logger.Error().Err(err).Str("stage", name).Msg("stage failed")
		return fmt.Errorf("stage %s: %w", name, err)
	}
	res.Trace = append(res.Trace, record)
	p.logger.Debug().Str("stage", name).Dur("duration", record.Duration).Msg("stage complete")
	return nil
}

func (p *Processor) skipStage(res *Result, name string) {
	res.Trace = append(res.Trace, spec.StageRecord{
		Name:     name,
		Status:   spec.StageSkipped,
		Duration: 0,
	})
}
