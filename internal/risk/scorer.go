package risk

import (
	"fmt"

	"github.com/i474232898/flood-risk/internal/upstream"
	"github.com/i474232898/flood-risk/pkg/logger"
)

// Scorer modes, matching configuration values.
const (
	ModeRules      = "rules"
	ModeModel      = "model"
	ModeModelRules = "model_rules"
)

// ScorerOptions carries everything NewScorer may need. Model fields are
// ignored in rules mode.
type ScorerOptions struct {
	Mode          string
	ModelEndpoint string
	ModelClient   *upstream.Client
	// ConfidenceScale defaults to ScalePercent.
	ConfidenceScale ConfidenceScale
	Placeholders    Placeholders
	Recorder        Recorder
	Logger          *logger.Logger
}

// NewScorer builds the scorer for the configured mode. Precedence between
// rules and model is decided here, once, from configuration.
func NewScorer(opts ScorerOptions) (Scorer, error) {
	switch opts.ConfidenceScale {
	case "", ScalePercent, ScaleFraction:
	default:
		return nil, fmt.Errorf("unknown confidence scale %q", opts.ConfidenceScale)
	}

	switch opts.Mode {
	case ModeRules, "":
		return NewRuleScorer(opts.Recorder), nil
	case ModeModel, ModeModelRules:
		if opts.ModelEndpoint == "" || opts.ModelClient == nil {
			return nil, fmt.Errorf("scorer mode %q needs a model endpoint", opts.Mode)
		}
		fallback := FallbackNeutral
		if opts.Mode == ModeModelRules {
			fallback = FallbackRules
		}
		return NewModelScorer(
			opts.ModelEndpoint,
			NewAdapter(opts.Placeholders),
			opts.ModelClient,
			opts.ConfidenceScale,
			fallback,
			opts.Recorder,
			opts.Logger,
		), nil
	default:
		return nil, fmt.Errorf("unknown scorer mode %q", opts.Mode)
	}
}
