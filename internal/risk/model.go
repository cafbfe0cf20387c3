package risk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/i474232898/flood-risk/internal/upstream"
	"github.com/i474232898/flood-risk/internal/weather"
	"github.com/i474232898/flood-risk/pkg/logger"
)

// FallbackPolicy decides what a failed inference call turns into.
type FallbackPolicy int

const (
	// FallbackNeutral answers Low with confidence 0.5.
	FallbackNeutral FallbackPolicy = iota
	// FallbackRules runs the rule scorer on the model input.
	FallbackRules
)

// NeutralFallback is the result returned when inference fails under
// FallbackNeutral.
func NeutralFallback() Prediction {
	return Prediction{
		FloodRisk:  LevelLow,
		Confidence: 0.5,
		Factors: []Factor{
			{Name: "Fallback", Value: 0.5, Impact: ImpactNeutral},
		},
		Source: SourceFallback,
	}
}

// ConfidenceScale is the unit the inference endpoint reports confidence in.
type ConfidenceScale string

const (
	ScalePercent  ConfidenceScale = "percent"
	ScaleFraction ConfidenceScale = "fraction"
)

type modelResponse struct {
	FloodRisk  *Level   `json:"floodRisk"`
	Confidence *float64 `json:"confidence"`
}

// ModelScorer delegates classification to a remote inference endpoint.
// Inference failures never reach the caller.
type ModelScorer struct {
	endpoint string
	adapter  Adapter
	client   *upstream.Client
	scale    ConfidenceScale
	fallback FallbackPolicy
	recorder Recorder
	l        *logger.Logger
}

func NewModelScorer(
	endpoint string,
	adapter Adapter,
	client *upstream.Client,
	scale ConfidenceScale,
	fallback FallbackPolicy,
	recorder Recorder,
	l *logger.Logger,
) *ModelScorer {
	if scale == "" {
		scale = ScalePercent
	}
	return &ModelScorer{
		endpoint: endpoint,
		adapter:  adapter,
		client:   client,
		scale:    scale,
		fallback: fallback,
		recorder: recorder,
		l:        l,
	}
}

// Score adapts the snapshot and asks the model. The only error it returns is
// ErrEmptySnapshot.
func (s *ModelScorer) Score(ctx context.Context, snapshot weather.Snapshot) (Prediction, error) {
	input, err := s.adapter.ToModelInput(snapshot)
	if err != nil {
		return Prediction{}, err
	}
	return s.Predict(ctx, input), nil
}

// Predict is total: it always returns a prediction.
func (s *ModelScorer) Predict(ctx context.Context, input ModelInput) Prediction {
	p, err := s.infer(ctx, input)
	if err != nil {
		s.l.Warning("model inference failed, using fallback", map[string]any{
			"endpoint": s.endpoint,
			"err":      err,
			"fallback": s.fallbackName(),
		})
		if s.recorder != nil {
			s.recorder.RecordModelFallback(s.fallbackName())
		}
		p = s.fallbackFor(input)
	}

	if s.recorder != nil {
		s.recorder.RecordPrediction(string(p.Source), string(p.FloodRisk))
	}
	return p
}

func (s *ModelScorer) infer(ctx context.Context, input ModelInput) (Prediction, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: encode input: %v", ErrModelInference, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: create request: %v", ErrModelInference, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: %v", ErrModelInference, err)
	}
	defer resp.Body.Close()

	var payload modelResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Prediction{}, fmt.Errorf("%w: decode response: %v", ErrModelInference, err)
	}
	if payload.FloodRisk == nil || !payload.FloodRisk.Valid() {
		return Prediction{}, fmt.Errorf("%w: missing or unknown floodRisk", ErrModelInference)
	}
	if payload.Confidence == nil {
		return Prediction{}, fmt.Errorf("%w: missing confidence", ErrModelInference)
	}

	confidence, err := NormalizeConfidence(*payload.Confidence, s.scale)
	if err != nil {
		return Prediction{}, err
	}

	level := *payload.FloodRisk
	return Prediction{
		FloodRisk:  level,
		Confidence: confidence,
		Factors: []Factor{
			{Name: "ML Model", Value: confidence, Label: level},
		},
		Source: SourceModel,
	}, nil
}

// NormalizeConfidence maps a confidence reported in scale onto [0, 1].
// Percent values must lie in [0, 100] and fractions in [0, 1].
func NormalizeConfidence(c float64, scale ConfidenceScale) (float64, error) {
	switch scale {
	case ScaleFraction:
		if c >= 0 && c <= 1 {
			return c, nil
		}
	case ScalePercent:
		if c >= 0 && c <= 100 {
			return c / 100, nil
		}
	default:
		return 0, fmt.Errorf("%w: unknown confidence scale %q", ErrModelInference, scale)
	}
	return 0, fmt.Errorf("%w: confidence %v out of range for %s scale", ErrModelInference, c, scale)
}

func (s *ModelScorer) fallbackFor(input ModelInput) Prediction {
	if s.fallback == FallbackRules {
		return ScoreDay(input.DayRecord())
	}
	return NeutralFallback()
}

func (s *ModelScorer) fallbackName() string {
	if s.fallback == FallbackRules {
		return "rules"
	}
	return "neutral"
}
