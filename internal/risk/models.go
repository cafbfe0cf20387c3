package risk

import (
	"context"
	"errors"

	"github.com/i474232898/flood-risk/internal/weather"
)

// Level is a flood-risk category.
type Level string

const (
	LevelLow    Level = "Low"
	LevelMedium Level = "Medium"
	LevelHigh   Level = "High"
)

// Valid reports whether l is one of the three known levels.
func (l Level) Valid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh:
		return true
	}
	return false
}

// Impact is the qualitative contribution of a factor to flood risk.
// Positive raises risk.
type Impact string

const (
	ImpactPositive Impact = "positive"
	ImpactNeutral  Impact = "neutral"
	ImpactNegative Impact = "negative"
)

// Source tells which path produced a prediction.
type Source string

const (
	SourceRules    Source = "rules"
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// Factor explains one input of a prediction. Impact is set by the rule
// scorer; Label carries the model's risk level for model predictions.
type Factor struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Impact Impact  `json:"impact,omitempty"`
	Label  Level   `json:"label,omitempty"`
}

// Prediction is a risk classification. Confidence is always in [0, 1].
type Prediction struct {
	FloodRisk  Level    `json:"floodRisk"`
	Confidence float64  `json:"confidence"`
	Factors    []Factor `json:"factors"`
	Source     Source   `json:"source"`
}

var (
	// ErrEmptySnapshot is returned when a snapshot has no day records.
	ErrEmptySnapshot = errors.New("weather snapshot has no day records")

	// ErrModelInference marks a failed call to the inference endpoint. It is
	// handled inside ModelScorer and never returned to callers.
	ErrModelInference = errors.New("model inference failed")
)

// Scorer turns a weather snapshot into a prediction.
type Scorer interface {
	Score(ctx context.Context, snapshot weather.Snapshot) (Prediction, error)
}

// Recorder receives every prediction a scorer produces.
type Recorder interface {
	RecordPrediction(source, level string)
	RecordModelFallback(reason string)
}
