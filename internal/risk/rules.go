package risk

import (
	"context"

	"github.com/i474232898/flood-risk/internal/weather"
)

// DefaultRulePressure is used when the day record has no pressure (mb).
const DefaultRulePressure = 1013.25

var impactWeight = map[Impact]float64{
	ImpactPositive: 1,
	ImpactNeutral:  0.5,
	ImpactNegative: 0,
}

// All comparisons are strict.
func precipitationImpact(v float64) Impact {
	switch {
	case v > 1:
		return ImpactPositive
	case v > 0.5:
		return ImpactNeutral
	default:
		return ImpactNegative
	}
}

func humidityImpact(v float64) Impact {
	switch {
	case v > 80:
		return ImpactPositive
	case v > 70:
		return ImpactNeutral
	default:
		return ImpactNegative
	}
}

func pressureImpact(v float64) Impact {
	switch {
	case v < 1000:
		return ImpactPositive
	case v < 1010:
		return ImpactNeutral
	default:
		return ImpactNegative
	}
}

func windSpeedImpact(v float64) Impact {
	switch {
	case v > 20:
		return ImpactPositive
	case v > 10:
		return ImpactNeutral
	default:
		return ImpactNegative
	}
}

// ScoreDay classifies a single day record with the fixed-threshold rules.
func ScoreDay(day weather.DayRecord) Prediction {
	pressure := weather.ValueOr(day.Pressure, DefaultRulePressure)
	windSpeed := weather.ValueOr(day.WindSpeed, 0)

	factors := []Factor{
		{Name: "Precipitation", Value: day.Precip, Impact: precipitationImpact(day.Precip)},
		{Name: "Humidity", Value: day.Humidity, Impact: humidityImpact(day.Humidity)},
		{Name: "Pressure", Value: pressure, Impact: pressureImpact(pressure)},
		{Name: "Wind Speed", Value: windSpeed, Impact: windSpeedImpact(windSpeed)},
	}

	var sum float64
	for _, f := range factors {
		sum += impactWeight[f.Impact]
	}
	score := sum / float64(len(factors))

	p := Prediction{Factors: factors, Source: SourceRules}
	switch {
	case score > 0.7:
		p.FloodRisk, p.Confidence = LevelHigh, 0.8
	case score > 0.4:
		p.FloodRisk, p.Confidence = LevelMedium, 0.6
	default:
		p.FloodRisk, p.Confidence = LevelLow, 0.5
	}
	return p
}

// RuleScorer scores today's record of a snapshot.
type RuleScorer struct {
	recorder Recorder
}

func NewRuleScorer(recorder Recorder) *RuleScorer {
	return &RuleScorer{recorder: recorder}
}

func (s *RuleScorer) Score(_ context.Context, snapshot weather.Snapshot) (Prediction, error) {
	day, ok := snapshot.Today()
	if !ok {
		return Prediction{}, ErrEmptySnapshot
	}

	p := ScoreDay(day)
	if s.recorder != nil {
		s.recorder.RecordPrediction(string(p.Source), string(p.FloodRisk))
	}
	return p, nil
}
