package assess

import (
	"context"
	"fmt"

	"github.com/i474232898/flood-risk/internal/geocode"
	"github.com/i474232898/flood-risk/internal/risk"
	"github.com/i474232898/flood-risk/internal/weather"
	"github.com/i474232898/flood-risk/pkg/logger"
)

// Recorder receives one outcome per assessment.
type Recorder interface {
	RecordAssessment(trigger, outcome string)
}

// Service runs the geocode → weather → score chain for one user action and
// keeps the session state in step with it.
type Service struct {
	sessions SessionStore
	geocoder geocode.ReverseGeocoder
	provider weather.Provider
	scorer   risk.Scorer
	recorder Recorder
	l        *logger.Logger
}

func NewService(
	sessions SessionStore,
	geocoder geocode.ReverseGeocoder,
	provider weather.Provider,
	scorer risk.Scorer,
	recorder Recorder,
	l *logger.Logger,
) *Service {
	return &Service{
		sessions: sessions,
		geocoder: geocoder,
		provider: provider,
		scorer:   scorer,
		recorder: recorder,
		l:        l,
	}
}

// AssessCity handles a submitted city name.
func (s *Service) AssessCity(ctx context.Context, sessionID, city string) (Assessment, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	gen := s.sessions.Begin(sessionID, cancel)
	if err := s.sessions.SetLocation(sessionID, gen, city); err != nil {
		return s.finish(sessionID, gen, TriggerCity, Assessment{}, err)
	}

	a, err := s.assess(ctx, city)
	return s.finish(sessionID, gen, TriggerCity, a, err)
}

// AssessPoint handles a map click. A point that resolves to no place name
// fails with geocode.ErrLocationUnresolved before any weather is fetched.
func (s *Service) AssessPoint(ctx context.Context, sessionID string, lat, lon float64) (Assessment, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	gen := s.sessions.Begin(sessionID, cancel)

	place, err := s.geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return s.finish(sessionID, gen, TriggerPoint, Assessment{}, err)
	}

	if err := s.sessions.SetLocation(sessionID, gen, place); err != nil {
		return s.finish(sessionID, gen, TriggerPoint, Assessment{}, err)
	}

	if place == geocode.Unknown {
		err = fmt.Errorf("%w: no city, town or village at %.5f,%.5f", geocode.ErrLocationUnresolved, lat, lon)
		return s.finish(sessionID, gen, TriggerPoint, Assessment{}, err)
	}

	a, err := s.assess(ctx, place)
	return s.finish(sessionID, gen, TriggerPoint, a, err)
}

// State returns the session's current state.
func (s *Service) State(sessionID string) (SessionState, error) {
	return s.sessions.Get(sessionID)
}

func (s *Service) assess(ctx context.Context, location string) (Assessment, error) {
	snapshot, err := s.provider.Fetch(ctx, location)
	if err != nil {
		return Assessment{}, err
	}

	today, ok := snapshot.Today()
	if !ok {
		return Assessment{}, fmt.Errorf("%w: %v", weather.ErrWeatherFetch, risk.ErrEmptySnapshot)
	}

	prediction, err := s.scorer.Score(ctx, snapshot)
	if err != nil {
		return Assessment{}, err
	}

	return Assessment{
		Location:        location,
		Latitude:        snapshot.Latitude,
		Longitude:       snapshot.Longitude,
		ResolvedAddress: snapshot.ResolvedAddress,
		Today:           today,
		Alerts:          snapshot.Alerts,
		Prediction:      prediction,
	}, nil
}

// finish commits the outcome to the session. If a newer request has started
// in the meantime the outcome is dropped and the store's error is returned.
func (s *Service) finish(sessionID string, gen uint64, trigger Trigger, a Assessment, err error) (Assessment, error) {
	if err != nil {
		if storeErr := s.sessions.Fail(sessionID, gen, err); storeErr != nil {
			s.record(trigger, "superseded")
			return Assessment{}, storeErr
		}
		s.l.Warning("assessment failed", map[string]any{
			"session": sessionID,
			"trigger": string(trigger),
			"err":     err,
		})
		s.record(trigger, "error")
		return Assessment{}, err
	}

	if storeErr := s.sessions.Complete(sessionID, gen, a); storeErr != nil {
		s.record(trigger, "superseded")
		return Assessment{}, storeErr
	}

	s.l.Info("assessment completed", map[string]any{
		"session":    sessionID,
		"trigger":    string(trigger),
		"location":   a.Location,
		"floodRisk":  string(a.Prediction.FloodRisk),
		"confidence": a.Prediction.Confidence,
		"source":     string(a.Prediction.Source),
	})
	s.record(trigger, "success")
	return a, nil
}

func (s *Service) record(trigger Trigger, outcome string) {
	if s.recorder != nil {
		s.recorder.RecordAssessment(string(trigger), outcome)
	}
}
