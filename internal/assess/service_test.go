package assess_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/flood-risk/internal/assess"
	"github.com/i474232898/flood-risk/internal/geocode"
	"github.com/i474232898/flood-risk/internal/risk"
	"github.com/i474232898/flood-risk/internal/store"
	"github.com/i474232898/flood-risk/internal/weather"
	"github.com/i474232898/flood-risk/pkg/logger"
)

type fakeGeocoder struct {
	place string
	err   error
}

func (g fakeGeocoder) ReverseGeocode(context.Context, float64, float64) (string, error) {
	return g.place, g.err
}

type fakeProvider struct {
	mu      sync.Mutex
	calls   []string
	fetch   func(ctx context.Context, city string) (weather.Snapshot, error)
	started chan string
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Fetch(ctx context.Context, city string) (weather.Snapshot, error) {
	p.mu.Lock()
	p.calls = append(p.calls, city)
	p.mu.Unlock()
	if p.started != nil {
		p.started <- city
	}
	return p.fetch(ctx, city)
}

func (p *fakeProvider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

type fakeRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *fakeRecorder) RecordAssessment(trigger, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, trigger+"/"+outcome)
}

func rainySnapshot(ctx context.Context, city string) (weather.Snapshot, error) {
	return weather.Snapshot{
		Latitude:        5.41,
		Longitude:       100.33,
		ResolvedAddress: city + ", Malaysia",
		Days: []weather.DayRecord{{
			Datetime:  "2026-10-18",
			Precip:    2,
			Humidity:  85,
			Pressure:  weather.Float(995),
			WindSpeed: weather.Float(25),
		}},
		Alerts: []weather.Alert{{Event: "Flood Warning", Headline: "Heavy rain"}},
	}, nil
}

type fixture struct {
	service  *assess.Service
	sessions *store.SessionStore
	provider *fakeProvider
	recorder *fakeRecorder
}

func newFixture(g geocode.ReverseGeocoder, fetch func(context.Context, string) (weather.Snapshot, error)) fixture {
	sessions := store.NewSessionStore(clockwork.NewFakeClock())
	provider := &fakeProvider{fetch: fetch}
	recorder := &fakeRecorder{}
	svc := assess.NewService(sessions, g, provider, risk.NewRuleScorer(nil), recorder, logger.NewNop())
	return fixture{service: svc, sessions: sessions, provider: provider, recorder: recorder}
}

func TestAssessCity(t *testing.T) {
	f := newFixture(nil, rainySnapshot)

	a, err := f.service.AssessCity(context.Background(), "s1", "Penang")
	require.NoError(t, err)

	assert.Equal(t, "Penang", a.Location)
	assert.Equal(t, "Penang, Malaysia", a.ResolvedAddress)
	assert.Equal(t, "2026-10-18", a.Today.Datetime)
	assert.Len(t, a.Alerts, 1)
	assert.Equal(t, risk.LevelHigh, a.Prediction.FloodRisk)
	assert.Equal(t, 0.8, a.Prediction.Confidence)

	st, err := f.service.State("s1")
	require.NoError(t, err)
	assert.Equal(t, assess.StatusReady, st.Status)
	require.NotNil(t, st.Assessment)
	assert.Equal(t, a, *st.Assessment)
	assert.Equal(t, []string{"city/success"}, f.recorder.outcomes)
}

func TestAssessPoint(t *testing.T) {
	f := newFixture(fakeGeocoder{place: "George Town"}, rainySnapshot)

	a, err := f.service.AssessPoint(context.Background(), "s1", 5.41, 100.33)
	require.NoError(t, err)
	assert.Equal(t, "George Town", a.Location)
	assert.Equal(t, []string{"George Town"}, f.provider.Calls())
	assert.Equal(t, []string{"point/success"}, f.recorder.outcomes)
}

func TestAssessPointUnknownSkipsWeather(t *testing.T) {
	f := newFixture(fakeGeocoder{place: geocode.Unknown}, rainySnapshot)

	_, err := f.service.AssessPoint(context.Background(), "s1", 0, -160)
	assert.ErrorIs(t, err, geocode.ErrLocationUnresolved)
	assert.Empty(t, f.provider.Calls())

	st, err := f.service.State("s1")
	require.NoError(t, err)
	assert.Equal(t, assess.StatusError, st.Status)
	assert.Nil(t, st.Assessment)
	assert.Equal(t, []string{"point/error"}, f.recorder.outcomes)
}

func TestAssessPointGeocoderDown(t *testing.T) {
	f := newFixture(fakeGeocoder{err: fmt.Errorf("%w: timeout", geocode.ErrGeocoderUnavailable)}, rainySnapshot)

	_, err := f.service.AssessPoint(context.Background(), "s1", 1, 1)
	assert.ErrorIs(t, err, geocode.ErrGeocoderUnavailable)
	assert.Empty(t, f.provider.Calls())
}

func TestAssessCityWeatherFailure(t *testing.T) {
	f := newFixture(nil, func(context.Context, string) (weather.Snapshot, error) {
		return weather.Snapshot{}, fmt.Errorf("%w: 401", weather.ErrWeatherFetch)
	})

	_, err := f.service.AssessCity(context.Background(), "s1", "Penang")
	assert.ErrorIs(t, err, weather.ErrWeatherFetch)

	st, _ := f.service.State("s1")
	assert.Equal(t, assess.StatusError, st.Status)
	assert.NotEmpty(t, st.Error)
}

func TestAssessCityEmptySnapshot(t *testing.T) {
	f := newFixture(nil, func(context.Context, string) (weather.Snapshot, error) {
		return weather.Snapshot{ResolvedAddress: "Nowhere"}, nil
	})

	_, err := f.service.AssessCity(context.Background(), "s1", "Nowhere")
	assert.ErrorIs(t, err, weather.ErrWeatherFetch)
}

func TestNewerRequestSupersedesOlder(t *testing.T) {
	started := make(chan string, 2)
	f := newFixture(nil, func(ctx context.Context, city string) (weather.Snapshot, error) {
		if city == "Slowtown" {
			<-ctx.Done()
			return weather.Snapshot{}, fmt.Errorf("%w: %v", weather.ErrWeatherFetch, ctx.Err())
		}
		return rainySnapshot(ctx, city)
	})
	f.provider.started = started

	errs := make(chan error, 1)
	go func() {
		_, err := f.service.AssessCity(context.Background(), "s1", "Slowtown")
		errs <- err
	}()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("first request never reached the provider")
	}

	a, err := f.service.AssessCity(context.Background(), "s1", "Penang")
	require.NoError(t, err)
	assert.Equal(t, "Penang", a.Location)

	select {
	case err := <-errs:
		assert.True(t, errors.Is(err, store.ErrSuperseded), "got %v", err)
	case <-time.After(time.Second):
		t.Fatal("first request was not cancelled")
	}

	st, _ := f.service.State("s1")
	assert.Equal(t, assess.StatusReady, st.Status)
	assert.Equal(t, "Penang", st.Assessment.Location)
	assert.Equal(t, uint64(2), st.Generation)
}

// overtakingStore starts a newer request for the session right after the
// current one records its location.
type overtakingStore struct {
	*store.SessionStore
}

func (s overtakingStore) SetLocation(sessionID string, generation uint64, location string) error {
	s.SessionStore.Begin(sessionID, nil)
	return s.SessionStore.SetLocation(sessionID, generation, location)
}

func TestSupersededBeforeFetchSkipsWeather(t *testing.T) {
	sessions := store.NewSessionStore(clockwork.NewFakeClock())
	provider := &fakeProvider{fetch: rainySnapshot}
	recorder := &fakeRecorder{}
	svc := assess.NewService(overtakingStore{sessions}, fakeGeocoder{place: "George Town"}, provider, risk.NewRuleScorer(nil), recorder, logger.NewNop())

	_, err := svc.AssessCity(context.Background(), "s1", "Penang")
	assert.ErrorIs(t, err, store.ErrSuperseded)

	_, err = svc.AssessPoint(context.Background(), "s2", 5.41, 100.33)
	assert.ErrorIs(t, err, store.ErrSuperseded)

	assert.Empty(t, provider.Calls())
	assert.Equal(t, []string{"city/superseded", "point/superseded"}, recorder.outcomes)

	st, err := sessions.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, assess.StatusLoading, st.Status)
	assert.Nil(t, st.Assessment)
}

func TestStateUnknownSession(t *testing.T) {
	f := newFixture(nil, rainySnapshot)
	_, err := f.service.State("missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
