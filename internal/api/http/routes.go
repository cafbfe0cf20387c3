package httpapi

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/i474232898/flood-risk/internal/assess"
	"github.com/i474232898/flood-risk/internal/risk"
	"github.com/i474232898/flood-risk/internal/weather"
)

// SessionHeader carries the client session id. One is generated when absent.
const SessionHeader = "X-Session-ID"

var validate = validator.New()

// Assessor is the part of assess.Service the routes use.
type Assessor interface {
	AssessCity(ctx context.Context, sessionID, city string) (assess.Assessment, error)
	AssessPoint(ctx context.Context, sessionID string, lat, lon float64) (assess.Assessment, error)
	State(sessionID string) (assess.SessionState, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service Assessor) {
	v1 := app.Group("/api/v1")

	v1.Get("/risk", riskByCity(service))
	v1.Get("/risk/point", riskByPoint(service))
	v1.Get("/sessions/:id", sessionState(service))
}

// riskByCity godoc
// @Summary Assess flood risk for a city
// @Tags Risk
// @Produce json
// @Param city query string true "City name"
// @Param X-Session-ID header string false "Session id"
// @Success 200 {object} assessmentResponse
// @Failure 400 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Failure 502 {object} errorResponse
// @Router /api/v1/risk [get]
func riskByCity(service Assessor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := parseCityQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		sessionID := sessionIDFrom(c)
		a, err := service.AssessCity(c.UserContext(), sessionID, q.City)
		if err != nil {
			return toHTTPError(err)
		}

		return c.JSON(newAssessmentResponse(sessionID, a))
	}
}

// riskByPoint godoc
// @Summary Assess flood risk for a map point
// @Tags Risk
// @Produce json
// @Param lat query number true "Latitude (-90 to 90)"
// @Param lon query number true "Longitude (-180 to 180)"
// @Param X-Session-ID header string false "Session id"
// @Success 200 {object} assessmentResponse
// @Failure 400 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Failure 422 {object} errorResponse
// @Failure 502 {object} errorResponse
// @Router /api/v1/risk/point [get]
func riskByPoint(service Assessor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := parsePointQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		sessionID := sessionIDFrom(c)
		a, err := service.AssessPoint(c.UserContext(), sessionID, *q.Lat, *q.Lon)
		if err != nil {
			return toHTTPError(err)
		}

		return c.JSON(newAssessmentResponse(sessionID, a))
	}
}

// sessionState godoc
// @Summary Current state of a session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} assess.SessionState
// @Failure 404 {object} errorResponse
// @Router /api/v1/sessions/{id} [get]
func sessionState(service Assessor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		state, err := service.State(c.Params("id"))
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(state)
	}
}

// cityQuery holds query parameters for a city lookup.
type cityQuery struct {
	City string `validate:"required,max=200"`
}

func parseCityQuery(c *fiber.Ctx) (cityQuery, error) {
	q := cityQuery{City: strings.TrimSpace(c.Query("city"))}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// pointQuery holds query parameters for a map point.
type pointQuery struct {
	Lat *float64 `validate:"required,gte=-90,lte=90"`
	Lon *float64 `validate:"required,gte=-180,lte=180"`
}

func parsePointQuery(c *fiber.Ctx) (pointQuery, error) {
	var q pointQuery

	lat, err := parseOptionalFloat(c.Query("lat"), "lat")
	if err != nil {
		return q, err
	}
	lon, err := parseOptionalFloat(c.Query("lon"), "lon")
	if err != nil {
		return q, err
	}
	q.Lat, q.Lon = lat, lon

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

func parseOptionalFloat(s, name string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, errors.New("invalid " + name + " format")
	}
	return &v, nil
}

func sessionIDFrom(c *fiber.Ctx) string {
	id := strings.TrimSpace(c.Get(SessionHeader))
	if id == "" || len(id) > 64 {
		id = uuid.NewString()
	}
	c.Set(SessionHeader, id)
	return id
}

type errorResponse struct {
	Error   bool   `json:"error" example:"true"`
	Message string `json:"message" example:"Unknown location. Please try again."`
}

type predictionResponse struct {
	FloodRisk         risk.Level    `json:"floodRisk" example:"High"`
	Confidence        float64       `json:"confidence" example:"0.8"`
	ConfidencePercent float64       `json:"confidencePercent" example:"80"`
	Factors           []risk.Factor `json:"factors"`
	Source            risk.Source   `json:"source" example:"rules"`
}

type assessmentResponse struct {
	SessionID       string             `json:"sessionId"`
	Location        string             `json:"location" example:"Kuala Lumpur"`
	Latitude        float64            `json:"latitude" example:"3.139"`
	Longitude       float64            `json:"longitude" example:"101.6869"`
	ResolvedAddress string             `json:"resolvedAddress"`
	Today           weather.DayRecord  `json:"today"`
	Alerts          []weather.Alert    `json:"alerts,omitempty"`
	Prediction      predictionResponse `json:"prediction"`
}

// newAssessmentResponse is the only place confidence becomes a percentage.
func newAssessmentResponse(sessionID string, a assess.Assessment) assessmentResponse {
	return assessmentResponse{
		SessionID:       sessionID,
		Location:        a.Location,
		Latitude:        a.Latitude,
		Longitude:       a.Longitude,
		ResolvedAddress: a.ResolvedAddress,
		Today:           a.Today,
		Alerts:          a.Alerts,
		Prediction: predictionResponse{
			FloodRisk:         a.Prediction.FloodRisk,
			Confidence:        a.Prediction.Confidence,
			ConfidencePercent: math.Round(a.Prediction.Confidence*10000) / 100,
			Factors:           a.Prediction.Factors,
			Source:            a.Prediction.Source,
		},
	}
}
