package risk

import (
	"github.com/i474232898/flood-risk/internal/weather"
)

// ModelInput is the flat feature vector the inference endpoint expects.
// Field names match the endpoint's JSON schema.
type ModelInput struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Precipitation  float64 `json:"precipitation"`
	Humidity       float64 `json:"humidity"`
	Temperature    float64 `json:"temperature"`
	WindSpeed      float64 `json:"windSpeed"`
	Pressure       float64 `json:"pressure"`
	CloudCover     float64 `json:"cloudCover"`
	Visibility     float64 `json:"visibility"`
	SevereRisk     float64 `json:"severerisk"`
	SolarRadiation float64 `json:"solarradiation"`
	SolarEnergy    float64 `json:"solarenergy"`
	UVIndex        float64 `json:"uvindex"`
	MoonPhase      float64 `json:"moonphase"`
	SnowDepth      float64 `json:"snowdepth"`
	Snow           float64 `json:"snow"`
	PrecipProb     float64 `json:"precipprob"`
	WindDir        float64 `json:"winddir"`
	Elevation      float64 `json:"elevation"`
	SoilMoisture   float64 `json:"soilMoisture"`
}

// Defaults substituted for optional fields the provider did not report.
const (
	DefaultModelPressure   = 1013.0
	DefaultModelVisibility = 10.0
)

// Placeholders are stand-ins for inputs no live measurement provides.
type Placeholders struct {
	Elevation    float64
	SoilMoisture float64
}

// DefaultPlaceholders returns elevation 10 and soil moisture 0.2.
func DefaultPlaceholders() Placeholders {
	return Placeholders{Elevation: 10, SoilMoisture: 0.2}
}

// Adapter projects a snapshot onto ModelInput.
type Adapter struct {
	placeholders Placeholders
}

func NewAdapter(p Placeholders) Adapter {
	return Adapter{placeholders: p}
}

// ToModelInput maps today's record. It only fails on an empty snapshot.
func (a Adapter) ToModelInput(snapshot weather.Snapshot) (ModelInput, error) {
	day, ok := snapshot.Today()
	if !ok {
		return ModelInput{}, ErrEmptySnapshot
	}

	return ModelInput{
		Latitude:       snapshot.Latitude,
		Longitude:      snapshot.Longitude,
		Precipitation:  day.Precip,
		Humidity:       day.Humidity,
		Temperature:    day.Temperature,
		WindSpeed:      weather.ValueOr(day.WindSpeed, 0),
		Pressure:       weather.ValueOr(day.Pressure, DefaultModelPressure),
		CloudCover:     weather.ValueOr(day.CloudCover, 0),
		Visibility:     weather.ValueOr(day.Visibility, DefaultModelVisibility),
		SevereRisk:     weather.ValueOr(day.SevereRisk, 0),
		SolarRadiation: weather.ValueOr(day.SolarRadiation, 0),
		SolarEnergy:    weather.ValueOr(day.SolarEnergy, 0),
		UVIndex:        weather.ValueOr(day.UVIndex, 0),
		MoonPhase:      weather.ValueOr(day.MoonPhase, 0),
		SnowDepth:      weather.ValueOr(day.SnowDepth, 0),
		Snow:           weather.ValueOr(day.Snow, 0),
		PrecipProb:     weather.ValueOr(day.PrecipProb, 0),
		WindDir:        weather.ValueOr(day.WindDir, 0),
		Elevation:      a.placeholders.Elevation,
		SoilMoisture:   a.placeholders.SoilMoisture,
	}, nil
}

// DayRecord rebuilds the four fields the rule scorer reads.
func (in ModelInput) DayRecord() weather.DayRecord {
	return weather.DayRecord{
		Temperature: in.Temperature,
		Precip:      in.Precipitation,
		Humidity:    in.Humidity,
		Pressure:    weather.Float(in.Pressure),
		WindSpeed:   weather.Float(in.WindSpeed),
	}
}
