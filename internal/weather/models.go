package weather

// Snapshot is one fetched weather observation for a location. Days are
// ordered; Days[0] is today and the only record used for scoring.
type Snapshot struct {
	Latitude        float64     `json:"latitude"`
	Longitude       float64     `json:"longitude"`
	ResolvedAddress string      `json:"resolvedAddress"`
	Days            []DayRecord `json:"days"`
	Alerts          []Alert     `json:"alerts,omitempty"`
}

// Today returns the first day record, or false when the snapshot is empty.
func (s Snapshot) Today() (DayRecord, bool) {
	if len(s.Days) == 0 {
		return DayRecord{}, false
	}
	return s.Days[0], true
}

// DayRecord holds one day of conditions in US units. Optional fields are
// nil when the provider omits them or reports null.
type DayRecord struct {
	Datetime    string  `json:"datetime"`
	Temperature float64 `json:"temp"`
	Precip      float64 `json:"precip"`
	Humidity    float64 `json:"humidity"`

	WindSpeed      *float64 `json:"windspeed,omitempty"`
	WindDir        *float64 `json:"winddir,omitempty"`
	Pressure       *float64 `json:"pressure,omitempty"`
	CloudCover     *float64 `json:"cloudcover,omitempty"`
	Visibility     *float64 `json:"visibility,omitempty"`
	SevereRisk     *float64 `json:"severerisk,omitempty"`
	SolarRadiation *float64 `json:"solarradiation,omitempty"`
	SolarEnergy    *float64 `json:"solarenergy,omitempty"`
	UVIndex        *float64 `json:"uvindex,omitempty"`
	MoonPhase      *float64 `json:"moonphase,omitempty"`
	SnowDepth      *float64 `json:"snowdepth,omitempty"`
	Snow           *float64 `json:"snow,omitempty"`
	PrecipProb     *float64 `json:"precipprob,omitempty"`
}

// Alert is a weather alert issued for the location.
type Alert struct {
	Event       string `json:"event"`
	Headline    string `json:"headline"`
	Description string `json:"description,omitempty"`
}

// Float returns a pointer to v, for building optional fields.
func Float(v float64) *float64 {
	return &v
}

// ValueOr dereferences p, returning def when p is nil.
func ValueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
