package domain

import "time"

// Catch is a logged fish. It is written by the logbook before the engine sees it.
type Catch struct {
	ID               string     `json:"id" validate:"required"`
	AccountID        string     `json:"account_id" validate:"required"`
	Species          string     `json:"species" validate:"required,notblank,max=120"`
	WeightKg         *float64   `json:"weight_kg,omitempty" validate:"omitempty,gte=0,lte=1500"`
	HasPhoto         bool       `json:"has_photo"`
	CaughtAt         time.Time  `json:"caught_at" validate:"required"`
	SessionID        *string    `json:"session_id,omitempty"`
	Latitude         *float64   `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude        *float64   `json:"longitude,omitempty" validate:"omitempty,longitude"`
	WeatherCondition *string    `json:"weather_condition,omitempty"`
	WindSpeed        *float64   `json:"wind_speed,omitempty" validate:"omitempty,gte=0"`
	MoonPhase        *string    `json:"moon_phase,omitempty"`
	CountryCode      *string    `json:"country_code,omitempty" validate:"omitempty,iso3166_1_alpha2"`
	CreatedAt        time.Time  `json:"created_at"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are present.
func (c Catch) HasCoordinates() bool {
	return c.Latitude != nil && c.Longitude != nil
}

// Session is a fishing trip that groups catches.
type Session struct {
	ID        string     `json:"id" validate:"required"`
	AccountID string     `json:"account_id" validate:"required"`
	StartedAt time.Time  `json:"started_at" validate:"required"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// DurationMinutes returns the session length, or 0 while it is still open.
func (s Session) DurationMinutes() float64 {
	if s.EndedAt == nil || s.EndedAt.Before(s.StartedAt) {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt).Minutes()
}

// SpeciesInfo is a species catalog entry.
type SpeciesInfo struct {
	Name             string  `json:"name"`
	SpecimenWeightLb float64 `json:"specimen_weight_lb"`
}

// WeeklySpeciesBonus grants extra points for a featured species during one ISO week.
type WeeklySpeciesBonus struct {
	Species   string    `json:"species"`
	WeekStart time.Time `json:"week_start"`
	Points    int       `json:"points"`
}
