package domain

import (
	"errors"
	"time"
)

// Status is the outcome of one data category for one query.
type Status string

const (
	StatusOK               Status = "ok"
	StatusUnavailable      Status = "unavailable"
	StatusAllSourcesFailed Status = "all_sources_failed"
	// StatusNone means the category answered with nothing to show, e.g. no
	// active alert or no hazard event within the radius.
	StatusNone Status = "none"
)

// Result is a category-scoped outcome. Value is set only when Status is ok.
// Err keeps the underlying failure for logging and is never serialized.
type Result[T any] struct {
	Value   *T     `json:"value,omitempty"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Err     error  `json:"-"`
}

// OK wraps a successful value.
func OK[T any](v T) Result[T] {
	return Result[T]{Value: &v, Status: StatusOK}
}

// None builds an empty-but-successful result.
func None[T any](msg string) Result[T] {
	return Result[T]{Status: StatusNone, Message: msg}
}

// Failed converts err into the matching failure status with a neutral message.
func Failed[T any](err error, msg string) Result[T] {
	status := StatusUnavailable
	if errors.Is(err, ErrAllSourcesFailed) {
		status = StatusAllSourcesFailed
	}
	return Result[T]{Status: status, Message: msg, Err: err}
}

// Map transforms an ok value and carries any other status through unchanged.
func Map[T, U any](r Result[T], f func(T) U) Result[U] {
	if r.Status != StatusOK || r.Value == nil {
		return Result[U]{Status: r.Status, Message: r.Message, Err: r.Err}
	}
	return OK(f(*r.Value))
}

// RiskReport pairs an assessment with the forecast it was derived from.
type RiskReport struct {
	Assessment RiskAssessment `json:"assessment"`
	Banner     RiskBanner     `json:"banner"`
	Message    string         `json:"message"`
	Forecast   Forecast       `json:"forecast"`
}

// AirQualityReport is a reading plus its display label.
type AirQualityReport struct {
	Reading AirQualityReading `json:"reading"`
	Label   string            `json:"label"`
}

// QueryResult aggregates the independent per-category outcomes of one query.
type QueryResult struct {
	Sequence    uint64                   `json:"sequence"`
	Location    LocationQuery            `json:"location"`
	Weather     Result[WeatherReading]   `json:"weather"`
	Risk        Result[RiskReport]       `json:"risk"`
	AirQuality  Result[AirQualityReport] `json:"air_quality"`
	Alert       Result[AlertEvent]       `json:"alert"`
	Proximity   Result[ProximityAlert]   `json:"proximity"`
	CompletedAt time.Time                `json:"completed_at"`
}
