package domain

import "time"

// Measurement is a single calibrated weight observation.
type Measurement struct {
	// Kilograms is the calibrated weight.
	Kilograms float64 `json:"kilograms"`

	// TakenAt is when the reading was taken.
	TakenAt time.Time `json:"taken_at"`
}
