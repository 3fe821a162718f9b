package models

import "time"

type Violator struct {
	TrailerID     string  `json:"trailerId"`
	TrailerNumber string  `json:"trailerNumber,omitempty"`
	Carrier       string  `json:"carrier"`
	DoorNumber    *int    `json:"doorNumber"`
	Dwell         float64 `json:"dwell"`
}

// DailyStat is the dwell aggregate of one local calendar day, keyed by Date (YYYY-MM-DD).
type DailyStat struct {
	Date         string     `json:"date"`
	AvgDwell     float64    `json:"avgDwell"`
	MaxDwell     float64    `json:"maxDwell"`
	Count        int        `json:"count"`
	Violations   int        `json:"violations"`
	Violators    []Violator `json:"violators"`
	CalculatedAt time.Time  `json:"calculatedAt"`
}

// DateLayout is the ISO date key of analytics records.
const DateLayout = "2006-01-02"

// CurrentViolation is one row of the real-time dwell violation view.
type CurrentViolation struct {
	TrailerID     string    `json:"trailerId"`
	TrailerNumber string    `json:"trailerNumber,omitempty"`
	Carrier       string    `json:"carrier"`
	DoorID        string    `json:"doorId"`
	DoorNumber    *int      `json:"doorNumber"`
	Since         time.Time `json:"since"`
	DwellHours    float64   `json:"dwellHours"`
}
