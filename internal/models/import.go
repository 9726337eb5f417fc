package models

import "time"

// Platforms games can be pulled from.
const (
	PlatformLichess  = "lichess"
	PlatformChessCom = "chesscom"
)

// ImportSummary describes the outcome of one import run.
type ImportSummary struct {
	Source     string    `json:"source"`
	Username   string    `json:"username,omitempty"`
	Parsed     int       `json:"parsed"`
	Imported   int       `json:"imported"`
	IDs        []int64   `json:"ids"`
	FinishedAt time.Time `json:"finishedAt"`
}

// EnrichStats counts what a batch opening classification did.
type EnrichStats struct {
	Scanned   int `json:"scanned"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Missing   int `json:"missing"`
	Failed    int `json:"failed"`
}
