package model

import "time"

type ReduceRequestBody struct {
	Score            Score `json:"score"`
	MaxVoices        int   `json:"max_voices"`
	MinPatternLength int   `json:"min_pattern_length,omitempty"`
}

type ReduceResponse struct {
	ID           string `json:"id"`
	Reduced      Score  `json:"reduced"`
	Dropped      Score  `json:"dropped"`
	Patterns     int    `json:"patterns"`
	DroppedNotes int    `json:"dropped_notes"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}

type ReductionReport struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	MaxVoices    int       `json:"max_voices"`
	Events       int       `json:"events"`
	Chords       int       `json:"chords"`
	DroppedNotes int       `json:"dropped_notes"`
	Patterns     int       `json:"patterns"`
	CreatedAt    time.Time `json:"created_at"`
}
