package constants

import (
	"os"
	"strconv"
)

func GetOutDir() string {
	path := os.Getenv("OUT_DIR")
	if path != "" {
		return path
	}
	return "./out"
}

func GetMediaDir() string {
	path := os.Getenv("MEDIA_PATH")
	if path != "" {
		return path
	}
	return "."
}

func GetDynamoEndpoint() string {
	endpoint := os.Getenv("DYNAMODB_ENDPOINT")
	if endpoint != "" {
		return endpoint
	}
	return "http://localhost:8000"
}

func GetMinPatternLength() int {
	if v, err := strconv.Atoi(os.Getenv("VOICECUT_MIN_PATTERN_LENGTH")); err == nil && v > 0 {
		return v
	}
	return DefaultMinPatternLength
}

const DefaultMinPatternLength = 5

// the pattern scan is quadratic in the note count
const DefaultMaxPatternNotes = 5000

// longest pattern listed when patterns are shown rather than only used for
// membership
const DefaultMaxPatternLength = 16

// ticks per quarter note for scores we build ourselves
const DefaultResolution = 480

const ReportsTable = "voicecut-reports"

const DroppedNoteColor = "#FF0000"

const DroppedSuffix = "_dropped"
