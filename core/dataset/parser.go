package dataset

import (
	"math"
	"strconv"
	"strings"

	"trackviz/model"
)

// Columns is the header of the track CSV file.
var Columns = []string{"id", "name", "artists", "tempo", "loudness", "energy", "acousticness", "key", "mode"}

// ParseRow converts one raw row, keyed by column name, into a Track.
// Malformed numbers become NaN and unknown codes stay unknown; nothing is rejected.
func ParseRow(row map[string]string) model.Track {
	return model.Track{
		ID:           row["id"],
		Name:         row["name"],
		Artist:       row["artists"],
		Tempo:        parseFloat(row["tempo"]),
		Loudness:     parseFloat(row["loudness"]),
		Energy:       parseFloat(row["energy"]),
		Acousticness: parseFloat(row["acousticness"]),
		Key:          parseKey(row["key"]),
		Mode:         parseMode(row["mode"]),
	}
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// parseKey keeps the numeric code. Out-of-range codes are kept as-is.
func parseKey(s string) model.Key {
	v := parseFloat(s)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return model.KeyUnknown
	}
	return model.Key(math.Trunc(v))
}

func parseMode(s string) model.Mode {
	v := parseFloat(s)
	if math.IsNaN(v) {
		return model.ModeUnknown
	}
	switch math.Trunc(v) {
	case 0:
		return model.ModeMajor
	case 1:
		return model.ModeMinor
	}
	return model.ModeUnknown
}
