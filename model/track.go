package model

import (
	"encoding/json"
	"math"
	"time"
)

// Track represents one row of the track dataset.
// Numeric fields may be NaN when the source text was malformed.
type Track struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Artist       string  `json:"artist"`
	Tempo        float64 `json:"tempo"`
	Loudness     float64 `json:"loudness"`
	Energy       float64 `json:"energy"`
	Acousticness float64 `json:"acousticness"`
	Key          Key     `json:"key"`
	Mode         Mode    `json:"mode"`
}

// TrackResponse is the API form of a Track. NaN values become null.
type TrackResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Artist       string   `json:"artist"`
	Tempo        *float64 `json:"tempo"`
	Loudness     *float64 `json:"loudness"`
	Energy       *float64 `json:"energy"`
	Acousticness *float64 `json:"acousticness"`
	Key          int      `json:"key"`
	KeyName      string   `json:"keyName"`
	Mode         Mode     `json:"mode"`
}

// ToResponse 转换为响应格式
func (t Track) ToResponse() TrackResponse {
	return TrackResponse{
		ID:           t.ID,
		Name:         t.Name,
		Artist:       t.Artist,
		Tempo:        finite(t.Tempo),
		Loudness:     finite(t.Loudness),
		Energy:       finite(t.Energy),
		Acousticness: finite(t.Acousticness),
		Key:          int(t.Key),
		KeyName:      t.Key.Name(),
		Mode:         t.Mode,
	}
}

// TrackRecord is the database row for a Track.
type TrackRecord struct {
	ID           string   `gorm:"primaryKey;size:64"`
	Position     int      `gorm:"index"` // dataset order
	Name         string   `gorm:"size:512"`
	Artist       string   `gorm:"size:1024"`
	Tempo        *float64 // NULL for NaN
	Loudness     *float64
	Energy       *float64
	Acousticness *float64
	KeyCode      int
	ModeCode     int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName 指定表名
func (TrackRecord) TableName() string {
	return "tracks"
}

// NewTrackRecord converts a Track into its row form.
func NewTrackRecord(t Track, position int) TrackRecord {
	return TrackRecord{
		ID:           t.ID,
		Position:     position,
		Name:         t.Name,
		Artist:       t.Artist,
		Tempo:        finite(t.Tempo),
		Loudness:     finite(t.Loudness),
		Energy:       finite(t.Energy),
		Acousticness: finite(t.Acousticness),
		KeyCode:      int(t.Key),
		ModeCode:     int(t.Mode),
	}
}

// Track converts the row back, restoring NULL columns as NaN.
func (r TrackRecord) Track() Track {
	return Track{
		ID:           r.ID,
		Name:         r.Name,
		Artist:       r.Artist,
		Tempo:        orNaN(r.Tempo),
		Loudness:     orNaN(r.Loudness),
		Energy:       orNaN(r.Energy),
		Acousticness: orNaN(r.Acousticness),
		Key:          Key(r.KeyCode),
		Mode:         Mode(r.ModeCode),
	}
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// Key is a pitch-class code. Only 0 through 11 have names.
type Key int

// KeyUnknown is used when the key column cannot be parsed.
const KeyUnknown Key = -1

var pitchClasses = [12]string{"C", "C♯", "D", "E♭", "E", "F", "F♯", "G", "A♭", "A", "B♭", "B"}

// Name returns the pitch-class name, or "" for codes outside 0-11.
func (k Key) Name() string {
	if k < 0 || int(k) >= len(pitchClasses) {
		return ""
	}
	return pitchClasses[k]
}

// Mode is the modality code of a track.
type Mode int

const (
	ModeMajor   Mode = 0
	ModeMinor   Mode = 1
	ModeUnknown Mode = -1
)

// String returns "major", "minor", or "" for any other code.
func (m Mode) String() string {
	switch m {
	case ModeMajor:
		return "major"
	case ModeMinor:
		return "minor"
	}
	return ""
}

func (m Mode) MarshalJSON() ([]byte, error) {
	s := m.String()
	if s == "" {
		return []byte("null"), nil
	}
	return json.Marshal(s)
}

func (m *Mode) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch {
	case s == nil:
		*m = ModeUnknown
	case *s == "major":
		*m = ModeMajor
	case *s == "minor":
		*m = ModeMinor
	default:
		*m = ModeUnknown
	}
	return nil
}
