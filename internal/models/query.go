package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/desertthunder/mrd/internal/shared"
)

// MinSongNameLength is the shortest song name the song form accepts.
const MinSongNameLength = 3

// FeatureStep is the precision of every numeric feature.
const FeatureStep = 0.001

// SongQuery is the input of the song-name form.
type SongQuery string

// Validate rejects names shorter than [MinSongNameLength] characters.
func (q SongQuery) Validate() error {
	name := strings.TrimSpace(string(q))
	if name == "" {
		return fmt.Errorf("%w: song name is required", shared.ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) < MinSongNameLength {
		return fmt.Errorf("%w: song name must be at least %d characters", shared.ErrInvalidInput, MinSongNameLength)
	}
	return nil
}

// FeatureField describes one numeric input of the values form.
type FeatureField struct {
	Name          string
	Label         string
	Min           float64
	Max           float64
	AllowNegative bool
}

// Placeholder is the hint shown in an empty input.
func (f FeatureField) Placeholder() string {
	return fmt.Sprintf("%s (%s to %s)", f.Label, formatBound(f.Min), formatBound(f.Max))
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// FeatureFields lists the eight audio features in form order.
var FeatureFields = []FeatureField{
	{Name: "danceability", Label: "Danceability", Min: 0, Max: 1},
	{Name: "energy", Label: "Energy", Min: 0, Max: 1},
	{Name: "loudness", Label: "Loudness(dB)", Min: -49.5, Max: 4.5, AllowNegative: true},
	{Name: "speechiness", Label: "Speechiness", Min: 0, Max: 1},
	{Name: "acousticness", Label: "Acousticness", Min: 0, Max: 1},
	{Name: "instrumentalness", Label: "Instrumentalness", Min: 0, Max: 1},
	{Name: "liveness", Label: "Liveness", Min: 0, Max: 1},
	{Name: "valence", Label: "Valence", Min: 0, Max: 1},
}

// LookupFeature returns the field definition for name.
func LookupFeature(name string) (FeatureField, bool) {
	for _, f := range FeatureFields {
		if f.Name == name {
			return f, true
		}
	}
	return FeatureField{}, false
}

// ValueQuery is the eight-field record posted to /recommend_by_values.
type ValueQuery struct {
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Loudness         float64 `json:"loudness"`
	Speechiness      float64 `json:"speechiness"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Valence          float64 `json:"valence"`
}

// field returns a pointer to the struct field backing name.
func (v *ValueQuery) field(name string) *float64 {
	switch name {
	case "danceability":
		return &v.Danceability
	case "energy":
		return &v.Energy
	case "loudness":
		return &v.Loudness
	case "speechiness":
		return &v.Speechiness
	case "acousticness":
		return &v.Acousticness
	case "instrumentalness":
		return &v.Instrumentalness
	case "liveness":
		return &v.Liveness
	case "valence":
		return &v.Valence
	}
	return nil
}

// Get returns the value of the named feature.
func (v ValueQuery) Get(name string) float64 {
	if p := v.field(name); p != nil {
		return *p
	}
	return math.NaN()
}

// Validate checks every field against its range.
func (v ValueQuery) Validate() error {
	for _, f := range FeatureFields {
		if err := f.check(v.Get(f.Name)); err != nil {
			return err
		}
	}
	return nil
}

func (f FeatureField) check(val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%w: %s must be a number", shared.ErrInvalidInput, f.Name)
	}
	if val < f.Min || val > f.Max {
		return fmt.Errorf("%w: %s must be between %s and %s", shared.ErrInvalidInput, f.Name, formatBound(f.Min), formatBound(f.Max))
	}
	return nil
}

// ParseFeature parses and range-checks raw input for a single field.
//
// The value must have at most three decimal places.
func (f FeatureField) ParseFeature(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is required", shared.ErrInvalidInput, f.Name)
	}

	if MaskNumeric(raw, f.AllowNegative) != raw {
		return 0, fmt.Errorf("%w: %s must be a plain decimal number", shared.ErrInvalidInput, f.Name)
	}

	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", shared.ErrInvalidInput, f.Name)
	}

	if _, frac, ok := strings.Cut(raw, "."); ok && len(frac) > 3 {
		return 0, fmt.Errorf("%w: %s allows at most three decimal places", shared.ErrInvalidInput, f.Name)
	}

	if err := f.check(val); err != nil {
		return 0, err
	}
	return val, nil
}

// ParseValueQuery builds a [ValueQuery] from raw form strings keyed by feature name.
//
// All eight fields must be present; the first invalid field is reported.
func ParseValueQuery(raw map[string]string) (ValueQuery, error) {
	var v ValueQuery
	for _, f := range FeatureFields {
		val, err := f.ParseFeature(raw[f.Name])
		if err != nil {
			return ValueQuery{}, err
		}
		*v.field(f.Name) = val
	}
	return v, nil
}

// Strings renders the query back into form strings.
func (v ValueQuery) Strings() map[string]string {
	out := make(map[string]string, len(FeatureFields))
	for _, f := range FeatureFields {
		out[f.Name] = strconv.FormatFloat(v.Get(f.Name), 'f', -1, 64)
	}
	return out
}

// ValidateGenre rejects identifiers outside the [Genres] catalog.
func ValidateGenre(genre string) error {
	if genre == "" {
		return fmt.Errorf("%w: genre is required", shared.ErrInvalidInput)
	}
	if !IsGenre(genre) {
		return fmt.Errorf("%w: unknown genre %q", shared.ErrInvalidInput, genre)
	}
	return nil
}
