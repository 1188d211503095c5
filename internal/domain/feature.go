package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// ColorVectorDim is the fixed length of a color vector: 5 swatch slots times
// one normalized Lab triple each. A vector is either absent or exactly this long.
const ColorVectorDim = 15

// MaxPaletteSize is the maximum number of swatches kept per palette.
const MaxPaletteSize = 5

// Colorfulness is the tri-state distinctiveness flag for a place's color signal.
// The empty string means extraction has not run or did not produce color data.
type Colorfulness string

const (
	ColorfulnessUnanalyzed     Colorfulness = ""
	ColorfulnessDistinctive    Colorfulness = "distinctive"
	ColorfulnessNotDistinctive Colorfulness = "not_distinctive"
)

// Known reports whether the flag carries an actual classification.
func (c Colorfulness) Known() bool {
	return c == ColorfulnessDistinctive || c == ColorfulnessNotDistinctive
}

// Swatch is one dominant color extracted from a photo, with its relative
// population weight. Lab is filled in by the engine, not the extractor.
type Swatch struct {
	Hex        string     `json:"hex"`
	RGB        [3]int     `json:"rgb"`
	Lab        [3]float64 `json:"lab"`
	Population int        `json:"population"`
}

// Palette is an ordered swatch list, descending by population, stored as JSON.
type Palette []Swatch

// Value implements the driver.Valuer interface for database serialization.
// Parameters: none.
// Returns:
//   - driver.Value: JSON-encoded representation of the palette, nil when empty.
//   - error: non-nil if marshaling fails.
func (p Palette) Value() (driver.Value, error) {
	if len(p) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
// Parameters:
//   - value: raw database value to decode.
// Returns:
//   - error: non-nil if decoding fails or the type is unexpected.
func (p *Palette) Scan(value interface{}) error {
	if value == nil {
		*p = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan Palette")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, p)
}

// ColorVector is the fixed-length normalized color fingerprint, stored as JSON.
// All values lie in [0,1].
type ColorVector []float64

// Value implements the driver.Valuer interface for database serialization.
func (v ColorVector) Value() (driver.Value, error) {
	if len(v) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (v *ColorVector) Scan(value interface{}) error {
	if value == nil {
		*v = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan ColorVector")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, v)
}
