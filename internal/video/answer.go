package video

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Answer is the result of one question-answering exchange.
type Answer struct {
	Text       string     `json:"answer"`
	Confidence Confidence `json:"confidence"`
}

// Confidence is the service's fractional confidence. Some deployments send it
// as a JSON string, so decoding accepts either form. Values are not clamped.
type Confidence struct {
	Value float64
	Known bool
}

// NewConfidence wraps a known confidence value.
func NewConfidence(value float64) Confidence {
	return Confidence{Value: value, Known: true}
}

// Percent renders the confidence as round(value*100) followed by a percent
// sign, or "n/a" when the service did not supply one or it is not finite.
func (c Confidence) Percent() string {
	if !c.Known || !finite(c.Value) {
		return "n/a"
	}
	return fmt.Sprintf("%.0f%%", math.Round(c.Value*100))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// UnmarshalJSON accepts a JSON number or a numeric string. Null, an
// unparsable string, or a non-finite value decodes as unknown.
func (c *Confidence) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = Confidence{}
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("decode confidence: %w", err)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || !finite(value) {
			*c = Confidence{}
			return nil
		}
		*c = NewConfidence(value)
		return nil
	}
	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("decode confidence: %w", err)
	}
	*c = NewConfidence(value)
	return nil
}

// MarshalJSON writes the value as a JSON number, or null when unknown.
func (c Confidence) MarshalJSON() ([]byte, error) {
	if !c.Known || !finite(c.Value) {
		return []byte("null"), nil
	}
	return json.Marshal(c.Value)
}
