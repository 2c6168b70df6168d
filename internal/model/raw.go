package model

import (
	"encoding/json"
	"fmt"
)

// RawForecastResponse is the decoded upstream body before normalization.
// Blocks are pointers so a missing "daily" or "hourly" key is distinguishable
// from an empty one; the normalizer rejects missing blocks.
type RawForecastResponse struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timezone  string    `json:"timezone"`
	Daily     *RawBlock `json:"daily"`
	Hourly    *RawBlock `json:"hourly"`
}

// RawBlock is one cadence group of the response: a time array plus one value
// array per field, all expected to be the same length. Null entries are kept
// as nil pointers so the normalizer can reject them instead of inventing
// values.
type RawBlock struct {
	Time   []string
	Fields map[string][]*float64
}

// UnmarshalJSON splits the block into the time sequence and the per-field
// value sequences without assuming a fixed field set.
func (b *RawBlock) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	b.Fields = make(map[string][]*float64, len(raw))
	for name, msg := range raw {
		if name == "time" {
			if err := json.Unmarshal(msg, &b.Time); err != nil {
				return fmt.Errorf("decode time sequence: %w", err)
			}
			continue
		}
		var vals []*float64
		if err := json.Unmarshal(msg, &vals); err != nil {
			// Non-sequence members (e.g. unit metadata) are not chartable; skip.
			continue
		}
		b.Fields[name] = vals
	}
	return nil
}
