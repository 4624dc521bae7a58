package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ExtractedPosition is the untrusted shape a language model returns for one position.
// Every field decodes leniently so that one bad value does not discard the rest.
type ExtractedPosition struct {
	Position        LooseString `json:"position"`
	Applied         Date        `json:"applied"`
	AptitudeTest    Date        `json:"aptitude_test"`
	SimulationTest  Date        `json:"simulation_test"`
	CodingTest      Date        `json:"coding_test"`
	VideoInterview  Date        `json:"video_interview"`
	HumanInterviews LooseInt    `json:"human_interviews"`
	Status          LooseString `json:"status"`
}

// LooseString accepts a JSON string, null, or a scalar and never fails.
// The literal "null" collapses to empty.
type LooseString string

// UnmarshalJSON implements json.Unmarshaler
func (s *LooseString) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		*s = ""
		return nil
	}
	switch v := raw.(type) {
	case string:
		v = strings.TrimSpace(v)
		if strings.EqualFold(v, "null") {
			v = ""
		}
		*s = LooseString(v)
	case float64:
		*s = LooseString(strconv.FormatFloat(v, 'f', -1, 64))
	default:
		*s = ""
	}
	return nil
}

// LooseInt accepts a JSON number, a numeric string, or null. Negative and
// unparseable values decode to zero.
type LooseInt int

// UnmarshalJSON implements json.Unmarshaler
func (n *LooseInt) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		*n = 0
		return nil
	}
	var v int
	switch t := raw.(type) {
	case float64:
		v = int(t)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(t))
		if err == nil {
			v = parsed
		}
	}
	if v < 0 {
		v = 0
	}
	*n = LooseInt(v)
	return nil
}
