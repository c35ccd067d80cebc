package feed

import (
	"encoding/json"
	"strconv"
	"strings"
)

// The feed emits numbers and ids inconsistently as JSON numbers or
// strings. The loose types coerce both forms and record an explicit
// unparseable marker instead of erroring mid-parse, so one bad field
// never aborts the decode of the whole payload.

type looseString struct {
	Value string
	Valid bool
}

func (l *looseString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		l.Value = strings.TrimSpace(s)
		l.Valid = true
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		l.Value = n.String()
		l.Valid = true
		return nil
	}
	*l = looseString{}
	return nil
}

type looseInt struct {
	Value int
	Valid bool
}

func (l *looseInt) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		l.Value = n
		l.Valid = true
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			l.Value = v
			l.Valid = true
			return nil
		}
	}
	*l = looseInt{}
	return nil
}
