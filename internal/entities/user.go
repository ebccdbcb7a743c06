package entities

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedPreferences is returned when stored preference text cannot be parsed
var ErrMalformedPreferences = errors.New("malformed alert preferences")

// User is a notification recipient affiliated with a location
type User struct {
	ID          int64
	Name        string
	Email       string
	Phone       string // Contact channel: phone number or messenger chat id
	UserType    string // farmer, CFA member, admin
	LocationID  int64
	Preferences string // Raw JSON object of alert type -> bool, may be empty
}

// Preferences maps an alert type to an explicit opt-in or opt-out.
// Absent types are opted in.
type Preferences map[AlertType]bool

// Allows reports whether alerts of type t may be delivered
func (p Preferences) Allows(t AlertType) bool {
	enabled, ok := p[t]
	return !ok || enabled
}

// ParsePreferences decodes the stored preference text. Empty text yields no preferences.
// Keys outside the known alert types are ignored.
//
// On ErrMalformedPreferences the returned map is still usable: a document that is
// not a JSON object yields no preferences, and a known type with a non-boolean
// value is left out while the valid entries are kept.
func ParsePreferences(raw string) (Preferences, error) {
	prefs := Preferences{}
	if strings.TrimSpace(raw) == "" {
		return prefs, nil
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return prefs, fmt.Errorf("%w: %v", ErrMalformedPreferences, err)
	}

	var bad []string
	for _, t := range AlertTypes {
		value, ok := decoded[string(t)]
		if !ok {
			continue
		}
		var enabled *bool
		if err := json.Unmarshal(value, &enabled); err != nil || enabled == nil {
			bad = append(bad, string(t))
			continue
		}
		prefs[t] = *enabled
	}

	if len(bad) > 0 {
		return prefs, fmt.Errorf("%w: non-boolean value for %s", ErrMalformedPreferences, strings.Join(bad, ", "))
	}
	return prefs, nil
}

// Encode serializes preferences to the stored JSON form
func (p Preferences) Encode() string {
	out := make(map[string]bool, len(p))
	for t, v := range p {
		out[string(t)] = v
	}
	data, _ := json.Marshal(out) // map[string]bool always marshals
	return string(data)
}
