package models

import (
	"encoding/json"
	"fmt"
)

// Decision is the enforcement verdict for an address. It is a closed set:
// the three values below are the only ones that exist inside the engine,
// and they are serialized to their lowercase string forms only at the API
// boundary.
type Decision int

const (
	DecisionAllow Decision = iota
	DecisionChallenge
	DecisionBlock
)

// String returns the wire representation of the decision.
func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionChallenge:
		return "challenge"
	case DecisionBlock:
		return "block"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// MarshalJSON serializes the decision as its lowercase string form.
func (d Decision) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON parses the lowercase string form.
func (d *Decision) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDecision(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDecision converts a stored string back into a Decision. Unknown
// strings are an error rather than a silent fourth decision.
func ParseDecision(s string) (Decision, error) {
	switch s {
	case "allow":
		return DecisionAllow, nil
	case "challenge":
		return DecisionChallenge, nil
	case "block":
		return DecisionBlock, nil
	default:
		return DecisionAllow, fmt.Errorf("unknown decision %q", s)
	}
}
