package leitner

import (
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidOutcome is returned when an outcome is not one of the four
// recognized values. Check with errors.Is.
var ErrInvalidOutcome = errors.New("leitner: invalid outcome")

// Outcome is the user's self-assessment of recall difficulty for one card in
// one review.
type Outcome int

const (
	Again Outcome = iota + 1 // Failed to recall.
	Hard                     // Recalled with significant difficulty.
	Good                     // Recalled with some effort.
	Easy                     // Recalled effortlessly.
)

var (
	outcomeNames = [...]string{Again: "again", Hard: "hard", Good: "good", Easy: "easy"}

	outcomeByName = map[string]Outcome{
		"again": Again,
		"hard":  Hard,
		"good":  Good,
		"easy":  Easy,
	}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = Outcome(0)
	_ json.Marshaler           = Outcome(0)
	_ json.Unmarshaler         = (*Outcome)(nil)
	_ encoding.TextMarshaler   = Outcome(0)
	_ encoding.TextUnmarshaler = (*Outcome)(nil)
)

// Outcomes lists all valid outcomes in box order.
func Outcomes() []Outcome {
	return []Outcome{Again, Hard, Good, Easy}
}

// ParseOutcome maps the wire form ("again", "hard", "good", "easy") to an
// Outcome.
func ParseOutcome(s string) (Outcome, error) {
	o, ok := outcomeByName[s]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOutcome, s)
	}
	return o, nil
}

// IsValid reports whether o is one of the four recognized outcomes.
func (o Outcome) IsValid() bool {
	return o >= Again && o <= Easy
}

// String returns the lowercase name of the outcome. For invalid values it
// returns "Outcome(n)".
func (o Outcome) String() string {
	if o.IsValid() {
		return outcomeNames[o]
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	if !o.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOutcome, int(o))
	}
	return []byte(outcomeNames[o]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outcome) UnmarshalText(text []byte) error {
	v, err := ParseOutcome(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// MarshalJSON implements json.Marshaler. Outcome serializes as a JSON string.
func (o Outcome) MarshalJSON() ([]byte, error) {
	text, err := o.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler. Expects a JSON string.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidOutcome, data)
	}
	return o.UnmarshalText([]byte(s))
}
