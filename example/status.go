package example

import "fmt"

// Status represents the terminal state of an executed example.
type Status int

const (
	// Passed indicates the example returned normally.
	Passed Status = iota

	// Failed indicates the example returned an error or panicked.
	Failed

	// Skipped indicates the example never ran because a producer
	// did not pass.
	Skipped
)

// String returns a human-readable representation of the Status
func (s Status) String() string {
	switch s {
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// ParseStatus converts the textual form produced by String back to a Status.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "passed":
		return Passed, nil
	case "failed":
		return Failed, nil
	case "skipped":
		return Skipped, nil
	default:
		return 0, fmt.Errorf("unknown status %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
