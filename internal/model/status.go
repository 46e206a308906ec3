package model

// Status is the connection state of a live feed session.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
)

// String returns the wire/display name of the status.
func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "Connecting"
	case StatusConnected:
		return "Connected"
	default:
		return "Disconnected"
	}
}

// MarshalJSON serializes the status as its display name.
func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON parses a display name back into a Status. Unknown names map
// to Disconnected.
func (s *Status) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"Connecting"`:
		*s = StatusConnecting
	case `"Connected"`:
		*s = StatusConnected
	default:
		*s = StatusDisconnected
	}
	return nil
}
