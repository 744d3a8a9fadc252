package entities

// ConnectionStatus is the lifecycle state of a roster session
type ConnectionStatus int

const (
	StatusNotConnected ConnectionStatus = iota
	StatusConnecting
	StatusConnected
	StatusFailed
)

func (s ConnectionStatus) String() string {
	switch s {
	case StatusConnecting:
		return "CONNECTING"
	case StatusConnected:
		return "CONNECTED"
	case StatusFailed:
		return "FAILED"
	default:
		return "NOT CONNECTED"
	}
}

// MarshalText implements encoding.TextMarshaler
func (s ConnectionStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
