package relay

import (
	"fmt"
	"time"
)

// LatencySample is the receive and send-completion instants of one forwarded packet.
type LatencySample struct {
	Received time.Time
	Sent     time.Time
}

// Elapsed returns Sent - Received, never negative.
func (s LatencySample) Elapsed() time.Duration {
	d := s.Sent.Sub(s.Received)
	if d < 0 {
		return 0
	}
	return d
}

// ElapsedMillis returns Elapsed in milliseconds with microsecond resolution.
func (s LatencySample) ElapsedMillis() float64 {
	return float64(s.Elapsed().Microseconds()) / 1000.0
}

// FormatHex renders data as space separated upper-case hex pairs, e.g. "90 3C 7F".
func FormatHex(data []byte) string {
	return fmt.Sprintf("% X", data)
}
