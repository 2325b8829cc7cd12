package midiwindows

// messageLength returns the byte count of the short message that starts with
// status, or 0 for statuses that never travel as short messages.
func messageLength(status byte) int {
	switch {
	case status < 0x80:
		return 0
	case status < 0xC0, status >= 0xE0 && status < 0xF0:
		return 3
	case status < 0xE0:
		return 2
	}
	switch status {
	case 0xF1, 0xF3:
		return 2
	case 0xF2:
		return 3
	case 0xF6, 0xF8, 0xF9, 0xFA, 0xFB, 0xFC, 0xFD, 0xFE, 0xFF:
		return 1
	}
	return 0
}

// unpackShortMessage splits the dwParam1 of MIM_DATA into its message bytes.
func unpackShortMessage(packed uint32) []byte {
	status := byte(packed & 0xFF)
	n := messageLength(status)
	if n == 0 {
		return nil
	}
	data := []byte{status, byte((packed >> 8) & 0xFF), byte((packed >> 16) & 0xFF)}
	return data[:n]
}

// packShortMessage builds the dwMsg argument of midiOutShortMsg.
func packShortMessage(data []byte) uint32 {
	var packed uint32
	for i := 0; i < len(data) && i < 3; i++ {
		packed |= uint32(data[i]) << (8 * i)
	}
	return packed
}
