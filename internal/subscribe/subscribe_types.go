package subscribe

import (
	"encoding/binary"
	"syscall"
)

// Linux input event codes, see linux/input-event-codes.h.
const (
	evKey    = 0x01
	btnLeft  = 0x110
	keyPress = 1
)

var (
	timevalSize = binary.Size(syscall.Timeval{})
	// eventSize is sizeof(struct input_event): a timeval followed by
	// type, code and value.
	eventSize = timevalSize + 8
)

type inputEvent struct {
	Type  uint16
	Code  uint16
	Value int32
}

func decodeEvent(b []byte) inputEvent {
	b = b[timevalSize:]
	return inputEvent{
		Type:  binary.NativeEndian.Uint16(b[0:2]),
		Code:  binary.NativeEndian.Uint16(b[2:4]),
		Value: int32(binary.NativeEndian.Uint32(b[4:8])),
	}
}

// primaryPress reports a left button going down. Releases (0) and
// autorepeat (2) are ignored.
func (e inputEvent) primaryPress() bool {
	return e.Type == evKey && e.Code == btnLeft && e.Value == keyPress
}

// ConfigEvent is sent when the configuration file changed on disk.
type ConfigEvent struct {
	Path string
}
