package programmer

import (
	"fmt"

	"github.com/moffa90/go-autoprog/target"
)

// Pattern is a 32-bit on/off mask shown by the status indicator.
type Pattern uint32

// Status patterns. Failures use PatternError repeated FailureReason.Code() times.
const (
	PatternIdle     Pattern = 0x0
	PatternWorking  Pattern = 0x1
	PatternFlashing Pattern = 0x5
	PatternSuccess  Pattern = 0xFF
	PatternWarning  Pattern = 0xF0F
	PatternError    Pattern = 0x7
)

// StatusIndicator shows patterns on the device. Signal never fails: device
// panics are recovered and logged so a stuck indicator cannot abort
// programming.
type StatusIndicator struct {
	device target.Device
	logger Logger
}

// NewStatusIndicator creates a StatusIndicator. logger may be nil.
func NewStatusIndicator(device target.Device, logger Logger) *StatusIndicator {
	if device == nil {
		panic("device cannot be nil")
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &StatusIndicator{device: device, logger: logger}
}

// Signal shows pattern repeat times.
func (s *StatusIndicator) Signal(pattern Pattern, repeat uint32) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("status indicator failed",
				"pattern", fmt.Sprintf("0x%X", uint32(pattern)),
				"repeat", repeat,
				"panic", fmt.Sprint(r),
			)
		}
	}()

	s.device.EmitPattern(uint32(pattern), repeat)
}

// SignalFailure shows the error pattern for reason.
func (s *StatusIndicator) SignalFailure(reason FailureReason) {
	s.Signal(PatternError, reason.Code())
}
