package programmer

import (
	"errors"
	"fmt"

	"github.com/moffa90/go-autoprog/catalog"
)

var (
	// ErrSessionActive is returned by Begin and Run while another session
	// on the same controller has not reached a terminal phase.
	ErrSessionActive = errors.New("a programming session is already active")

	// ErrPhaseOrder is returned when a step token does not belong to the
	// active session or was already consumed.
	ErrPhaseOrder = errors.New("step token does not match the session phase")
)

// FailureReason classifies why a session failed. Its Code is the repeat
// count of the error pattern on the status indicator.
type FailureReason int

const (
	// ReasonNone is the reason of a session that did not fail.
	ReasonNone FailureReason = iota

	// ReasonPowerFault means the target supply could not be switched on.
	ReasonPowerFault

	// ReasonUnknownChip means the signature was unreadable or not in the catalog.
	ReasonUnknownChip

	// ReasonFuseWrite means a programming or normal fuse write failed.
	ReasonFuseWrite

	// ReasonFlashMalformed means the profile's image did not parse.
	ReasonFlashMalformed

	// ReasonFlashHardware means a page write failed or timed out.
	ReasonFlashHardware
)

func (r FailureReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonPowerFault:
		return "power fault"
	case ReasonUnknownChip:
		return "unknown chip"
	case ReasonFuseWrite:
		return "fuse write"
	case ReasonFlashMalformed:
		return "malformed image"
	case ReasonFlashHardware:
		return "flash hardware fault"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// Code returns the indicator repeat count for the reason, 0 for ReasonNone.
func (r FailureReason) Code() uint32 {
	if r < ReasonNone || r > ReasonFlashHardware {
		return 0
	}
	return uint32(r)
}

// PowerError reports a failure to switch the target supply.
type PowerError struct {
	On  bool
	Err error
}

func (e *PowerError) Error() string {
	state := "off"
	if e.On {
		state = "on"
	}
	return fmt.Sprintf("power %s failed: %v", state, e.Err)
}

func (e *PowerError) Unwrap() error {
	return e.Err
}

// FuseWriteError reports the first fuse byte the target rejected or failed
// to verify. Bytes after it in the set were not written.
type FuseWriteError struct {
	Category catalog.FuseCategory
	Value    byte
	Err      error
}

func (e *FuseWriteError) Error() string {
	return fmt.Sprintf("write fuse %s = 0x%02X: %v", e.Category, e.Value, e.Err)
}

func (e *FuseWriteError) Unwrap() error {
	return e.Err
}

// FlashErrorKind distinguishes bad image data from a failing target.
type FlashErrorKind int

const (
	// FlashMalformedImage means the image could not be parsed or paged.
	// No page was written.
	FlashMalformedImage FlashErrorKind = iota + 1

	// FlashHardwareFault means a page write or its verification failed.
	FlashHardwareFault
)

func (k FlashErrorKind) String() string {
	switch k {
	case FlashMalformedImage:
		return "malformed image"
	case FlashHardwareFault:
		return "hardware fault"
	default:
		return fmt.Sprintf("flash error(%d)", int(k))
	}
}

// FlashError reports a flash programming failure. Address is the failing
// page for hardware faults.
type FlashError struct {
	Kind    FlashErrorKind
	Address uint32
	Err     error
}

func (e *FlashError) Error() string {
	if e.Kind == FlashHardwareFault {
		return fmt.Sprintf("flash %s at page 0x%04X: %v", e.Kind, e.Address, e.Err)
	}
	return fmt.Sprintf("flash %s: %v", e.Kind, e.Err)
}

func (e *FlashError) Unwrap() error {
	return e.Err
}

// SessionError is the terminal error of a failed session. Phase is the
// phase the session was in when the failure happened.
type SessionError struct {
	Reason FailureReason
	Phase  Phase
	Err    error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session failed in %s (%s): %v", e.Phase, e.Reason, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// PowerOffWarning is attached to a successful Result when the target
// could not be switched off afterwards. The firmware is written.
type PowerOffWarning struct {
	Err error
}

func (w *PowerOffWarning) Error() string {
	return fmt.Sprintf("programmed, but power off failed: %v", w.Err)
}

func (w *PowerOffWarning) Unwrap() error {
	return w.Err
}
