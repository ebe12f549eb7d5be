package programmer

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/moffa90/go-autoprog/catalog"
)

// Phase is a state of the programming state machine.
type Phase int

// Session phases in the order a successful session visits them.
const (
	PhaseIdle Phase = iota
	PhaseIdentifying
	PhaseImageSelected
	PhaseFusesPreprogrammed
	PhaseFlashing
	PhaseFlashed
	PhaseFusesFinalized
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseIdentifying:
		return "identifying"
	case PhaseImageSelected:
		return "image selected"
	case PhaseFusesPreprogrammed:
		return "fuses preprogrammed"
	case PhaseFlashing:
		return "flashing"
	case PhaseFlashed:
		return "flashed"
	case PhaseFusesFinalized:
		return "fuses finalized"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Terminal reports whether no further step is possible from p.
func (p Phase) Terminal() bool {
	return p == PhaseSucceeded || p == PhaseFailed
}

// Session is one programming attempt. It is created by Controller.Begin,
// advanced only by the controller, and ends in PhaseSucceeded or PhaseFailed.
type Session struct {
	id        uuid.UUID
	startedAt time.Time

	phase     Phase
	powered   bool
	signature uint16
	profile   *catalog.ChipProfile
	alias     *catalog.SignatureAlias
	flash     *FlashStats

	result *Result
}

func newSession() *Session {
	return &Session{
		id:        uuid.New(),
		startedAt: time.Now(),
		phase:     PhaseIdle,
	}
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// Phase returns the current phase.
func (s *Session) Phase() Phase { return s.phase }

// Powered reports whether the target supply is asserted for this session.
func (s *Session) Powered() bool { return s.powered }

// StartedAt returns when Begin created the session.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Signature returns the raw signature read from the target, 0 before
// identification.
func (s *Session) Signature() uint16 { return s.signature }

// Profile returns the selected chip profile, nil before identification.
func (s *Session) Profile() *catalog.ChipProfile { return s.profile }

// Result returns the outcome once the session is terminal, nil before.
func (s *Session) Result() *Result { return s.result }

// Result is the outcome of a finished session.
type Result struct {
	SessionID uuid.UUID

	// Phase is PhaseSucceeded or PhaseFailed
	Phase Phase

	// Signature is the raw signature read from the target (0 if never read)
	Signature uint16

	// Profile is the selected chip profile, nil if identification failed
	Profile *catalog.ChipProfile

	// Alias is the alias followed to reach Profile, nil for a direct match
	Alias *catalog.SignatureAlias

	// Reason classifies a failure; ReasonNone on success
	Reason FailureReason

	// Err is the *SessionError of a failed session
	Err error

	// Warning is a *PowerOffWarning when a successful session could not power down
	Warning error

	// Flash summarizes the image write, nil if flashing never started
	Flash *FlashStats

	Duration time.Duration
}

// Succeeded reports whether the session reached PhaseSucceeded.
func (r *Result) Succeeded() bool {
	return r.Phase == PhaseSucceeded
}

// Step tokens. Each is produced by exactly one controller step and consumed
// by the next, so steps cannot be called out of order. Tokens only carry
// their session; the zero value is never accepted.
type (
	// Powered is returned by PowerOn and consumed by Identify.
	Powered struct{ s *Session }

	// Identified is returned by Identify and consumed by ProgramFuses.
	Identified struct{ s *Session }

	// Preprogrammed is returned by ProgramFuses and consumed by Flash.
	Preprogrammed struct{ s *Session }

	// Flashed is returned by Flash and consumed by FinalizeFuses.
	Flashed struct{ s *Session }

	// Finalized is returned by FinalizeFuses and consumed by Finish.
	Finalized struct{ s *Session }
)

// Session returns the session the token belongs to.
func (t *Powered) Session() *Session { return t.s }

// Session returns the session the token belongs to.
func (t *Identified) Session() *Session { return t.s }

// Profile returns the profile selected for the target.
func (t *Identified) Profile() *catalog.ChipProfile { return t.s.profile }

// Session returns the session the token belongs to.
func (t *Preprogrammed) Session() *Session { return t.s }

// Session returns the session the token belongs to.
func (t *Flashed) Session() *Session { return t.s }

// Stats returns the image write summary.
func (t *Flashed) Stats() *FlashStats { return t.s.flash }

// Session returns the session the token belongs to.
func (t *Finalized) Session() *Session { return t.s }
