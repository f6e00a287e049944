package xmr

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/spcwise/xmr/pkg/config"
)

// LockState identifies how the active limits are held.
type LockState int

const (
	// Floating limits track whatever the base calculation returns
	Floating LockState = iota

	// AutoLocked limits were adopted from an outlier-excluded
	// computation without human input
	AutoLocked

	// ManuallyLocked limits and/or exclusions were supplied by a human
	ManuallyLocked
)

func (s LockState) String() string {
	switch s {
	case AutoLocked:
		return "auto-locked"
	case ManuallyLocked:
		return "manually-locked"
	default:
		return "floating"
	}
}

// TransformKind identifies the active series transform. Trend and
// seasonality are mutually exclusive transforms of the input series,
// and both are mutually exclusive with locked limits.
type TransformKind int

const (
	TransformFlat TransformKind = iota
	TransformTrended
	TransformDeseasonalized
)

func (t TransformKind) String() string {
	switch t {
	case TransformTrended:
		return "trended"
	case TransformDeseasonalized:
		return "deseasonalized"
	default:
		return "flat"
	}
}

// Session tracks lock and transform state for one chart. The engine
// never persists this; each chart owns exactly one Session and feeds it
// candidate values from the calculators.
type Session struct {
	id           string
	state        LockState
	transform    TransformKind
	lockedLimits *Limits
	excluded     []int

	// everManual is sticky for the life of the session once a manual
	// lock has been applied; only ResetToAutoLock clears it.
	everManual bool

	// autoLockDone records that the one-shot auto-lock decision has
	// been taken for the current series load.
	autoLockDone bool
}

// NewSession creates a session in the Floating state with a fresh ID.
func NewSession() *Session {
	return &Session{
		id: uuid.New().String(),
	}
}

// ID returns the session identifier
func (s *Session) ID() string { return s.id }

// State returns the current lock state
func (s *Session) State() LockState { return s.state }

// Transform returns the active transform
func (s *Session) Transform() TransformKind { return s.transform }

// IsLocked reports whether limits are held, automatically or manually
func (s *Session) IsLocked() bool { return s.state != Floating }

// IsAutoLocked reports whether the current lock was applied
// automatically
func (s *Session) IsAutoLocked() bool { return s.state == AutoLocked }

// LockedLimits returns the held limits, or nil when floating
func (s *Session) LockedLimits() *Limits {
	if s.lockedLimits == nil {
		return nil
	}
	lim := *s.lockedLimits
	return &lim
}

// ExcludedIndices returns the active exclusion list
func (s *Session) ExcludedIndices() []int {
	return append([]int(nil), s.excluded...)
}

// MaybeAutoLock takes the one-shot auto-lock decision for a freshly
// loaded series. It fires at most once per session (or per explicit
// reset), never after a manual lock has ever been applied, and never
// while a transform is active. Returns true when the session entered
// AutoLocked.
func (s *Session) MaybeAutoLock(fr FilteredResult, p config.Params) bool {
	if s.autoLockDone || s.everManual || s.state != Floating || s.transform != TransformFlat {
		return false
	}
	s.autoLockDone = true

	if !ShouldAutoLock(fr, p) {
		return false
	}
	lim := fr.Filtered
	s.state = AutoLocked
	s.lockedLimits = &lim
	s.excluded = append([]int(nil), fr.OutlierIndices...)
	return true
}

// LockManually adopts explicit limits and an explicit exclusion set,
// overriding any auto-detected outliers. The manual-modification flag
// is sticky until ResetToAutoLock. Locking is rejected while a trend or
// seasonality transform is active.
func (s *Session) LockManually(limits Limits, excluded []int) error {
	if s.transform != TransformFlat {
		return fmt.Errorf("cannot lock limits while transform is %s", s.transform)
	}
	lim := limits
	s.state = ManuallyLocked
	s.lockedLimits = &lim
	s.excluded = append([]int(nil), excluded...)
	s.everManual = true
	return nil
}

// Unlock clears locked limits, exclusions, and the auto-lock flag,
// returning to Floating. It does not re-arm the one-shot auto-lock.
func (s *Session) Unlock() {
	s.state = Floating
	s.lockedLimits = nil
	s.excluded = nil
}

// ResetToAutoLock clears the sticky manual flag and re-takes the
// auto-lock decision from scratch. Returns true when the session
// entered AutoLocked.
func (s *Session) ResetToAutoLock(fr FilteredResult, p config.Params) bool {
	s.Unlock()
	s.everManual = false
	s.autoLockDone = false
	return s.MaybeAutoLock(fr, p)
}

// SetTransform switches the active transform. Entering a trend or
// seasonality transform forces an unlock first: the underlying series
// (or its baseline) changes, invalidating previously held limits.
func (s *Session) SetTransform(t TransformKind) {
	if t != TransformFlat {
		s.Unlock()
	}
	s.transform = t
}

// ActiveLimits returns the limits violation detection should run
// against: the held limits when locked, otherwise the supplied base
// limits.
func (s *Session) ActiveLimits(base Limits) Limits {
	if s.lockedLimits != nil {
		return *s.lockedLimits
	}
	return base
}
