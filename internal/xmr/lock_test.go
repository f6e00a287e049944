package xmr

import (
	"testing"

	"github.com/spcwise/xmr/pkg/config"
)

func spikedFiltered(t *testing.T) FilteredResult {
	t.Helper()
	fr, ok := ComputeFiltered(mkSeries(spikeValues()...), config.DefaultParams())
	if !ok {
		t.Fatal("expected chartable output")
	}
	return fr
}

func TestSessionStartsFloating(t *testing.T) {
	s := NewSession()
	if s.State() != Floating {
		t.Errorf("expected floating, got %s", s.State())
	}
	if s.IsLocked() || s.IsAutoLocked() {
		t.Errorf("fresh session should not be locked")
	}
	if s.ID() == "" {
		t.Errorf("session should carry an identifier")
	}
	if s.LockedLimits() != nil {
		t.Errorf("fresh session should hold no limits")
	}
}

func TestAutoLockFiresOnce(t *testing.T) {
	params := config.DefaultParams()
	fr := spikedFiltered(t)

	s := NewSession()
	if !s.MaybeAutoLock(fr, params) {
		t.Fatal("expected auto-lock to fire")
	}
	if s.State() != AutoLocked {
		t.Fatalf("expected auto-locked, got %s", s.State())
	}
	if got := s.ExcludedIndices(); len(got) != 1 || got[0] != 10 {
		t.Errorf("expected excluded indices [10], got %v", got)
	}
	if s.ActiveLimits(fr.Naive) != fr.Filtered {
		t.Errorf("active limits should be the filtered limits")
	}

	// Unlock does not re-arm the one-shot decision
	s.Unlock()
	if s.State() != Floating {
		t.Fatalf("expected floating after unlock, got %s", s.State())
	}
	if s.MaybeAutoLock(fr, params) {
		t.Errorf("auto-lock should not fire twice without a reset")
	}
	if s.ActiveLimits(fr.Naive) != fr.Naive {
		t.Errorf("floating session should use the base limits")
	}
}

func TestAutoLockDeclines(t *testing.T) {
	params := config.DefaultParams()
	fr, ok := ComputeFiltered(mkSeries(10, 12, 11, 13, 12, 10, 11), params)
	if !ok {
		t.Fatal("expected chartable output")
	}

	s := NewSession()
	if s.MaybeAutoLock(fr, params) {
		t.Errorf("clean series should not auto-lock")
	}
	if s.State() != Floating {
		t.Errorf("declined auto-lock should stay floating")
	}
	// The decision is still consumed
	if s.MaybeAutoLock(spikedFiltered(t), params) {
		t.Errorf("decision should be one-shot even when declined")
	}
}

func TestManualLockIsSticky(t *testing.T) {
	params := config.DefaultParams()
	fr := spikedFiltered(t)

	s := NewSession()
	limits := Limits{AvgX: 11, AvgMovement: 2, UNPL: 16.32, LNPL: 5.68}
	if err := s.LockManually(limits, []int{3, 7}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.State() != ManuallyLocked {
		t.Fatalf("expected manually-locked, got %s", s.State())
	}
	if s.ActiveLimits(fr.Naive) != limits {
		t.Errorf("active limits should be the manual limits")
	}

	// Unlocking keeps the sticky manual flag: auto-lock stays off
	s.Unlock()
	if s.MaybeAutoLock(fr, params) {
		t.Errorf("auto-lock must not fire after a manual lock")
	}

	// Explicit reset clears the flag and re-runs the decision
	if !s.ResetToAutoLock(fr, params) {
		t.Errorf("reset should re-take and win the auto-lock decision")
	}
	if s.State() != AutoLocked {
		t.Errorf("expected auto-locked after reset, got %s", s.State())
	}
}

func TestTransformForcesUnlock(t *testing.T) {
	params := config.DefaultParams()
	fr := spikedFiltered(t)

	s := NewSession()
	s.MaybeAutoLock(fr, params)
	if s.State() != AutoLocked {
		t.Fatal("expected auto-locked")
	}

	s.SetTransform(TransformTrended)
	if s.State() != Floating {
		t.Errorf("activating a trend should clear the lock")
	}
	if s.LockedLimits() != nil || len(s.ExcludedIndices()) != 0 {
		t.Errorf("unlock should clear held limits and exclusions")
	}

	// Locking is rejected while the trend is active
	if err := s.LockManually(Limits{}, nil); err == nil {
		t.Errorf("expected manual lock to be rejected under a trend")
	}

	s.SetTransform(TransformDeseasonalized)
	if err := s.LockManually(Limits{}, nil); err == nil {
		t.Errorf("expected manual lock to be rejected under seasonality")
	}

	s.SetTransform(TransformFlat)
	if err := s.LockManually(Limits{}, nil); err != nil {
		t.Errorf("flat transform should allow locking: %v", err)
	}
}

func TestLockStateStrings(t *testing.T) {
	tests := []struct {
		state    LockState
		expected string
	}{
		{Floating, "floating"},
		{AutoLocked, "auto-locked"},
		{ManuallyLocked, "manually-locked"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.expected {
			t.Errorf("expected %q, got %q", tt.expected, got)
		}
	}
}
