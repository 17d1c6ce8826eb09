package bot

import (
	"testing"
	"time"
)

// ── inputState ─────────────────────────────────────────────────────────────

func TestInputState_TakeConsumesEntry(t *testing.T) {
	s := newInputState()
	s.expect(1, awaitingSalary)

	if got := s.take(1); got != awaitingSalary {
		t.Errorf("take = %v, want awaitingSalary", got)
	}
	if got := s.take(1); got != awaitingNone {
		t.Errorf("second take = %v, want awaitingNone (consumed)", got)
	}
}

func TestInputState_NoEntry(t *testing.T) {
	s := newInputState()
	if got := s.take(42); got != awaitingNone {
		t.Errorf("take without expect = %v, want awaitingNone", got)
	}
}

func TestInputState_UsersAreIndependent(t *testing.T) {
	s := newInputState()
	s.expect(1, awaitingProfession)
	s.expect(2, awaitingArea)

	if got := s.take(2); got != awaitingArea {
		t.Errorf("user 2 take = %v, want awaitingArea", got)
	}
	if got := s.take(1); got != awaitingProfession {
		t.Errorf("user 1 take = %v, want awaitingProfession", got)
	}
}

func TestInputState_RearmReplacesKind(t *testing.T) {
	s := newInputState()
	s.expect(1, awaitingProfession)
	s.expect(1, awaitingSalary)

	if got := s.take(1); got != awaitingSalary {
		t.Errorf("take = %v, want the latest kind awaitingSalary", got)
	}
}

func TestInputState_ExpiredEntryIsDropped(t *testing.T) {
	current := time.Date(2024, 5, 17, 12, 0, 0, 0, time.UTC)
	s := newInputState()
	s.now = func() time.Time { return current }

	s.expect(1, awaitingArea)

	current = current.Add(inputTTL + time.Second)
	if got := s.take(1); got != awaitingNone {
		t.Errorf("take after TTL = %v, want awaitingNone", got)
	}
}

func TestInputState_EntryJustWithinTTL(t *testing.T) {
	current := time.Date(2024, 5, 17, 12, 0, 0, 0, time.UTC)
	s := newInputState()
	s.now = func() time.Time { return current }

	s.expect(1, awaitingArea)

	current = current.Add(inputTTL)
	if got := s.take(1); got != awaitingArea {
		t.Errorf("take at exactly TTL = %v, want awaitingArea", got)
	}
}

// ── validateInterval ───────────────────────────────────────────────────────

func TestValidateInterval(t *testing.T) {
	cases := []struct {
		minutes int
		wantErr bool
	}{
		{1, true},
		{4, true},
		{5, false},
		{60, false},
	}
	for _, tc := range cases {
		err := validateInterval(tc.minutes)
		if (err != nil) != tc.wantErr {
			t.Errorf("validateInterval(%d) error = %v, wantErr %v", tc.minutes, err, tc.wantErr)
		}
	}
}

func TestValidateInterval_ReturnsValidationError(t *testing.T) {
	err := validateInterval(1)
	if _, ok := err.(*ValidationError); !ok {
		t.Errorf("validateInterval error type = %T, want *ValidationError", err)
	}
}

// ── keepDigits ─────────────────────────────────────────────────────────────

func TestKeepDigits(t *testing.T) {
	cases := []struct{ in, want string }{
		{"100000", "100000"},
		{"100 000", "100000"},
		{"100к", "100"},
		{"сто тысяч", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := keepDigits(tc.in); got != tc.want {
			t.Errorf("keepDigits(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
