package gate

import (
	"regexp"
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCurrentCodeFormat(t *testing.T) {
	g := NewWithClock("s3cret", fixedClock(time.Unix(1_700_000_000, 0)))
	code := g.CurrentCode()
	if !regexp.MustCompile(`^\d{4}$`).MatchString(code) {
		t.Fatalf("CurrentCode() = %q, want four digits", code)
	}
}

func TestCurrentCodeStableWithinHour(t *testing.T) {
	base := time.Date(2025, 3, 10, 14, 0, 5, 0, time.UTC)
	first := NewWithClock("s3cret", fixedClock(base)).CurrentCode()
	// Same hour bucket, 59 minutes later.
	second := NewWithClock("s3cret", fixedClock(base.Add(59*time.Minute))).CurrentCode()
	if first != second {
		t.Errorf("codes differ within one hour bucket: %q vs %q", first, second)
	}
}

func TestCurrentCodeRollsOverAcrossHours(t *testing.T) {
	// Collisions are possible mod 10000, so assert over a sample of bucket
	// pairs rather than any single one.
	base := time.Date(2025, 3, 10, 0, 30, 0, 0, time.UTC)
	differs := 0
	for i := 0; i < 24; i++ {
		a := NewWithClock("s3cret", fixedClock(base.Add(time.Duration(i)*time.Hour))).CurrentCode()
		b := NewWithClock("s3cret", fixedClock(base.Add(time.Duration(i+1)*time.Hour))).CurrentCode()
		if a != b {
			differs++
		}
	}
	if differs < 20 {
		t.Errorf("only %d of 24 adjacent hour buckets produced different codes", differs)
	}
}

func TestCurrentCodeDependsOnSalt(t *testing.T) {
	clock := fixedClock(time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC))
	a := NewWithClock("salt-a", clock).CurrentCode()
	b := NewWithClock("salt-b", clock).CurrentCode()
	if a == b {
		t.Errorf("different salts produced the same code %q", a)
	}
}

func TestVerify(t *testing.T) {
	g := NewWithClock("s3cret", fixedClock(time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)))
	code := g.CurrentCode()

	if !g.Verify(code) {
		t.Errorf("Verify(%q) = false, want true", code)
	}
	if g.Verify("") {
		t.Error("Verify(\"\") = true, want false")
	}
	if g.Verify("99999") {
		t.Error("Verify of five-digit junk = true, want false")
	}
}

func TestVerifyRejectsPreviousHour(t *testing.T) {
	base := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)
	old := NewWithClock("s3cret", fixedClock(base.Add(-time.Hour))).CurrentCode()
	g := NewWithClock("s3cret", fixedClock(base))
	// No grace window: the previous bucket's code is rejected unless it
	// happens to collide with the current one.
	if old != g.CurrentCode() && g.Verify(old) {
		t.Errorf("Verify accepted previous hour's code %q", old)
	}
}
