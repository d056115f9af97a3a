// Package gate implements the rolling access code that admits candidates
// into gated test variants. The code is derived from the current hour, so
// any party holding the same salt can recompute it independently; nothing
// is persisted or distributed. This is deliberately not a cryptographic
// control: the product only needs a low-stakes shared gate.
package gate

import (
	"fmt"
	"strconv"
	"time"
)

const hourMillis = 3_600_000

// Gate derives and verifies the current 4-digit access code.
type Gate struct {
	salt string
	now  func() time.Time
}

// New creates a Gate with the given salt. The salt comes from configuration,
// never from a source literal.
func New(salt string) *Gate {
	return &Gate{salt: salt, now: time.Now}
}

// NewWithClock creates a Gate with an injected clock, for tests.
func NewWithClock(salt string, now func() time.Time) *Gate {
	return &Gate{salt: salt, now: now}
}

// CurrentCode returns the code for the current hour bucket: a 32-bit rolling
// hash of "<bucket><salt>", absolute value mod 10000, zero-padded to four
// digits. Codes roll over on the hour with no grace window, so an attempt
// straddling the boundary can legitimately fail.
func (g *Gate) CurrentCode() string {
	bucket := g.now().UnixMilli() / hourMillis
	seed := strconv.FormatInt(bucket, 10) + g.salt

	var h int32
	for _, r := range seed {
		h = h*31 + int32(r)
	}

	code := int64(h)
	if code < 0 {
		code = -code
	}
	return fmt.Sprintf("%04d", code%10000)
}

// Verify reports whether the candidate-submitted code matches the code for
// the hour bucket at verification time.
func (g *Gate) Verify(candidateCode string) bool {
	return candidateCode != "" && candidateCode == g.CurrentCode()
}
