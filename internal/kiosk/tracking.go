package kiosk

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/lord-william/lalalika-logistics/internal/backend"
	dErrors "github.com/lord-william/lalalika-logistics/pkg/domain-errors"
)

// TrackingPrefix heads every generated tracking number.
const TrackingPrefix = "LLK"

const (
	trackingDigits        = 9
	trackingSpace         = 1_000_000_000
	maxGenerationAttempts = 5
)

// Generator produces collision-checked human-readable tracking numbers of
// the form LLK followed by nine decimal digits.
//
// The existence check and the eventual shipment write are not atomic: two
// concurrent submissions can both pass the check for the same value before
// either writes. Accepted risk given the 10^9 space against expected
// submission volume; a conditional write keyed by the number itself would
// close it but change observable retry behavior.
type Generator struct {
	db backend.Database
	// random returns a value in [0, trackingSpace); injectable for tests.
	random func() int
}

func NewGenerator(db backend.Database) *Generator {
	return &Generator{
		db:     db,
		random: func() int { return rand.IntN(trackingSpace) },
	}
}

// Generate draws random candidates, probing the shipments collection for
// each, and returns the first unused one. After maxGenerationAttempts
// collisions it fails with CodeExhausted; the whole submission is
// restartable from scratch.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxGenerationAttempts; attempt++ {
		candidate := fmt.Sprintf("%s%0*d", TrackingPrefix, trackingDigits, g.random())

		matches, err := g.db.QueryOnce(ctx, "shipments", backend.Query{
			OrderBy: "trackingNumber",
			Equals:  candidate,
			Limit:   1,
		})
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeUnavailable,
				"Failed to submit shipment. Please try again.")
		}
		if len(matches) == 0 {
			return candidate, nil
		}
	}
	return "", dErrors.New(dErrors.CodeExhausted,
		"Unable to generate a unique tracking number. Please try again.")
}
