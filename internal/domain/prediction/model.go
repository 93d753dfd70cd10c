package prediction

import "time"

// Prediction is one user's score call on one fixture. Immutable after
// creation; only the administrative reset removes entries.
//
// SubmittedOn is the local calendar date at the moment of submission.
// Entries written before the date column existed carry a zero value;
// quota accounting re-derives their date from the bound fixture's
// kickoff.
type Prediction struct {
	Username       string
	FixtureOrdinal int
	PredictedHome  int
	PredictedAway  int
	SubmittedOn    time.Time
}

// HasSubmissionDate reports whether the entry carries its own date or
// is a legacy row needing re-derivation.
func (p Prediction) HasSubmissionDate() bool {
	return !p.SubmittedOn.IsZero()
}
