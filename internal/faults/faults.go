// Package faults defines the shared error taxonomy for the simulation core.
// Every failure falls into one of three classes; none of them is retryable.
package faults

import "errors"

var (
	// ErrConfiguration marks invalid terrain, fire, or swarm parameters.
	// Raised during initialization only, never mid-run.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvariant marks a broken internal invariant (state regression,
	// negative fuel or battery). Fatal: the run transitions to Failed.
	ErrInvariant = errors.New("invariant violation")

	// ErrContract marks caller misuse of an API, such as a non-positive
	// tick duration or stepping a finished run.
	ErrContract = errors.New("contract violation")
)
