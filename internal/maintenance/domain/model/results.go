package model

import "time"

// GateDecision is the outcome of the purge safety gate.
type GateDecision int

const (
	// GateDryRun reports collections and stops before any mutation.
	GateDryRun GateDecision = iota
	// GateRefuse reports collections and exits with a refusal status.
	GateRefuse
	// GateProceed allows destructive execution.
	GateProceed
)

func (d GateDecision) String() string {
	switch d {
	case GateDryRun:
		return "dry-run"
	case GateRefuse:
		return "refuse"
	case GateProceed:
		return "proceed"
	default:
		return "unknown"
	}
}

// PurgeFlags are the two independent invocation flags of the purge tool.
type PurgeFlags struct {
	DryRun    bool
	Confirmed bool
	// Filter is an optional CEL expression over `collection`.
	Filter string
}

// PurgeResult is the outcome of emptying one collection.
type PurgeResult struct {
	Collection       string
	DocumentsDeleted int
	Batches          int
	Duration         time.Duration
}

// PurgeReport is the outcome of a whole purge invocation.
type PurgeReport struct {
	Project     ProjectIdentity
	Collections []string
	Decision    GateDecision
	Purged      []PurgeResult
	// Partial is set when a collection purge stopped early.
	Partial *PurgeResult
}

// TotalDeleted sums deletions over fully and partially purged collections.
func (r *PurgeReport) TotalDeleted() int {
	total := 0
	for _, p := range r.Purged {
		total += p.DocumentsDeleted
	}
	if r.Partial != nil {
		total += r.Partial.DocumentsDeleted
	}
	return total
}

// SeedResult is the tally for one dataset.
type SeedResult struct {
	Collection string
	Upserted   int
	Skipped    int
	Failed     int
}

// SeedReport is the outcome of a whole seed invocation.
type SeedReport struct {
	Project ProjectIdentity
	DataDir string
	Results []SeedResult
}
