package usecase

import "firestore-utils/internal/maintenance/domain/model"

// SafetyGate decides whether a purge may mutate the store. It defaults to
// refusal: only an explicit confirmation without dry-run proceeds.
type SafetyGate struct{}

// NewSafetyGate creates a SafetyGate
func NewSafetyGate() *SafetyGate {
	return &SafetyGate{}
}

// Evaluate maps the invocation flags to a decision. Dry-run wins over
// confirmation.
func (g *SafetyGate) Evaluate(flags model.PurgeFlags) model.GateDecision {
	switch {
	case flags.DryRun:
		return model.GateDryRun
	case flags.Confirmed:
		return model.GateProceed
	default:
		return model.GateRefuse
	}
}
