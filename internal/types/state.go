package types

// Enum values for the claim pipeline phase. A claim moves strictly forward
// through these phases; failure exits are carried as typed errors, not phases.
type ClaimPhase string

const (
	PhaseStart         ClaimPhase = "START"
	PhaseCheckVerified ClaimPhase = "CHECK_VERIFIED"
	PhaseCheckCooldown ClaimPhase = "CHECK_COOLDOWN"
	PhaseDisbursing    ClaimPhase = "DISBURSING"
	PhaseCommitting    ClaimPhase = "COMMITTING"
	PhaseDone          ClaimPhase = "DONE"
)

func (p ClaimPhase) String() string {
	return string(p)
}

// NextPhase returns the phase that follows p in the pipeline, or p itself
// once the terminal phase is reached.
func NextPhase(p ClaimPhase) ClaimPhase {
	switch p {
	case PhaseStart:
		return PhaseCheckVerified
	case PhaseCheckVerified:
		return PhaseCheckCooldown
	case PhaseCheckCooldown:
		return PhaseDisbursing
	case PhaseDisbursing:
		return PhaseCommitting
	case PhaseCommitting:
		return PhaseDone
	default:
		return p
	}
}
