package models

// Bias is the qualitative recommendation, ordered from most defensive to most aggressive.
type Bias int

const (
	BiasPause Bias = iota
	BiasHold
	BiasLightAccumulate
	BiasAccumulate
)

func (b Bias) String() string {
	switch b {
	case BiasPause:
		return "Pause"
	case BiasHold:
		return "Hold"
	case BiasLightAccumulate:
		return "Light Accumulate"
	case BiasAccumulate:
		return "Accumulate"
	default:
		return "Unknown"
	}
}

// AllocationPercent is the share of the planned weekly DCA amount for the bias.
func (b Bias) AllocationPercent() int {
	switch b {
	case BiasAccumulate:
		return 100
	case BiasLightAccumulate:
		return 50
	case BiasHold:
		return 25
	default:
		return 0
	}
}

// Downgrade steps one level towards Pause. Pause is the floor.
func (b Bias) Downgrade() Bias {
	if b <= BiasPause {
		return BiasPause
	}
	return b - 1
}

// AllocationVerdict is the deterministic recommendation derived from a SignalSnapshot.
type AllocationVerdict struct {
	Bias                 Bias
	BaseBias             Bias
	AllocationPercent    int
	Rationale            []string
	InvalidationTriggers []string
	NextChecks           []string
	TimeHorizon          string
	Downgraded           bool
}
