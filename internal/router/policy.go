package router

// Strength is the coarse quality/cost tier a model belongs to. Each
// provider kind maps a strength to a concrete model id.
type Strength string

const (
	StrengthWeak   Strength = "weak"
	StrengthStrong Strength = "strong"
)

// RequiredStrength maps a task type to the strength it deserves.
// Reasoning-heavy work gets the strong model; routine generation and
// anything unrecognized stays on the weak one.
func RequiredStrength(task TaskType) Strength {
	switch task {
	case TaskExploration, TaskPlanning, TaskTroubleshooting, TaskReview:
		return StrengthStrong
	default:
		return StrengthWeak
	}
}
