package matching

// NeutralExperienceScore is returned when either side of the comparison is unknown.
const NeutralExperienceScore = 0.5

// MatchExperience scores actual tenure against required tenure in coarse bands.
// Both values are expected to be non-negative.
func MatchExperience(required, actual *int) float64 {
	if required == nil || actual == nil {
		return NeutralExperienceScore
	}

	req := float64(*required)
	act := float64(*actual)

	switch {
	case act >= req:
		return 1.0
	case act >= req*0.8:
		return 0.8
	case act >= req*0.6:
		return 0.6
	case act >= req*0.4:
		return 0.4
	default:
		return 0.2
	}
}
