package services

// RiskCategory is one of four ordered severity buckets derived from the
// assessment score.
type RiskCategory string

const (
	RiskLow              RiskCategory = "low"
	RiskIncreased        RiskCategory = "increased"
	RiskHigh             RiskCategory = "high"
	RiskPossibleDiabetes RiskCategory = "possible_diabetes"
)

// Severity orders categories from least (0) to most (3) severe.
func (c RiskCategory) Severity() int {
	switch c {
	case RiskLow:
		return 0
	case RiskIncreased:
		return 1
	case RiskHigh:
		return 2
	case RiskPossibleDiabetes:
		return 3
	}
	return 0
}

// DisplayName returns the human-readable category label.
func (c RiskCategory) DisplayName() string {
	switch c {
	case RiskLow:
		return "Low Risk"
	case RiskIncreased:
		return "Increased Risk"
	case RiskHigh:
		return "High Risk"
	case RiskPossibleDiabetes:
		return "Possible Diabetes"
	}
	return string(c)
}

// ComputeScore sums the recorded option value for every question in the bank.
// A question with no recorded response contributes 0; the state machine gates
// completeness before calling this.
func ComputeScore(responses map[string]int, questions []Question) int {
	total := 0
	for _, q := range questions {
		if v, ok := responses[q.ID]; ok {
			total += v
		}
	}
	return total
}

// Categorize maps a score to its risk category. Boundaries are lower-bound
// inclusive: <7 low, <15 increased, <20 high, otherwise possible diabetes.
func Categorize(score int) RiskCategory {
	switch {
	case score < 7:
		return RiskLow
	case score < 15:
		return RiskIncreased
	case score < 20:
		return RiskHigh
	default:
		return RiskPossibleDiabetes
	}
}
