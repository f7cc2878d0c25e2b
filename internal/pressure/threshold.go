package pressure

// ThresholdResolver resolves an automation's configured trigger threshold.
// ok=false means the threshold is undefined (e.g. the automation is not
// registered), which must be treated as never-exceeding.
type ThresholdResolver interface {
	Threshold(automationID string) (float64, bool)
}

// ExceedsThreshold reports whether a pressure amount meets a threshold.
// True iff the threshold is defined and amount >= threshold; exact equality
// counts as exceeding. An undefined threshold fails closed.
func ExceedsThreshold(amount, threshold float64, defined bool) bool {
	return defined && amount >= threshold
}

// Exceeded enumerates pressure points at or above their automation's
// threshold. automationID narrows the scan to one automation; "" scans all.
// Rows whose automation has no defined threshold never appear.
func (s *Store) Exceeded(resolver ThresholdResolver, automationID string) ([]Point, error) {
	points, err := s.all(automationID)
	if err != nil {
		return nil, err
	}

	var exceeded []Point
	for _, p := range points {
		threshold, defined := resolver.Threshold(p.AutomationID)
		if ExceedsThreshold(p.Amount, threshold, defined) {
			exceeded = append(exceeded, p)
		}
	}
	return exceeded, nil
}
