package availability

import "time"

// Event is the slice of a stored schedule the checker needs: what it is and
// when it happens. Identifiers stay out on purpose so conflict reports never
// leak them.
type Event struct {
	Title string
	Type  string
	Start time.Time
	End   time.Time
}

// Conflict describes one stored event that overlaps a queried range.
type Conflict struct {
	Title string
	Type  string
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching intervals do not overlap: an event that
// ends exactly when the range starts is not a conflict.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// DetectConflicts retains the events whose interval intersects
// [rangeStart, rangeEnd). An event conflicts when any of three cases holds:
//
//   - its start falls within the queried range,
//   - its end falls within the queried range,
//   - it strictly contains the queried range.
//
// The union of the three is equivalent to the single half-open overlap
// predicate; both formulations are kept so the equivalence stays testable.
// Input order is preserved.
func DetectConflicts(events []Event, rangeStart, rangeEnd time.Time) []Conflict {
	conflicts := make([]Conflict, 0)

	for _, event := range events {
		startsWithin := !event.Start.Before(rangeStart) && event.Start.Before(rangeEnd)
		endsWithin := event.End.After(rangeStart) && !event.End.After(rangeEnd)
		contains := event.Start.Before(rangeStart) && event.End.After(rangeEnd)

		if !startsWithin && !endsWithin && !contains {
			continue
		}

		conflicts = append(conflicts, Conflict{
			Title: event.Title,
			Type:  event.Type,
			Start: event.Start,
			End:   event.End,
		})
	}

	if len(conflicts) == 0 {
		return nil
	}
	return conflicts
}
