package entropy

import "sort"

// periodize folds commit events into burst periods. Events are sorted by
// timestamp ascending; a gap larger than quietTime seconds between
// consecutive events closes the current period and seeds a new one. Each
// emitted period owns a fresh change map, so later folding never aliases an
// already emitted snapshot. An empty event list yields no periods.
func periodize(events []CommitEvent, quietTime int64) []BurstPeriod {
	if len(events) == 0 {
		return nil
	}

	sorted := make([]CommitEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	var periods []BurstPeriod
	end := sorted[0].Timestamp
	acc := copyChanges(sorted[0].Changes)

	for _, event := range sorted[1:] {
		if event.Timestamp-end > quietTime {
			periods = append(periods, BurstPeriod{End: end, Changes: acc})
			acc = copyChanges(event.Changes)
		} else {
			for name, changed := range event.Changes {
				acc[name] += changed
			}
		}
		end = event.Timestamp
	}

	periods = append(periods, BurstPeriod{End: end, Changes: acc})
	return periods
}

func copyChanges(changes map[string]int) map[string]int {
	out := make(map[string]int, len(changes))
	for name, changed := range changes {
		out[name] = changed
	}
	return out
}
