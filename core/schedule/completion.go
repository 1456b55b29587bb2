package schedule

import "time"

// CompletionWindow is how long a checked schedule stays open before it is done.
const CompletionWindow = 24 * time.Hour

// IsCompleteAt reports whether the schedule is done at `now`, either explicitly
// or because it was checked at least CompletionWindow ago.
func (s Schedule) IsCompleteAt(now time.Time) bool {
	if s.Done {
		return true
	}
	return s.CheckedAt != nil && now.Sub(*s.CheckedAt) >= CompletionWindow
}

// ApplyAutoCompletion returns a copy of `events` where every schedule checked at least
// CompletionWindow before `now` is marked done. CheckedAt is left untouched.
func ApplyAutoCompletion(events []Schedule, now time.Time) []Schedule {
	out := make([]Schedule, len(events))
	for i, s := range events {
		if !s.Done && s.IsCompleteAt(now) {
			s.Done = true
		}
		out[i] = s
	}
	return out
}
