package notification

import (
	"time"

	"content_lifecycle_engine/internal/domain/lifecycle"
)

// MilestoneContentUnpublished is sent once when a rule moves content to the
// unpublished state.
const MilestoneContentUnpublished = "notification.content_got_unpublished"

// Milestone ties a reminder ID to an offset before the deadline. The reminder
// fires from deadline-Offset onward.
type Milestone struct {
	Offset string
	ID     string
}

// DefaultReminders is the ordered reminder table for upcoming unpublishing.
// Selection returns the first configured entry whose trigger time has passed,
// not the most urgent one.
var DefaultReminders = []Milestone{
	{Offset: "14 days", ID: "reminder.unpublished_content.half_month_before"},
	{Offset: "1 month", ID: "reminder.unpublished_content.one_month_before"},
}

// SelectReminder picks the reminder milestone for a deadline, iterating the
// table in configured order and returning the first entry whose trigger time
// (deadline minus offset) is not in the future. Entries with malformed
// offsets are skipped.
func SelectReminder(milestones []Milestone, deadline, now time.Time) (string, bool) {
	for _, m := range milestones {
		trigger, err := lifecycle.SubtractOffset(deadline, m.Offset)
		if err != nil {
			continue
		}
		if !trigger.After(now) {
			return m.ID, true
		}
	}
	return "", false
}
