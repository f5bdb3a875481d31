package notification

import (
	"testing"
	"time"
)

func TestSelectReminder(t *testing.T) {
	now := time.Date(2021, time.March, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		deadline time.Time
		wantID   string
		wantOK   bool
	}{
		{
			name:     "deadline 10 days away picks half month reminder",
			deadline: now.AddDate(0, 0, 10),
			wantID:   "reminder.unpublished_content.half_month_before",
			wantOK:   true,
		},
		{
			name:     "deadline 20 days away picks one month reminder",
			deadline: now.AddDate(0, 0, 20),
			wantID:   "reminder.unpublished_content.one_month_before",
			wantOK:   true,
		},
		{
			name:     "deadline too far away picks nothing",
			deadline: now.AddDate(0, 2, 0),
			wantOK:   false,
		},
		{
			name:     "deadline already passed picks first configured entry",
			deadline: now.AddDate(0, 0, -1),
			wantID:   "reminder.unpublished_content.half_month_before",
			wantOK:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := SelectReminder(DefaultReminders, tt.deadline, now)
			if ok != tt.wantOK {
				t.Fatalf("SelectReminder ok = %v, want %v", ok, tt.wantOK)
			}
			if id != tt.wantID {
				t.Errorf("SelectReminder id = %q, want %q", id, tt.wantID)
			}
		})
	}
}

func TestSelectReminder_SkipsMalformedOffsets(t *testing.T) {
	now := time.Date(2021, time.March, 1, 12, 0, 0, 0, time.UTC)
	milestones := []Milestone{
		{Offset: "soonish", ID: "broken"},
		{Offset: "14 days", ID: "half_month"},
	}

	id, ok := SelectReminder(milestones, now.AddDate(0, 0, 3), now)
	if !ok || id != "half_month" {
		t.Errorf("SelectReminder = %q, %v; want half_month, true", id, ok)
	}
}
