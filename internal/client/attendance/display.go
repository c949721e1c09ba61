package attendance

import (
	"fmt"
	"time"
)

// TargetWorkday is the length progress is measured against.
const TargetWorkday = 8 * time.Hour

type State int

const (
	NotCheckedIn State = iota
	CheckedIn
	CheckedOut
)

func (s State) String() string {
	switch s {
	case CheckedIn:
		return "checked_in"
	case CheckedOut:
		return "checked_out"
	default:
		return "not_checked_in"
	}
}

// StateOf derives the day's state from a record. A nil record is NotCheckedIn.
func StateOf(r *Record) State {
	switch {
	case r == nil || r.CheckInTime == nil:
		return NotCheckedIn
	case r.CheckOutTime == nil:
		return CheckedIn
	default:
		return CheckedOut
	}
}

// Display holds the live values shown while checked in. They are zero
// whenever there is no open check-in.
type Display struct {
	Elapsed   time.Duration
	Progress  float64
	Remaining time.Duration
}

func Compute(checkIn, checkOut *time.Time, now time.Time) Display {
	if checkIn == nil || checkOut != nil {
		return Display{}
	}

	elapsed := now.Sub(*checkIn)
	if elapsed < 0 {
		elapsed = 0
	}
	progress := float64(elapsed) / float64(TargetWorkday)
	if progress > 1 {
		progress = 1
	}
	remaining := TargetWorkday - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return Display{Elapsed: elapsed, Progress: progress, Remaining: remaining}
}

// FormatDuration renders d as HH:MM:SS.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total/60%60, total%60)
}
