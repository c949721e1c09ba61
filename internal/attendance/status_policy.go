package attendance

import "time"

const (
	StatusPresent    = "present"
	StatusLate       = "late"
	StatusEarlyLeave = "early_leave"
)

const dateLayout = "2006-01-02"

// Policy classifies check-ins and check-outs by local time of day. LateAfter
// and WorkdayEnd are offsets from local midnight.
type Policy struct {
	Location   *time.Location
	LateAfter  time.Duration
	WorkdayEnd time.Duration
}

func DefaultPolicy() Policy {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		loc = time.FixedZone("KST", 9*60*60)
	}
	return Policy{
		Location:   loc,
		LateAfter:  9*time.Hour + 15*time.Minute,
		WorkdayEnd: 18 * time.Hour,
	}
}

// In returns p evaluated in loc. A nil loc keeps p's location.
func (p Policy) In(loc *time.Location) Policy {
	if loc != nil {
		p.Location = loc
	}
	return p
}

// LocalDate is the calendar date of t in the policy's location.
func (p Policy) LocalDate(t time.Time) string {
	return t.In(p.Location).Format(dateLayout)
}

func (p Policy) sinceMidnight(t time.Time) time.Duration {
	local := t.In(p.Location)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, p.Location)
	return local.Sub(midnight)
}

// CheckInStatus is late strictly after the threshold, present otherwise.
func (p Policy) CheckInStatus(checkIn time.Time) string {
	if p.sinceMidnight(checkIn) > p.LateAfter {
		return StatusLate
	}
	return StatusPresent
}

// CheckOutStatus overrides the check-in status with early_leave when the
// check-out lands before the end of the workday.
func (p Policy) CheckOutStatus(current string, checkOut time.Time) string {
	if p.sinceMidnight(checkOut) < p.WorkdayEnd {
		return StatusEarlyLeave
	}
	if current == "" {
		return StatusPresent
	}
	return current
}

// WorkDurationMinutes floors to whole minutes and never goes negative.
func WorkDurationMinutes(checkIn, checkOut time.Time) int {
	d := checkOut.Sub(checkIn)
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}
