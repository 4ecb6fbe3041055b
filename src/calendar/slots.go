package calendar

import "time"

// busyInterval is one occupied span reported by the calendar backend
type busyInterval struct {
	start time.Time
	end   time.Time
}

// candidateSlots walks the range hourly and keeps starts that fall within
// business hours. The range is inclusive of end, matching how callers
// resolve "start + 7 days".
func candidateSlots(start, end time.Time) []time.Time {
	var slots []time.Time
	for cur := start; !cur.After(end); cur = cur.Add(time.Hour) {
		if cur.Hour() >= businessOpenHour && cur.Hour() < businessCloseHour {
			slots = append(slots, cur)
		}
	}
	return slots
}

// filterAvailable drops any candidate whose one-hour span overlaps a busy
// interval.
func filterAvailable(slots []time.Time, busy []busyInterval) []time.Time {
	var available []time.Time
	for _, slot := range slots {
		slotEnd := slot.Add(SlotDuration)

		free := true
		for _, b := range busy {
			if slot.Before(b.end) && slotEnd.After(b.start) {
				free = false
				break
			}
		}
		if free {
			available = append(available, slot)
		}
	}
	return available
}

// isoLocal formats a time the way the agent expects slot strings:
// ISO-8601 without a zone designator.
func isoLocal(t time.Time) string {
	return t.Format("2006-01-02T15:04:05")
}
