package schedule

// Shift hour boundaries for a standard three-shift day. The extended first
// shift opens two hours early and the continuous pattern splits the day
// into two twelve-hour halves.
const (
	firstShiftBegin         = 6
	extendedFirstShiftBegin = 4
	secondShiftBegin        = 14
	thirdShiftBegin         = 22
	continuousDayBegin      = 8
	continuousNightBegin    = 20
)

// OnDutyShifts reports how many of a building's shifts are staffed at the
// given hour. Zero means the building is closed.
func OnDutyShifts(wt WorkTime, hour int, weekend bool) int {
	if wt.WorkShifts == 0 {
		return 0
	}
	if weekend && !wt.WorkAtWeekends {
		return 0
	}

	if wt.HasContinuousWorkShift {
		// Two halves covering the whole day; the night half only runs
		// for night-active buildings.
		if hour >= continuousDayBegin && hour < continuousNightBegin {
			return 1
		}
		if wt.WorkAtNight {
			return 1
		}
		return 0
	}

	begin := firstShiftBegin
	if wt.HasExtendedWorkShift {
		begin = extendedFirstShiftBegin
	}

	switch {
	case hour >= begin && hour < secondShiftBegin:
		return 1
	case hour >= secondShiftBegin && hour < thirdShiftBegin:
		if wt.WorkShifts >= 2 {
			return 1
		}
		return 0
	default:
		// Third-shift window, wrapping past midnight.
		if wt.WorkShifts >= 3 && wt.WorkAtNight {
			return 1
		}
		return 0
	}
}
