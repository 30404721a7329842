package subscription

// phasePrices is the monthly subscription price per signup phase, in minor
// currency units. Phase selection is configuration-driven: the launch phase
// is capped by driver count, later boundaries are set by operations.
var phasePrices = map[Phase]int64{
	PhaseLaunch:  15000,
	PhaseEarly:   18000,
	PhaseGrowth:  20000,
	PhasePremium: 25000,
}

// PriceForPhase returns the monthly price for a phase. Unknown phases fall
// back to premium pricing so a misconfigured phase never undercharges.
func PriceForPhase(p Phase) int64 {
	if price, ok := phasePrices[p]; ok {
		return price
	}
	return phasePrices[PhasePremium]
}

// reminderSchedule maps day offsets relative to the payment due date to the
// reminder sent and the transition each offset implies. Positive offsets are
// days before the due date, negative offsets are days overdue.
var reminderSchedule = map[int]ReminderAction{
	5:  {Message: "Your subscription payment is due in 5 days."},
	1:  {Message: "Your subscription payment is due tomorrow."},
	0:  {Message: "Your subscription payment is due today. Access is now limited to accepting rides.", Transition: StatusLimited},
	-3: {Message: "Your payment is 3 days overdue. Your account will be suspended in 5 days."},
	-7: {Message: "Your payment is 7 days overdue. Your account has been suspended. Pay the outstanding amount plus the reconnection fee to restore access.", Transition: StatusSuspended},
}

// ReminderForOffset returns the reminder action for a day offset, if one is
// scheduled. Pure lookup; the caller owns the polling.
func ReminderForOffset(offset int) (ReminderAction, bool) {
	action, ok := reminderSchedule[offset]
	return action, ok
}

// ReminderOffsets lists the scheduled offsets, for sweep iteration
func ReminderOffsets() []int {
	return []int{5, 1, 0, -3, -7}
}
