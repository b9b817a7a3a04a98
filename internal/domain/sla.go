package domain

import "time"

// slaHours maps each priority to its resolution window in hours.
var slaHours = map[TicketPriority]int{
	TicketPriorityCritical: 4,
	TicketPriorityHigh:     24,
	TicketPriorityMedium:   72,
	TicketPriorityLow:      168,
}

// SLADuration returns the resolution window for a priority. Unknown
// priorities fall back to the Medium window.
func SLADuration(priority TicketPriority) time.Duration {
	hours, ok := slaHours[priority]
	if !ok {
		hours = slaHours[TicketPriorityMedium]
	}
	return time.Duration(hours) * time.Hour
}

// SLADeadline computes the deadline for a ticket created at the given time.
func SLADeadline(createdAt time.Time, priority TicketPriority) time.Time {
	return createdAt.Add(SLADuration(priority))
}
