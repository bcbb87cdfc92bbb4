package models

type Status string

const (
	StatusApplied            Status = "Applied"
	StatusInterviewScheduled Status = "Interview Scheduled"
	StatusInterviewed        Status = "Interviewed"
	StatusOffer              Status = "Offer"
	StatusAccepted           Status = "Accepted"
	StatusRejected           Status = "Rejected"
)

// Statuses is the display order used by forms.
var Statuses = []Status{
	StatusApplied,
	StatusInterviewScheduled,
	StatusInterviewed,
	StatusOffer,
	StatusAccepted,
	StatusRejected,
}

func (s Status) Known() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal statuses are no longer touched by the mail watcher.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

func (p Priority) Known() bool {
	for _, known := range Priorities {
		if p == known {
			return true
		}
	}
	return false
}
