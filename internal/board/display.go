package board

import "github.com/justsurfingit/job-board/internal/models"

const defaultBadgeClass = "badge badge-gray"

var statusClasses = map[models.Status]string{
	models.StatusApplied:            "badge badge-blue",
	models.StatusInterviewScheduled: "badge badge-purple",
	models.StatusInterviewed:        "badge badge-indigo",
	models.StatusOffer:              "badge badge-amber",
	models.StatusAccepted:           "badge badge-green",
	models.StatusRejected:           "badge badge-red",
}

var priorityClasses = map[models.Priority]string{
	models.PriorityHigh:   "badge badge-red",
	models.PriorityMedium: "badge badge-amber",
	models.PriorityLow:    "badge badge-green",
}

// StatusClass falls back to gray for values outside the enumeration.
func StatusClass(s models.Status) string {
	if c, ok := statusClasses[s]; ok {
		return c
	}
	return defaultBadgeClass
}

func PriorityClass(p models.Priority) string {
	if c, ok := priorityClasses[p]; ok {
		return c
	}
	return defaultBadgeClass
}
