package dtos

import (
	"errors"
	"fmt"
	"strings"

	"github.com/justsurfingit/job-board/internal/models"
)

type ExtractionRequest struct {
	RawHTML string `json:"raw_html" binding:"required"`
	URL     string `json:"url"`
}

// ApplicationRequest is the create/update payload shared by the JSON API and
// the board's add/edit dialog.
type ApplicationRequest struct {
	CompanyName     string `json:"companyName" form:"companyName" binding:"required"`
	JobTitle        string `json:"jobTitle" form:"jobTitle" binding:"required"`
	JobType         string `json:"jobType" form:"jobType"`
	Location        string `json:"location" form:"location"`
	Status          string `json:"status" form:"status"`
	PriorityLevel   string `json:"priorityLevel" form:"priorityLevel"`
	ApplicationDate string `json:"applicationDate" form:"applicationDate"`
	JobLink         string `json:"jobLink" form:"jobLink"`
	Notes           string `json:"notes" form:"notes"`
}

var (
	ErrUnknownStatus   = errors.New("unknown status")
	ErrUnknownPriority = errors.New("unknown priority")
)

// CheckValues rejects a status or priority outside the known lists, unless it
// is the value existing already stores. existing is nil on create.
func (r *ApplicationRequest) CheckValues(existing *models.JobApplication) error {
	if status := models.Status(r.Status); status != "" && !status.Known() &&
		(existing == nil || existing.Status != status) {
		return fmt.Errorf("%w %q", ErrUnknownStatus, r.Status)
	}
	if priority := models.Priority(r.PriorityLevel); priority != "" && !priority.Known() &&
		(existing == nil || existing.PriorityLevel != priority) {
		return fmt.Errorf("%w %q", ErrUnknownPriority, r.PriorityLevel)
	}
	return nil
}

// Apply copies the request onto app, filling defaults for empty enum fields.
func (r *ApplicationRequest) Apply(app *models.JobApplication) {
	app.CompanyName = strings.TrimSpace(r.CompanyName)
	app.JobTitle = strings.TrimSpace(r.JobTitle)
	app.JobType = strings.TrimSpace(r.JobType)
	app.Location = strings.TrimSpace(r.Location)
	app.JobLink = strings.TrimSpace(r.JobLink)
	app.Notes = r.Notes

	app.Status = models.Status(r.Status)
	if app.Status == "" {
		app.Status = models.StatusApplied
	}
	app.PriorityLevel = models.Priority(r.PriorityLevel)
	if app.PriorityLevel == "" {
		app.PriorityLevel = models.PriorityMedium
	}
	app.ApplicationDate = models.ParseApplicationDate(r.ApplicationDate)
}

// FromApplication builds a request prefilled from an existing record.
func FromApplication(app *models.JobApplication) ApplicationRequest {
	return ApplicationRequest{
		CompanyName:     app.CompanyName,
		JobTitle:        app.JobTitle,
		JobType:         app.JobType,
		Location:        app.Location,
		Status:          string(app.Status),
		PriorityLevel:   string(app.PriorityLevel),
		ApplicationDate: app.ApplicationDate.FormValue(),
		JobLink:         app.JobLink,
		Notes:           app.Notes,
	}
}

type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type ApplicationListResponse struct {
	Data       []models.JobApplication `json:"data"`
	Pagination Pagination              `json:"pagination"`
}
