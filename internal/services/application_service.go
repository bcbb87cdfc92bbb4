package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/justsurfingit/job-board/internal/dtos"
	"github.com/justsurfingit/job-board/internal/metrics"
	"github.com/justsurfingit/job-board/internal/models"
	"gorm.io/gorm"
)

var ErrApplicationNotFound = errors.New("application not found")

type ApplicationService struct {
	DB *gorm.DB
}

func NewApplicationService(db *gorm.DB) *ApplicationService {
	return &ApplicationService{
		DB: db,
	}
}

// ListApplications returns every application, newest first. The result is
// never nil on success.
func (s *ApplicationService) ListApplications(ctx context.Context) ([]models.JobApplication, error) {
	apps := make([]models.JobApplication, 0)
	if err := s.DB.WithContext(ctx).Order("created_at desc").Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// ListPage returns one page (1-based) plus the total row count.
func (s *ApplicationService) ListPage(ctx context.Context, page, perPage int) ([]models.JobApplication, int64, error) {
	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.JobApplication{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}

	apps := make([]models.JobApplication, 0, perPage)
	err := s.DB.WithContext(ctx).
		Order("created_at desc").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&apps).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list applications page %d: %w", page, err)
	}
	return apps, total, nil
}

func (s *ApplicationService) GetApplication(ctx context.Context, id string) (*models.JobApplication, error) {
	var app models.JobApplication
	err := s.DB.WithContext(ctx).First(&app, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get application %s: %w", id, err)
	}
	return &app, nil
}

func (s *ApplicationService) CreateApplication(ctx context.Context, req *dtos.ApplicationRequest) (*models.JobApplication, error) {
	app := &models.JobApplication{}
	req.Apply(app)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(app).Error; err != nil {
			return err
		}
		return tx.Create(&models.ApplicationEvent{
			ApplicationID: app.ID,
			EventType:     "CREATED",
			Details:       fmt.Sprintf("Applied to %s as %s", app.CompanyName, app.JobTitle),
		}).Error
	})
	metrics.ApplicationMutations.WithLabelValues("create", metrics.Result(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}
	return app, nil
}

func (s *ApplicationService) UpdateApplication(ctx context.Context, id string, req *dtos.ApplicationRequest) (*models.JobApplication, error) {
	var app models.JobApplication
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&app, "id = ?", id).Error; err != nil {
			return err
		}
		previous := app.Status
		req.Apply(&app)
		if err := tx.Save(&app).Error; err != nil {
			return err
		}
		if previous == app.Status {
			return nil
		}
		return tx.Create(&models.ApplicationEvent{
			ApplicationID: app.ID,
			EventType:     "STATUS_CHANGE",
			Details:       fmt.Sprintf("Status changed from %s to %s", previous, app.Status),
		}).Error
	})
	metrics.ApplicationMutations.WithLabelValues("update", metrics.Result(err)).Inc()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update application %s: %w", id, err)
	}
	return &app, nil
}

func (s *ApplicationService) DeleteApplication(ctx context.Context, id string) error {
	res := s.DB.WithContext(ctx).Delete(&models.JobApplication{}, "id = ?", id)
	err := res.Error
	if err == nil && res.RowsAffected == 0 {
		err = ErrApplicationNotFound
	}
	metrics.ApplicationMutations.WithLabelValues("delete", metrics.Result(err)).Inc()
	if err != nil && !errors.Is(err, ErrApplicationNotFound) {
		return fmt.Errorf("delete application %s: %w", id, err)
	}
	return err
}

// ActiveForCompany returns non-terminal applications whose company name
// matches, case-insensitively.
func (s *ApplicationService) ActiveForCompany(ctx context.Context, company string) ([]models.JobApplication, error) {
	var apps []models.JobApplication
	err := s.DB.WithContext(ctx).
		Where("LOWER(company_name) = LOWER(?) AND status NOT IN ?", company, []models.Status{models.StatusAccepted, models.StatusRejected}).
		Find(&apps).Error
	if err != nil {
		return nil, fmt.Errorf("active applications for %s: %w", company, err)
	}
	return apps, nil
}

// CompanyNames lists the distinct companies of tracked applications.
func (s *ApplicationService) CompanyNames(ctx context.Context) ([]string, error) {
	var names []string
	err := s.DB.WithContext(ctx).Model(&models.JobApplication{}).Distinct().Pluck("company_name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("company names: %w", err)
	}
	return names, nil
}

// UpdateStatus records a status change coming from outside the board (the
// mail watcher) together with its audit event.
func (s *ApplicationService) UpdateStatus(ctx context.Context, id string, status models.Status, details string) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.JobApplication{}).Where("id = ?", id).Update("status", status)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrApplicationNotFound
		}
		return tx.Create(&models.ApplicationEvent{
			ApplicationID: id,
			EventType:     "EMAIL_UPDATE",
			Details:       details,
		}).Error
	})
	metrics.ApplicationMutations.WithLabelValues("status", metrics.Result(err)).Inc()
	return err
}

func (s *ApplicationService) Events(ctx context.Context, id string) ([]models.ApplicationEvent, error) {
	var events []models.ApplicationEvent
	err := s.DB.WithContext(ctx).Where("application_id = ?", id).Order("created_at asc").Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("events for %s: %w", id, err)
	}
	return events, nil
}
