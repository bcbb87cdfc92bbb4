package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/justsurfingit/job-board/internal/logging"
	"github.com/justsurfingit/job-board/internal/metrics"
	"github.com/justsurfingit/job-board/internal/models"
	"go.uber.org/zap"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"gorm.io/gorm"
)

const fullSyncQuery = "subject:(application OR interview OR update OR offer OR rejected OR status) newer_than:7d"

type statusAnalyzer interface {
	AnalyzeEmailStatus(ctx context.Context, company, subject, body string) (EmailAnalysis, error)
	IdentifyApplication(ctx context.Context, titles []string, subject, body string) int
}

type applicationTracker interface {
	ActiveForCompany(ctx context.Context, company string) ([]models.JobApplication, error)
	UpdateStatus(ctx context.Context, id string, status models.Status, details string) error
}

type companyMatcher interface {
	FindCompanyFromEmail(ctx context.Context, subject, rawSender string) (string, error)
}

type EmailService struct {
	DB           *gorm.DB
	Analyzer     statusAnalyzer
	Applications applicationTracker
	Matcher      companyMatcher
	GmailClient  *gmail.Service

	log *zap.Logger
}

func NewEmailService(db *gorm.DB, analyzer statusAnalyzer, gmailClient *gmail.Service, apps applicationTracker, matcher companyMatcher) *EmailService {
	return &EmailService{
		DB:           db,
		Analyzer:     analyzer,
		Applications: apps,
		Matcher:      matcher,
		GmailClient:  gmailClient,
		log:          logging.Named("email"),
	}
}

// StartWatcher syncs once immediately and then every interval until ctx ends.
func (s *EmailService) StartWatcher(ctx context.Context, interval time.Duration) {
	if s.GmailClient == nil || s.Analyzer == nil {
		s.log.Warn("Gmail watcher disabled (no Gmail client or LLM)")
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		s.SyncEmails(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.SyncEmails(ctx)
			}
		}
	}()
}

// SyncEmails runs one bootstrap or incremental sync cycle.
func (s *EmailService) SyncEmails(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, 2*time.Minute)
	defer cancel()

	s.log.Info("Starting sync cycle")

	var user models.User
	if err := s.DB.WithContext(ctx).First(&user).Error; err != nil {
		user = models.User{Email: "default", LastHistoryID: 0}
		s.DB.WithContext(ctx).Create(&user)
	}

	var messages []*gmail.Message
	var failed []string
	var newHistoryID uint64
	var err error

	mode := "incremental"
	if user.LastHistoryID == 0 {
		mode = "full"
		s.log.Info("First run detected, running full bootstrap sync")
		messages, failed, newHistoryID, err = s.performFullSync(ctx)
	} else {
		messages, failed, newHistoryID, err = s.performIncrementalSync(ctx, user.LastHistoryID)
		if err != nil && isHistoryExpiredError(err) {
			mode = "full"
			s.log.Warn("History ID expired, falling back to full sync")
			messages, failed, newHistoryID, err = s.performFullSync(ctx)
		}
	}
	metrics.EmailSyncRuns.WithLabelValues(mode, metrics.Result(err)).Inc()
	if err != nil {
		s.log.Error("Sync failed", zap.Error(err))
		return
	}

	if len(messages) > 0 {
		s.log.Info("Processing candidate emails", zap.Int("count", len(messages)))
	}

	for _, msg := range messages {
		var count int64
		s.DB.WithContext(ctx).Model(&models.ProcessedEmail{}).Where("id = ?", msg.Id).Count(&count)
		if count > 0 {
			continue
		}

		if s.settleMessage(ctx, msg) {
			s.DB.WithContext(ctx).Create(&models.ProcessedEmail{ID: msg.Id})
		}
	}

	if len(failed) > 0 {
		s.log.Warn("Some emails could not be fetched, keeping the history bookmark", zap.Strings("message_ids", failed))
	}
	if next := nextBookmark(user.LastHistoryID, newHistoryID, len(failed)); next != user.LastHistoryID {
		s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Update("last_history_id", next)
		s.log.Debug("History bookmark updated", zap.Uint64("history_id", next))
	}
}

// settleMessage processes one email and reports whether it is done with. A
// failed attempt is left unmarked so the next cycle retries it.
func (s *EmailService) settleMessage(ctx context.Context, msg *gmail.Message) bool {
	headers := parseHeaders(msg)
	if _, err := s.processEmail(ctx, headers["Subject"], headers["From"], getEmailBody(msg)); err != nil {
		s.log.Warn("Email processing failed, will retry", zap.String("message_id", msg.Id), zap.Error(err))
		return false
	}
	return true
}

// nextBookmark advances the history id, even for an empty window so it is
// not rescanned, unless a message in the window could not be fetched.
func nextBookmark(current, latest uint64, fetchFailures int) uint64 {
	if fetchFailures > 0 || latest <= current {
		return current
	}
	return latest
}

func (s *EmailService) performFullSync(ctx context.Context) ([]*gmail.Message, []string, uint64, error) {
	var resp *gmail.ListMessagesResponse
	err := retry(ctx, 3, time.Second, func() error {
		var e error
		resp, e = s.GmailClient.Users.Messages.List("me").Q(fullSyncQuery).MaxResults(50).Context(ctx).Do()
		return e
	})
	if err != nil {
		return nil, nil, 0, err
	}

	profile, err := s.GmailClient.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return nil, nil, 0, err
	}

	messages, failed := s.expandMessages(ctx, resp.Messages)
	return messages, failed, profile.HistoryId, nil
}

func (s *EmailService) performIncrementalSync(ctx context.Context, startID uint64) ([]*gmail.Message, []string, uint64, error) {
	var resp *gmail.ListHistoryResponse
	err := retry(ctx, 3, time.Second, func() error {
		var e error
		resp, e = s.GmailClient.Users.History.List("me").StartHistoryId(startID).HistoryTypes("messageAdded").Context(ctx).Do()
		return e
	})
	if err != nil {
		return nil, nil, 0, err
	}

	var headers []*gmail.Message
	for _, h := range resp.History {
		for _, added := range h.MessagesAdded {
			if added.Message != nil {
				headers = append(headers, added.Message)
			}
		}
	}

	messages, failed := s.expandMessages(ctx, headers)
	return messages, failed, resp.HistoryId, nil
}

// expandMessages fetches full messages. Messages deleted since they were
// listed (404) are skipped; the ids of other failures are returned.
func (s *EmailService) expandMessages(ctx context.Context, headers []*gmail.Message) (full []*gmail.Message, failed []string) {
	for _, h := range headers {
		err := retry(ctx, 2, 500*time.Millisecond, func() error {
			msg, err := s.GmailClient.Users.Messages.Get("me", h.Id).Context(ctx).Do()
			if err == nil {
				full = append(full, msg)
			}
			return err
		})
		switch {
		case err == nil:
		case isHistoryExpiredError(err):
			s.log.Debug("Email no longer exists", zap.String("message_id", h.Id))
		default:
			failed = append(failed, h.Id)
		}
	}
	return full, failed
}

type emailOutcome string

const (
	outcomeNoCompany   emailOutcome = "no_company"
	outcomeNoActive    emailOutcome = "no_active_application"
	outcomeAmbiguous   emailOutcome = "ambiguous"
	outcomeUnchanged   emailOutcome = "unchanged"
	outcomeStatusSaved emailOutcome = "status_updated"
)

// processEmail matches an email to an application, asks the model for the
// implied status and records it when it changed.
func (s *EmailService) processEmail(ctx context.Context, subject, sender, body string) (emailOutcome, error) {
	log := s.log.With(zap.String("subject", truncate(subject, 40)))

	company, err := s.Matcher.FindCompanyFromEmail(ctx, subject, sender)
	if err != nil {
		return "", err
	}
	if company == "" {
		log.Debug("Skipped: no tracked company matches", zap.String("from", sender))
		return outcomeNoCompany, nil
	}

	apps, err := s.Applications.ActiveForCompany(ctx, company)
	if err != nil {
		return "", err
	}
	if len(apps) == 0 {
		log.Debug("Skipped: no active application", zap.String("company", company))
		return outcomeNoActive, nil
	}

	target := &apps[0]
	if len(apps) > 1 {
		titles := make([]string, len(apps))
		for i, app := range apps {
			titles[i] = app.JobTitle
		}
		idx := s.Analyzer.IdentifyApplication(ctx, titles, subject, body)
		if idx < 0 {
			log.Info("Skipped: could not tell which application the email is about", zap.Strings("titles", titles))
			return outcomeAmbiguous, nil
		}
		target = &apps[idx]
	}

	analysis, err := s.Analyzer.AnalyzeEmailStatus(ctx, company, subject, body)
	if err != nil {
		return "", fmt.Errorf("analyze email: %w", err)
	}

	status := models.Status(analysis.Status)
	if !status.Known() || status == target.Status {
		log.Debug("No status change", zap.String("status", analysis.Status))
		return outcomeUnchanged, nil
	}

	details := fmt.Sprintf("Status changed to %s. Summary: %s", status, analysis.Summary)
	if err := s.Applications.UpdateStatus(ctx, target.ID, status, details); err != nil {
		return "", err
	}
	metrics.EmailStatusUpdates.Inc()
	log.Info("Status updated from email",
		zap.String("application_id", target.ID),
		zap.String("from", string(target.Status)),
		zap.String("to", string(status)),
	)
	return outcomeStatusSaved, nil
}

// retry runs f with exponential backoff. A 404 (expired history id) fails
// fast so the caller can switch to a full sync.
func retry(ctx context.Context, attempts int, sleep time.Duration, f func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = f(); err == nil {
			return nil
		}
		if isHistoryExpiredError(err) {
			return err
		}
		if i == attempts-1 {
			break
		}

		logging.Named("email").Warn("API error, retrying", zap.Error(err), zap.Duration("backoff", sleep))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
		sleep *= 2
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, err)
}

func isHistoryExpiredError(err error) bool {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code == 404
	}
	return false
}

func parseHeaders(msg *gmail.Message) map[string]string {
	res := make(map[string]string)
	if msg.Payload == nil {
		return res
	}
	for _, h := range msg.Payload.Headers {
		res[h.Name] = h.Value
	}
	return res
}

// getEmailBody prefers the top-level body, then text/plain, then text/html.
func getEmailBody(msg *gmail.Message) string {
	if msg.Payload == nil {
		return ""
	}
	if msg.Payload.Body != nil && msg.Payload.Body.Data != "" {
		return decodeBody(msg.Payload.Body.Data)
	}
	for _, mime := range []string{"text/plain", "text/html"} {
		for _, part := range msg.Payload.Parts {
			if part.MimeType == mime && part.Body != nil && part.Body.Data != "" {
				return decodeBody(part.Body.Data)
			}
		}
	}
	return ""
}

func decodeBody(data string) string {
	d, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		// Gmail sometimes omits padding.
		d, _ = base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	}
	return string(d)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
