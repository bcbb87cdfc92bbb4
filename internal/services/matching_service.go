package services

import (
	"context"
	"net/mail"
	"strings"
)

type companyLister interface {
	CompanyNames(ctx context.Context) ([]string, error)
}

type MatcherService struct {
	Companies companyLister
}

func NewMatcherService(companies companyLister) *MatcherService {
	return &MatcherService{Companies: companies}
}

// FindCompanyFromEmail tries to match an email to a tracked company name.
// It returns "" when nothing matches.
func (s *MatcherService) FindCompanyFromEmail(ctx context.Context, subject, rawSender string) (string, error) {
	// TODO: cache the company list between sync cycles instead of querying per email.
	companies, err := s.Companies.CompanyNames(ctx)
	if err != nil {
		return "", err
	}
	return MatchCompany(companies, subject, rawSender), nil
}

// MatchCompany checks, in order, the subject line, the sender display name and
// the sender domain. Names shorter than three characters are skipped since
// they match almost anything.
func MatchCompany(companies []string, subject, rawSender string) string {
	// "Stripe Recruiting <jobs@stripe.com>" -> name="stripe recruiting", addr="jobs@stripe.com"
	senderName := ""
	senderAddr := ""
	if parsed, err := mail.ParseAddress(rawSender); err == nil {
		senderName = strings.ToLower(parsed.Name)
		senderAddr = strings.ToLower(parsed.Address)
	} else {
		senderAddr = strings.ToLower(rawSender)
	}

	domain := ""
	if parts := strings.Split(senderAddr, "@"); len(parts) == 2 {
		domain = parts[1]
	}

	subjectLower := strings.ToLower(subject)

	for _, company := range companies {
		name := strings.ToLower(strings.TrimSpace(company))
		if len(name) < 3 {
			continue
		}

		if strings.Contains(subjectLower, name) {
			return company
		}
		if senderName != "" && strings.Contains(senderName, name) {
			return company
		}
		if domain != "" && strings.Contains(domain, strings.ReplaceAll(name, " ", "")) {
			return company
		}
	}
	return ""
}
