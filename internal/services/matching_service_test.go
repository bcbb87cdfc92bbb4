package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCompanies struct {
	names []string
	err   error
}

func (s staticCompanies) CompanyNames(context.Context) ([]string, error) {
	return s.names, s.err
}

func TestMatchCompany(t *testing.T) {
	companies := []string{"Go", "Stripe", "Acme Corp"}

	tests := []struct {
		name    string
		subject string
		sender  string
		want    string
	}{
		{"subject match", "Update on your application to Stripe", "noreply@greenhouse.io", "Stripe"},
		{"display name match", "Your application", "Stripe Recruiting <jobs@greenhouse.io>", "Stripe"},
		{"domain match", "Next steps", "jobs@stripe.com", "Stripe"},
		{"domain match ignores spaces", "Next steps", "Talent <talent@acmecorp.com>", "Acme Corp"},
		{"short names never match", "Go team says hi", "someone@example.com", ""},
		{"no match", "Newsletter", "news@example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchCompany(companies, tt.subject, tt.sender))
		})
	}
}

func TestMatcherService_FindCompanyFromEmail(t *testing.T) {
	m := NewMatcherService(staticCompanies{names: []string{"Stripe"}})
	got, err := m.FindCompanyFromEmail(context.Background(), "Interview with Stripe", "x@y.com")
	require.NoError(t, err)
	assert.Equal(t, "Stripe", got)

	boom := errors.New("db down")
	m = NewMatcherService(staticCompanies{err: boom})
	_, err = m.FindCompanyFromEmail(context.Background(), "s", "x@y.com")
	assert.ErrorIs(t, err, boom)
}
