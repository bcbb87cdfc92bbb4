package board

import (
	"testing"

	"github.com/justsurfingit/job-board/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestStatusClass(t *testing.T) {
	for _, s := range models.Statuses {
		assert.NotEqual(t, defaultBadgeClass, StatusClass(s), s)
	}
	assert.Equal(t, defaultBadgeClass, StatusClass("Ghosted"))
	assert.Equal(t, defaultBadgeClass, StatusClass(""))
}

func TestPriorityClass(t *testing.T) {
	for _, p := range models.Priorities {
		assert.NotEqual(t, defaultBadgeClass, PriorityClass(p), p)
	}
	assert.Equal(t, defaultBadgeClass, PriorityClass("Urgent"))
}
