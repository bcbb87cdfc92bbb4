package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/justsurfingit/job-board/internal/auth"
	"github.com/justsurfingit/job-board/internal/board"
	"github.com/justsurfingit/job-board/internal/dtos"
	"github.com/justsurfingit/job-board/internal/models"
	"github.com/justsurfingit/job-board/internal/services"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memoryService is an in-memory applicationService and board.ApplicationStore.
type memoryService struct {
	mu        sync.Mutex
	apps      []models.JobApplication
	events    map[string][]models.ApplicationEvent
	listErr   error
	deleteErr error
	nextID    int
}

func newMemoryService(n int) *memoryService {
	s := &memoryService{events: map[string][]models.ApplicationEvent{}}
	for i := 0; i < n; i++ {
		s.apps = append(s.apps, models.JobApplication{
			ID:            fmt.Sprintf("app-%02d", i),
			CompanyName:   fmt.Sprintf("Company %02d", i),
			JobTitle:      "Engineer",
			Status:        models.StatusApplied,
			PriorityLevel: models.PriorityMedium,
		})
	}
	return s
}

func (s *memoryService) ListApplications(context.Context) ([]models.JobApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.JobApplication, len(s.apps))
	copy(out, s.apps)
	return out, nil
}

func (s *memoryService) ListPage(ctx context.Context, page, perPage int) ([]models.JobApplication, int64, error) {
	all, err := s.ListApplications(ctx)
	if err != nil {
		return nil, 0, err
	}
	return board.Slice(all, page, perPage), int64(len(all)), nil
}

func (s *memoryService) GetApplication(_ context.Context, id string) (*models.JobApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, app := range s.apps {
		if app.ID == id {
			return &app, nil
		}
	}
	return nil, services.ErrApplicationNotFound
}

func (s *memoryService) CreateApplication(_ context.Context, req *dtos.ApplicationRequest) (*models.JobApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	app := models.JobApplication{ID: fmt.Sprintf("new-%d", s.nextID)}
	req.Apply(&app)
	s.apps = append(s.apps, app)
	return &app, nil
}

func (s *memoryService) UpdateApplication(_ context.Context, id string, req *dtos.ApplicationRequest) (*models.JobApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.apps {
		if s.apps[i].ID == id {
			req.Apply(&s.apps[i])
			app := s.apps[i]
			return &app, nil
		}
	}
	return nil, services.ErrApplicationNotFound
}

func (s *memoryService) DeleteApplication(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	for i := range s.apps {
		if s.apps[i].ID == id {
			s.apps = append(s.apps[:i], s.apps[i+1:]...)
			return nil
		}
	}
	return services.ErrApplicationNotFound
}

func (s *memoryService) Events(_ context.Context, id string) ([]models.ApplicationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[id], nil
}

func (s *memoryService) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.apps)
}

type stubExtractor struct {
	req *dtos.ApplicationRequest
	err error
}

func (e stubExtractor) ExtractApplicationDetails(context.Context, string) (*dtos.ApplicationRequest, error) {
	return e.req, e.err
}

type testServer struct {
	engine   *gin.Engine
	svc      *memoryService
	registry *board.Registry
	cookies  []*http.Cookie
}

func newTestServer(t *testing.T, svc *memoryService, extractor PostingExtractor) *testServer {
	t.Helper()

	b := auth.NewBroadcaster()
	b.Publish(auth.State{})
	registry := board.NewRegistry(svc, b, time.Hour)

	r := &Router{
		Applications: NewApplicationHandler(svc, extractor),
		Board:        NewBoardHandler(registry, sessions.NewCookieStore([]byte("test-session-secret-0123456789ab"))),
		Health:       NewHealthHandler(func(context.Context) error { return nil }, b),
	}
	e, err := r.Engine()
	require.NoError(t, err)

	return &testServer{engine: e, svc: svc, registry: registry}
}

// do sends a request carrying the cookies collected so far.
func (ts *testServer) do(method, path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	switch {
	case strings.HasPrefix(path, "/api/"):
		req.Header.Set("Content-Type", "application/json")
	case method == http.MethodPost:
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range ts.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)

	if set := rec.Result().Cookies(); len(set) > 0 {
		ts.cookies = set
	}
	return rec
}
