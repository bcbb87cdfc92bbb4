package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/justsurfingit/job-board/internal/auth"
	"github.com/justsurfingit/job-board/internal/dtos"
	"github.com/justsurfingit/job-board/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu        sync.Mutex
	apps      []models.JobApplication
	listErr   error
	listNil   bool
	deleteErr error
	saveErr   error
	listCalls int
	deleted   []string
	created   []dtos.ApplicationRequest
	updated   map[string]dtos.ApplicationRequest

	// blockDelete, when set, holds DeleteApplication until it is closed.
	blockDelete chan struct{}
}

func newFakeStore(n int) *fakeStore {
	s := &fakeStore{updated: map[string]dtos.ApplicationRequest{}}
	for i := 0; i < n; i++ {
		s.apps = append(s.apps, models.JobApplication{ID: fmt.Sprintf("app-%02d", i), CompanyName: fmt.Sprintf("Company %d", i)})
	}
	return s
}

func (s *fakeStore) ListApplications(context.Context) ([]models.JobApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	if s.listNil {
		return nil, nil
	}
	out := make([]models.JobApplication, len(s.apps))
	copy(out, s.apps)
	return out, nil
}

func (s *fakeStore) DeleteApplication(_ context.Context, id string) error {
	if s.blockDelete != nil {
		<-s.blockDelete
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	for i, app := range s.apps {
		if app.ID == id {
			s.apps = append(s.apps[:i], s.apps[i+1:]...)
			break
		}
	}
	return nil
}

func (s *fakeStore) CreateApplication(_ context.Context, req *dtos.ApplicationRequest) (*models.JobApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	s.created = append(s.created, *req)
	app := models.JobApplication{ID: fmt.Sprintf("new-%d", len(s.created))}
	req.Apply(&app)
	s.apps = append(s.apps, app)
	return &app, nil
}

func (s *fakeStore) UpdateApplication(_ context.Context, id string, req *dtos.ApplicationRequest) (*models.JobApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	s.updated[id] = *req
	return &models.JobApplication{ID: id}, nil
}

func (s *fakeStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

func readyObserver() *auth.Broadcaster {
	b := auth.NewBroadcaster()
	b.Publish(auth.State{Email: "me@example.com"})
	return b
}

func newLoadedPage(t *testing.T, store *fakeStore) (*Page, *ToastQueue) {
	t.Helper()
	toasts := &ToastQueue{}
	p := NewPage(store, readyObserver(), toasts)
	require.NoError(t, p.Load(context.Background()))
	return p, toasts
}

func TestPage_LoadShowsFirstPage(t *testing.T) {
	p, _ := newLoadedPage(t, newFakeStore(16))

	v := p.View()
	assert.Equal(t, 16, v.Total)
	assert.Equal(t, 2, v.TotalPages)
	assert.Equal(t, 1, v.CurrentPage)
	assert.True(t, v.ShowControls)
	assert.Len(t, v.Applications, 15)
	assert.Equal(t, "app-00", v.Applications[0].ID)

	p.Next()
	v = p.View()
	require.Len(t, v.Applications, 1)
	assert.Equal(t, "app-15", v.Applications[0].ID)

	p.Next()
	assert.Equal(t, 2, p.View().CurrentPage)
}

func TestPage_LoadWaitsForAuth(t *testing.T) {
	store := newFakeStore(3)
	b := auth.NewBroadcaster()
	p := NewPage(store, b, &ToastQueue{})

	done := make(chan error, 1)
	go func() { done <- p.Load(context.Background()) }()

	b.Publish(auth.State{})
	require.NoError(t, <-done)
	assert.Equal(t, 1, store.calls())
	assert.True(t, p.Loaded())
}

func TestPage_LoadAuthFailureIsFatal(t *testing.T) {
	store := newFakeStore(3)
	b := auth.NewBroadcaster()
	b.Publish(auth.State{Err: errors.New("token revoked")})
	p := NewPage(store, b, &ToastQueue{})

	err := p.Load(context.Background())

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "auth", loadErr.Stage)
	assert.Equal(t, 0, store.calls(), "no fetch after a failed auth check")
}

func TestPage_LoadFetchFailureIsFatal(t *testing.T) {
	store := newFakeStore(0)
	boom := errors.New("connection refused")
	store.listErr = boom
	p := NewPage(store, readyObserver(), &ToastQueue{})

	err := p.Load(context.Background())

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "fetch", loadErr.Stage)
	assert.ErrorIs(t, err, boom)
	assert.False(t, p.Loaded())
}

func TestPage_LoadNilResultShowsFallback(t *testing.T) {
	store := newFakeStore(0)
	store.listNil = true
	toasts := &ToastQueue{}
	p := NewPage(store, readyObserver(), toasts)

	require.NoError(t, p.Load(context.Background()))

	v := p.View()
	assert.True(t, v.Unavailable)
	assert.Equal(t, FallbackNoRecord, v.Fallback)
	got := toasts.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, VariantDestructive, got[0].Variant)
}

func TestPage_LoadEmptyListIsNotUnavailable(t *testing.T) {
	p, toasts := newLoadedPage(t, newFakeStore(0))

	v := p.View()
	assert.False(t, v.Unavailable)
	assert.Equal(t, 0, v.TotalPages)
	assert.False(t, v.ShowControls)
	assert.Empty(t, toasts.Drain())
}

func TestPage_ConfirmDeleteFailure(t *testing.T) {
	store := newFakeStore(3)
	store.deleteErr = errors.New("network down")
	p, toasts := newLoadedPage(t, store)
	callsBefore := store.calls()

	p.Dispatch(OpenDelete{ID: "abc"})
	require.NoError(t, p.ConfirmDelete(context.Background()))

	s := p.Dialog()
	assert.False(t, s.DeleteOpen)
	assert.Empty(t, s.DeleteID)
	assert.Equal(t, PendingNone, s.Pending)

	got := toasts.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, "network down", got[0].Description)
	assert.Equal(t, VariantDestructive, got[0].Variant)
	assert.Equal(t, callsBefore, store.calls(), "no reload after a failed delete")
	assert.Equal(t, 3, p.View().Total)
}

func TestPage_ConfirmDeleteEmptyErrorMessageFallsBack(t *testing.T) {
	store := newFakeStore(1)
	store.deleteErr = errors.New("")
	p, toasts := newLoadedPage(t, store)

	p.Dispatch(OpenDelete{ID: "app-00"})
	require.NoError(t, p.ConfirmDelete(context.Background()))

	got := toasts.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, MsgDeleteFailed, got[0].Description)
}

func TestPage_ConfirmDeleteSuccess(t *testing.T) {
	store := newFakeStore(3)
	p, toasts := newLoadedPage(t, store)
	callsBefore := store.calls()

	p.Dispatch(OpenDelete{ID: "app-01"})
	require.NoError(t, p.ConfirmDelete(context.Background()))

	assert.Equal(t, callsBefore+1, store.calls(), "exactly one reload")
	assert.Equal(t, []string{"app-01"}, store.deleted)

	got := toasts.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, MsgDeleted, got[0].Description)

	s := p.Dialog()
	assert.False(t, s.DeleteOpen)
	assert.Empty(t, s.DeleteID)
	assert.Equal(t, 2, p.View().Total)
}

func TestPage_ConfirmDeleteWithoutDialog(t *testing.T) {
	p, _ := newLoadedPage(t, newFakeStore(1))
	assert.ErrorIs(t, p.ConfirmDelete(context.Background()), ErrNoPendingDelete)
}

func TestPage_ConfirmDeleteRejectsDuplicate(t *testing.T) {
	store := newFakeStore(2)
	p, _ := newLoadedPage(t, store)
	store.blockDelete = make(chan struct{})

	p.Dispatch(OpenDelete{ID: "app-00"})
	first := make(chan error, 1)
	go func() { first <- p.ConfirmDelete(context.Background()) }()

	require.Eventually(t, func() bool { return p.Dialog().Pending == PendingDelete }, time.Second, time.Millisecond)
	assert.ErrorIs(t, p.ConfirmDelete(context.Background()), ErrMutationInFlight)

	close(store.blockDelete)
	require.NoError(t, <-first)
	assert.Equal(t, []string{"app-00"}, store.deleted)
}

func TestPage_DeleteOnLastPageDoesNotMovePager(t *testing.T) {
	store := newFakeStore(16)
	p, _ := newLoadedPage(t, store)
	p.Next()

	p.Dispatch(OpenDelete{ID: "app-15"})
	require.NoError(t, p.ConfirmDelete(context.Background()))

	v := p.View()
	assert.Equal(t, 2, v.CurrentPage)
	assert.Equal(t, 1, v.TotalPages)
	assert.Empty(t, v.Applications)
}

func TestPage_SaveCreatesInAddMode(t *testing.T) {
	store := newFakeStore(1)
	p, toasts := newLoadedPage(t, store)
	callsBefore := store.calls()

	p.Dispatch(OpenAdd{})
	require.NoError(t, p.Save(context.Background(), &dtos.ApplicationRequest{CompanyName: "Stripe", JobTitle: "SWE"}))

	require.Len(t, store.created, 1)
	assert.Empty(t, store.updated)
	assert.Equal(t, callsBefore+1, store.calls())
	assert.False(t, p.Dialog().FormOpen)
	assert.Equal(t, 2, p.View().Total)

	got := toasts.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, MsgSaved, got[0].Description)
}

func TestPage_SaveUpdatesInEditMode(t *testing.T) {
	store := newFakeStore(2)
	p, toasts := newLoadedPage(t, store)

	require.True(t, p.OpenEditByID("app-01"))
	require.NoError(t, p.Save(context.Background(), &dtos.ApplicationRequest{CompanyName: "Renamed", JobTitle: "SWE"}))

	assert.Contains(t, store.updated, "app-01")
	assert.Empty(t, store.created)
	assert.Equal(t, MsgSaved, toasts.Drain()[0].Description, "create and edit share one message")
}

func TestPage_SaveFailureKeepsFormOpen(t *testing.T) {
	store := newFakeStore(1)
	store.saveErr = errors.New("duplicate application")
	p, toasts := newLoadedPage(t, store)
	callsBefore := store.calls()

	p.Dispatch(OpenAdd{})
	require.NoError(t, p.Save(context.Background(), &dtos.ApplicationRequest{CompanyName: "Stripe", JobTitle: "SWE"}))

	s := p.Dialog()
	assert.True(t, s.FormOpen)
	assert.Equal(t, PendingNone, s.Pending)
	assert.Equal(t, callsBefore, store.calls())
	assert.Equal(t, "duplicate application", toasts.Drain()[0].Description)
}

func TestPage_SaveWithoutForm(t *testing.T) {
	p, _ := newLoadedPage(t, newFakeStore(1))
	assert.ErrorIs(t, p.Save(context.Background(), &dtos.ApplicationRequest{}), ErrFormClosed)
}

func TestPage_OpenEditByIDUnknown(t *testing.T) {
	p, _ := newLoadedPage(t, newFakeStore(1))
	assert.False(t, p.OpenEditByID("missing"))
	assert.Equal(t, ModeIdle, p.Dialog().Mode())
}

func TestPage_ReloadKeepsCurrentPage(t *testing.T) {
	store := newFakeStore(40)
	p, _ := newLoadedPage(t, store)
	p.Goto(3)

	require.NoError(t, p.Reload(context.Background()))
	assert.Equal(t, 3, p.View().CurrentPage)
}

func TestPage_LoadSucceedsWithoutMailbox(t *testing.T) {
	store := newFakeStore(2)
	b := auth.NewBroadcaster()
	b.Publish(auth.State{MailErr: errors.New("gmail profile: dial tcp: i/o timeout")})

	for i := 0; i < 3; i++ {
		p := NewPage(store, b, &ToastQueue{})
		require.NoError(t, p.Load(context.Background()))
		assert.Equal(t, 2, p.View().Total)
	}
}
