package board

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/justsurfingit/job-board/internal/auth"
	"github.com/justsurfingit/job-board/internal/dtos"
	"github.com/justsurfingit/job-board/internal/logging"
	"github.com/justsurfingit/job-board/internal/metrics"
	"github.com/justsurfingit/job-board/internal/models"
	"go.uber.org/zap"
)

const (
	MsgDeleted       = "Application has been deleted successfully."
	MsgSaved         = "Application has been saved successfully."
	MsgDeleteFailed  = "Failed to delete application."
	MsgSaveFailed    = "Failed to save application."
	MsgLoadFailed    = "Failed to fetch applications."
	FallbackNoRecord = "Unable to load applications right now."
)

var (
	ErrMutationInFlight = errors.New("another change is still being saved")
	ErrNoPendingDelete  = errors.New("no application selected for deletion")
	ErrFormClosed       = errors.New("application form is not open")
)

// ApplicationStore is the remote record store the board reads and mutates.
type ApplicationStore interface {
	ListApplications(ctx context.Context) ([]models.JobApplication, error)
	DeleteApplication(ctx context.Context, id string) error
	CreateApplication(ctx context.Context, req *dtos.ApplicationRequest) (*models.JobApplication, error)
	UpdateApplication(ctx context.Context, id string, req *dtos.ApplicationRequest) (*models.JobApplication, error)
}

// LoadError is fatal for the page: the auth check or the fetch failed.
type LoadError struct {
	Stage string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading applications (%s): %v", e.Stage, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Page is the board for one browser session: the cached list, the pager and
// the dialog state. State access is serialized; store calls run unlocked.
type Page struct {
	store    ApplicationStore
	auth     auth.Observer
	notifier Notifier

	mu           sync.Mutex
	dialog       DialogState
	pager        Pager
	applications []models.JobApplication
	loaded       bool
	unavailable  bool
}

func NewPage(store ApplicationStore, observer auth.Observer, notifier Notifier) *Page {
	return &Page{
		store:    store,
		auth:     observer,
		notifier: notifier,
		pager:    NewPager(),
	}
}

// Load waits for the first auth state, then fetches the full list.
func (p *Page) Load(ctx context.Context) error {
	if _, err := auth.WaitReady(ctx, p.auth); err != nil {
		metrics.BoardLoads.WithLabelValues("error").Inc()
		return &LoadError{Stage: "auth", Err: err}
	}

	apps, err := p.store.ListApplications(ctx)
	if err != nil {
		metrics.BoardLoads.WithLabelValues("error").Inc()
		return &LoadError{Stage: "fetch", Err: err}
	}

	if apps == nil {
		metrics.BoardLoads.WithLabelValues("empty").Inc()
		p.notifier.Notify(Toast{Title: "Error", Description: MsgLoadFailed, Variant: VariantDestructive})
		p.mu.Lock()
		p.applications = nil
		p.loaded = true
		p.unavailable = true
		p.mu.Unlock()
		return nil
	}

	metrics.BoardLoads.WithLabelValues("success").Inc()
	p.mu.Lock()
	p.applications = apps
	p.loaded = true
	p.unavailable = false
	p.mu.Unlock()
	return nil
}

// Reload discards the cached list and fetches it again.
func (p *Page) Reload(ctx context.Context) error {
	return p.Load(ctx)
}

func (p *Page) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loaded
}

func (p *Page) Dispatch(a Action) DialogState {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dialog = Reduce(p.dialog, a)
	return p.dialog
}

func (p *Page) Dialog() DialogState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dialog
}

// OpenEditByID opens the form for a record from the cached list.
func (p *Page) OpenEditByID(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, app := range p.applications {
		if app.ID == id {
			p.dialog = Reduce(p.dialog, OpenEdit{Application: app})
			return true
		}
	}
	return false
}

func (p *Page) Previous() {
	p.mu.Lock()
	p.pager.Previous()
	p.mu.Unlock()
}

func (p *Page) Next() {
	p.mu.Lock()
	p.pager.Next(TotalPages(len(p.applications), ItemsPerPage))
	p.mu.Unlock()
}

func (p *Page) Goto(n int) {
	p.mu.Lock()
	p.pager.Goto(n)
	p.mu.Unlock()
}

// Save is the create/update path of the form dialog.
func (p *Page) Save(ctx context.Context, req *dtos.ApplicationRequest) error {
	p.mu.Lock()
	if !p.dialog.FormOpen {
		p.mu.Unlock()
		return ErrFormClosed
	}
	if p.dialog.Busy() {
		p.mu.Unlock()
		return ErrMutationInFlight
	}
	p.dialog = Reduce(p.dialog, BeginSave{})
	var editID string
	if p.dialog.Selected != nil {
		editID = p.dialog.Selected.ID
	}
	p.mu.Unlock()

	var err error
	if editID == "" {
		_, err = p.store.CreateApplication(ctx, req)
	} else {
		_, err = p.store.UpdateApplication(ctx, editID, req)
	}
	if err != nil {
		logging.Named("board").Warn("Save failed", zap.String("id", editID), zap.Error(err))
		p.notifier.Notify(Toast{Title: "Error", Description: errorDescription(err, MsgSaveFailed), Variant: VariantDestructive})
		p.Dispatch(SaveFailed{})
		return nil
	}

	return p.CloseAfterSave(ctx)
}

// CloseAfterSave closes the form, announces success and reloads the list.
func (p *Page) CloseAfterSave(ctx context.Context) error {
	p.Dispatch(CloseDialog{})
	p.notifier.Notify(Toast{Title: "Success", Description: MsgSaved, Variant: VariantDefault})
	return p.Reload(ctx)
}

// ConfirmDelete deletes the record under confirmation. A failed delete is
// reported as a toast and the dialog closes anyway; only a failed reload
// after a successful delete is returned.
func (p *Page) ConfirmDelete(ctx context.Context) error {
	p.mu.Lock()
	if !p.dialog.DeleteOpen || p.dialog.DeleteID == "" {
		p.mu.Unlock()
		return ErrNoPendingDelete
	}
	if p.dialog.Busy() {
		p.mu.Unlock()
		return ErrMutationInFlight
	}
	p.dialog = Reduce(p.dialog, BeginDelete{})
	id := p.dialog.DeleteID
	p.mu.Unlock()

	if err := p.store.DeleteApplication(ctx, id); err != nil {
		logging.Named("board").Warn("Delete failed", zap.String("id", id), zap.Error(err))
		p.notifier.Notify(Toast{Title: "Error", Description: errorDescription(err, MsgDeleteFailed), Variant: VariantDestructive})
		p.Dispatch(CloseDelete{})
		return nil
	}

	p.notifier.Notify(Toast{Title: "Success", Description: MsgDeleted, Variant: VariantDefault})
	err := p.Reload(ctx)
	p.Dispatch(CloseDelete{})
	return err
}

func errorDescription(err error, fallback string) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

// View is a consistent snapshot for rendering.
type View struct {
	Applications []models.JobApplication
	Total        int
	CurrentPage  int
	TotalPages   int
	ShowControls bool
	PageNumbers  []int
	Dialog       DialogState
	Mode         Mode
	Unavailable  bool
	Fallback     string
}

func (p *Page) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := TotalPages(len(p.applications), ItemsPerPage)
	v := View{
		Applications: Slice(p.applications, p.pager.Current, ItemsPerPage),
		Total:        len(p.applications),
		CurrentPage:  p.pager.Current,
		TotalPages:   total,
		ShowControls: ShowControls(total),
		PageNumbers:  PageNumbers(total),
		Dialog:       p.dialog,
		Mode:         p.dialog.Mode(),
		Unavailable:  p.unavailable,
	}
	if p.unavailable {
		v.Fallback = FallbackNoRecord
	}
	return v
}
