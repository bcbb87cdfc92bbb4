package handlers

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/justsurfingit/job-board/internal/board"
	"github.com/justsurfingit/job-board/internal/dtos"
	"github.com/justsurfingit/job-board/internal/logging"
	"github.com/justsurfingit/job-board/internal/models"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFiles embed.FS

const (
	sessionName   = "job-board"
	sessionIDKey  = "sid"
	boardPath     = "/board"
	ctxSessionKey = "boardSessionID"
)

func ParseTemplates() (*template.Template, error) {
	funcs := template.FuncMap{
		"statusClass":   board.StatusClass,
		"priorityClass": board.PriorityClass,
	}
	t, err := template.New("").Funcs(funcs).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return t, nil
}

// BoardHandler serves the server-rendered applications board. Each browser
// session owns one board.Page in the registry.
type BoardHandler struct {
	Registry *board.Registry
	Sessions sessions.Store
}

func NewBoardHandler(registry *board.Registry, store sessions.Store) *BoardHandler {
	return &BoardHandler{Registry: registry, Sessions: store}
}

// SessionMiddleware makes sure the browser carries a board session id.
func (h *BoardHandler) SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := h.Sessions.Get(c.Request, sessionName)
		if err != nil {
			// Undecodable cookie, e.g. after a secret rotation: start over.
			logging.Debug("Discarding board session cookie", zap.Error(err))
		}

		sid, _ := sess.Values[sessionIDKey].(string)
		if sid == "" {
			sid = uuid.NewString()
			sess.Values[sessionIDKey] = sid
			if err := sess.Save(c.Request, c.Writer); err != nil {
				logging.Error("Failed to save board session", zap.Error(err))
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
		}

		c.Set(ctxSessionKey, sid)
		c.Next()
	}
}

// session returns the caller's board, mounting and loading it on first use.
// A load failure unmounts the board and renders the error page.
func (h *BoardHandler) session(c *gin.Context) (*board.Session, bool) {
	sid := c.GetString(ctxSessionKey)
	s, mounted := h.Registry.Get(sid)
	if !mounted && s.Page.Loaded() {
		return s, true
	}

	if err := s.Page.Load(c.Request.Context()); err != nil {
		h.Registry.Drop(sid)
		logging.Error("Board load failed", zap.String("session", sid), zap.Error(err))
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"Message": "Something went wrong while loading your applications.",
		})
		return nil, false
	}
	return s, true
}

type boardPage struct {
	board.View
	Toasts     []board.Toast
	Form       dtos.ApplicationRequest
	Statuses   []string
	Priorities []string
}

// selectOptions lists the known values plus current when the record carries
// one outside the list, so the form never rewrites it silently.
func selectOptions[T ~string](known []T, current string) []string {
	out := make([]string, 0, len(known)+1)
	found := current == ""
	for _, v := range known {
		out = append(out, string(v))
		if string(v) == current {
			found = true
		}
	}
	if !found {
		out = append(out, current)
	}
	return out
}

// Show is GET /board.
func (h *BoardHandler) Show(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	view := s.Page.View()
	data := boardPage{
		View:   view,
		Toasts: s.Toasts.Drain(),
	}
	switch view.Mode {
	case board.ModeEditing:
		data.Form = dtos.FromApplication(view.Dialog.Selected)
	case board.ModeAdding:
		data.Form = dtos.ApplicationRequest{
			Status:        string(models.StatusApplied),
			PriorityLevel: string(models.PriorityMedium),
		}
	}
	data.Statuses = selectOptions(models.Statuses, data.Form.Status)
	data.Priorities = selectOptions(models.Priorities, data.Form.PriorityLevel)

	c.HTML(http.StatusOK, "board.html", data)
}

// Paginate is POST /board/page with to=prev|next|<n>.
func (h *BoardHandler) Paginate(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	switch to := c.PostForm("to"); to {
	case "prev":
		s.Page.Previous()
	case "next":
		s.Page.Next()
	default:
		if n, err := strconv.Atoi(to); err == nil {
			s.Page.Goto(n)
		}
	}
	redirectToBoard(c)
}

func (h *BoardHandler) OpenAdd(c *gin.Context) {
	h.dispatch(c, board.OpenAdd{})
}

func (h *BoardHandler) OpenEdit(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if !s.Page.OpenEditByID(c.Param("id")) {
		s.Toasts.Notify(board.Toast{Title: "Error", Description: "That application no longer exists.", Variant: board.VariantDestructive})
	}
	redirectToBoard(c)
}

func (h *BoardHandler) OpenDelete(c *gin.Context) {
	h.dispatch(c, board.OpenDelete{ID: c.Param("id")})
}

func (h *BoardHandler) CloseDialog(c *gin.Context) {
	h.dispatch(c, board.CloseDialog{})
}

func (h *BoardHandler) CloseDelete(c *gin.Context) {
	h.dispatch(c, board.CloseDelete{})
}

func (h *BoardHandler) dispatch(c *gin.Context, a board.Action) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.Page.Dispatch(a)
	redirectToBoard(c)
}

// Save is POST /board/save, submitted by the add/edit dialog.
func (h *BoardHandler) Save(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req dtos.ApplicationRequest
	err := c.ShouldBind(&req)
	if err == nil {
		// Editing may keep a status or priority the lists no longer offer.
		err = req.CheckValues(s.Page.Dialog().Selected)
	}
	if err != nil {
		s.Toasts.Notify(board.Toast{Title: "Invalid application", Description: err.Error(), Variant: board.VariantDestructive})
		redirectToBoard(c)
		return
	}

	if err := s.Page.Save(c.Request.Context(), &req); err != nil && !h.handleActionError(c, s, err) {
		return
	}
	redirectToBoard(c)
}

// ConfirmDelete is POST /board/delete-confirm.
func (h *BoardHandler) ConfirmDelete(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.Page.ConfirmDelete(c.Request.Context()); err != nil && !h.handleActionError(c, s, err) {
		return
	}
	redirectToBoard(c)
}

// handleActionError turns recoverable action errors into toasts. It returns
// false when it already rendered a fatal error.
func (h *BoardHandler) handleActionError(c *gin.Context, s *board.Session, err error) bool {
	var loadErr *board.LoadError
	switch {
	case errors.Is(err, board.ErrMutationInFlight):
		s.Toasts.Notify(board.Toast{Title: "Please wait", Description: err.Error(), Variant: board.VariantDefault})
		return true
	case errors.Is(err, board.ErrNoPendingDelete), errors.Is(err, board.ErrFormClosed):
		return true
	case errors.As(err, &loadErr):
		h.Registry.Drop(c.GetString(ctxSessionKey))
		logging.Error("Board reload failed", zap.Error(err))
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"Message": "Something went wrong while loading your applications.",
		})
		return false
	default:
		logging.Error("Board action failed", zap.Error(err))
		s.Toasts.Notify(board.Toast{Title: "Error", Description: err.Error(), Variant: board.VariantDestructive})
		return true
	}
}

func redirectToBoard(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, boardPath)
}
