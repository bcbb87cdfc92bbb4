package board

import "github.com/justsurfingit/job-board/internal/models"

type Mode int

const (
	ModeIdle Mode = iota
	ModeAdding
	ModeEditing
	ModeConfirmingDelete
)

func (m Mode) String() string {
	switch m {
	case ModeAdding:
		return "adding"
	case ModeEditing:
		return "editing"
	case ModeConfirmingDelete:
		return "confirming-delete"
	default:
		return "idle"
	}
}

// Pending marks a mutation that has been submitted and not yet finished.
type Pending int

const (
	PendingNone Pending = iota
	PendingSave
	PendingDelete
)

// DialogState tracks the add/edit form and the delete confirmation. The two
// flags are independent; Mode picks the one that is showing.
type DialogState struct {
	FormOpen   bool
	Selected   *models.JobApplication
	DeleteOpen bool
	DeleteID   string
	Pending    Pending
}

func (s DialogState) Mode() Mode {
	switch {
	case s.FormOpen && s.Selected != nil:
		return ModeEditing
	case s.FormOpen:
		return ModeAdding
	case s.DeleteOpen:
		return ModeConfirmingDelete
	default:
		return ModeIdle
	}
}

func (s DialogState) Busy() bool {
	return s.Pending != PendingNone
}

type Action interface {
	actionName() string
}

type (
	OpenAdd     struct{}
	OpenEdit    struct{ Application models.JobApplication }
	OpenDelete  struct{ ID string }
	CloseDialog struct{}
	CloseDelete struct{}
	BeginSave   struct{}
	SaveFailed  struct{}
	BeginDelete struct{}
)

func (OpenAdd) actionName() string     { return "open_add" }
func (OpenEdit) actionName() string    { return "open_edit" }
func (OpenDelete) actionName() string  { return "open_delete" }
func (CloseDialog) actionName() string { return "close_dialog" }
func (CloseDelete) actionName() string { return "close_delete" }
func (BeginSave) actionName() string   { return "begin_save" }
func (SaveFailed) actionName() string  { return "save_failed" }
func (BeginDelete) actionName() string { return "begin_delete" }

// Reduce is the dialog transition function. It never fails: actions that do
// not apply to the current state, and unknown actions, return s unchanged.
func Reduce(s DialogState, a Action) DialogState {
	switch a := a.(type) {
	case OpenAdd:
		s.FormOpen = true
		s.Selected = nil
	case OpenEdit:
		app := a.Application
		s.FormOpen = true
		s.Selected = &app
	case OpenDelete:
		if a.ID == "" {
			return s
		}
		s.DeleteOpen = true
		s.DeleteID = a.ID
	case CloseDialog:
		s.FormOpen = false
		s.Selected = nil
		if s.Pending == PendingSave {
			s.Pending = PendingNone
		}
	case CloseDelete:
		s.DeleteOpen = false
		s.DeleteID = ""
		if s.Pending == PendingDelete {
			s.Pending = PendingNone
		}
	case BeginSave:
		if s.FormOpen && s.Pending == PendingNone {
			s.Pending = PendingSave
		}
	case SaveFailed:
		if s.Pending == PendingSave {
			s.Pending = PendingNone
		}
	case BeginDelete:
		if s.DeleteOpen && s.Pending == PendingNone {
			s.Pending = PendingDelete
		}
	}
	return s
}
