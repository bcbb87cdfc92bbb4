package board

import "sync"

type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

type Toast struct {
	Title       string
	Description string
	Variant     Variant
}

type Notifier interface {
	Notify(Toast)
}

// ToastQueue buffers toasts until the next render drains them.
type ToastQueue struct {
	mu     sync.Mutex
	toasts []Toast
}

func (q *ToastQueue) Notify(t Toast) {
	q.mu.Lock()
	q.toasts = append(q.toasts, t)
	q.mu.Unlock()
}

func (q *ToastQueue) Drain() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.toasts
	q.toasts = nil
	return out
}
