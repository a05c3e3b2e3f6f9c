package session

import (
	"fmt"
	"io"
	"sync"
)

// Notifier surfaces blocking, user-facing alerts
type Notifier interface {
	Alert(title, message string)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(title, message string)

func (f NotifierFunc) Alert(title, message string) {
	f(title, message)
}

// WriterNotifier prints alerts as "title: message" lines
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterNotifier creates a notifier writing to w
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (n *WriterNotifier) Alert(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "%s: %s\n", title, message)
}
