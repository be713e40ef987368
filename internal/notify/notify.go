// Package notify delivers short user-facing messages about the outcome of an
// operation.
package notify

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Writer prints successes to Out and errors to Err, one line each.
type Writer struct {
	Out io.Writer
	Err io.Writer
}

func (w Writer) Success(msg string) { fmt.Fprintln(w.Out, msg) }
func (w Writer) Error(msg string)   { fmt.Fprintln(w.Err, "error: "+msg) }

// Logger sends notifications to a structured logger.
type Logger struct {
	L *slog.Logger
}

func (l Logger) Success(msg string) { l.L.Info("notification", "kind", KindSuccess, "message", msg) }
func (l Logger) Error(msg string)   { l.L.Warn("notification", "kind", KindError, "message", msg) }

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

type Message struct {
	Kind Kind
	Text string
}

// Recorder keeps every notification in order. Safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Success(msg string) { r.add(KindSuccess, msg) }
func (r *Recorder) Error(msg string)   { r.add(KindError, msg) }

func (r *Recorder) add(kind Kind, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Kind: kind, Text: msg})
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Success(string) {}
func (Discard) Error(string)   {}
