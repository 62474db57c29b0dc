package notify

import (
	"context"
	"time"

	"posebvh/internal/store"
)

// Event is the payload published after every successful export.
type Event struct {
	ID        string    `json:"id"`
	FileName  string    `json:"file_name"`
	Frames    int       `json:"frames"`
	Bytes     int64     `json:"bytes"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

type Notifier interface {
	Publish(ctx context.Context, event Event) error
	Close()
}

func EventFromExport(e store.Export) Event {
	return Event{
		ID:        e.ID,
		FileName:  e.FileName,
		Frames:    e.Frames,
		Bytes:     e.Bytes,
		Source:    e.Source,
		CreatedAt: e.CreatedAt,
	}
}

// Nop discards events. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(ctx context.Context, event Event) error { return nil }

func (Nop) Close() {}
