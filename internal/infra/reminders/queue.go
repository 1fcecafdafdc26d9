// Package reminders implements the simple-trigger channel: a JSON queue file
// that an external shortcut drains into a reminders list.
package reminders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"assistant_scheduler/internal/domain/delivery"
)

var ErrEmptyTitle = errors.New("reminder title is empty")

// Reminder is one queued item, in the shape the consumer expects.
type Reminder struct {
	Title     string    `json:"title"`
	Note      string    `json:"notes,omitempty"`
	Due       time.Time `json:"due"`
	List      string    `json:"list"`
	Reference string    `json:"reference,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type queueFile struct {
	Reminders []Reminder `json:"reminders"`
}

// Queue is a file-backed reminder queue. Writes replace the file atomically.
type Queue struct {
	path string
	list string
	now  func() time.Time
	mu   sync.Mutex
}

func NewQueue(path, list string) *Queue {
	return &Queue{path: path, list: list, now: time.Now}
}

// Send implements delivery.Sender. An artifact whose reference is already
// queued is accepted without adding a duplicate.
func (q *Queue) Send(ctx context.Context, a delivery.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.Title == "" {
		return ErrEmptyTitle
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	f, err := q.read()
	if err != nil {
		return err
	}
	if a.Reference != "" {
		for _, r := range f.Reminders {
			if r.Reference == a.Reference {
				return nil
			}
		}
	}
	due := a.Due
	if due.IsZero() {
		due = q.now()
	}
	f.Reminders = append(f.Reminders, Reminder{
		Title:     a.Title,
		Note:      a.Body,
		Due:       due,
		List:      q.list,
		Reference: a.Reference,
		CreatedAt: q.now(),
	})
	return q.write(f)
}

// Pending lists the queued reminders, oldest first.
func (q *Queue) Pending() ([]Reminder, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	f, err := q.read()
	if err != nil {
		return nil, err
	}
	return f.Reminders, nil
}

// Clear empties the queue and returns how many reminders were dropped.
func (q *Queue) Clear() (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	f, err := q.read()
	if err != nil {
		return 0, err
	}
	if err := q.write(queueFile{Reminders: []Reminder{}}); err != nil {
		return 0, err
	}
	return len(f.Reminders), nil
}

func (q *Queue) read() (queueFile, error) {
	f := queueFile{Reminders: []Reminder{}}
	data, err := os.ReadFile(q.path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return f, fmt.Errorf("failed to read reminder queue: %w", err)
	}
	if len(data) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("failed to decode reminder queue %s: %w", q.path, err)
	}
	return f, nil
}

func (q *Queue) write(f queueFile) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode reminder queue: %w", err)
	}
	dir := filepath.Dir(q.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create queue directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".reminders-*.json")
	if err != nil {
		return fmt.Errorf("failed to write reminder queue: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write reminder queue: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write reminder queue: %w", err)
	}
	if err := os.Rename(tmp.Name(), q.path); err != nil {
		return fmt.Errorf("failed to replace reminder queue: %w", err)
	}
	return nil
}
