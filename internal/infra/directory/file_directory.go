// internal/infra/directory/file_directory.go
package directory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"assistant_scheduler/internal/domain/followup"
)

var ErrInvalidDirectory = errors.New("invalid directory file")

type directoryDoc struct {
	Households []householdDoc `yaml:"households"`
}

type householdDoc struct {
	ID      string      `yaml:"id"`
	Name    string      `yaml:"name"`
	Members []memberDoc `yaml:"members"`
}

type memberDoc struct {
	ID            string `yaml:"id"`
	Name          string `yaml:"name"`
	Adult         bool   `yaml:"adult"`
	Phone         string `yaml:"phone"`
	Email         string `yaml:"email"`
	LastContacted string `yaml:"last_contacted"`
}

// FileDirectory reads households and their members from a YAML export of the
// membership database. The file is re-read on every call so edits apply to
// the next planning run.
type FileDirectory struct {
	path string
}

func NewFileDirectory(path string) *FileDirectory {
	return &FileDirectory{path: path}
}

func (d *FileDirectory) ListSubjects(ctx context.Context) ([]followup.Subject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(d.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory file: %w", err)
	}
	return ParseSubjects(data)
}

// ParseSubjects flattens the households document into subjects, keeping file order.
func ParseSubjects(data []byte) ([]followup.Subject, error) {
	var doc directoryDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDirectory, err)
	}

	var problems []error
	subjects := make([]followup.Subject, 0)
	households := make(map[string]bool, len(doc.Households))
	members := make(map[string]bool)
	for i, h := range doc.Households {
		id := strings.TrimSpace(h.ID)
		if id == "" {
			problems = append(problems, fmt.Errorf("household #%d: id is required", i))
			continue
		}
		if households[id] {
			problems = append(problems, fmt.Errorf("household %s: duplicate id", id))
			continue
		}
		households[id] = true

		for j, m := range h.Members {
			if strings.TrimSpace(m.ID) == "" {
				problems = append(problems, fmt.Errorf("household %s member #%d: id is required", id, j))
				continue
			}
			if members[m.ID] {
				problems = append(problems, fmt.Errorf("member %s: duplicate id", m.ID))
				continue
			}
			members[m.ID] = true

			s := followup.Subject{
				ID:        m.ID,
				Name:      m.Name,
				GroupID:   id,
				GroupName: h.Name,
				Adult:     m.Adult,
				Phone:     m.Phone,
				Email:     m.Email,
			}
			if m.LastContacted != "" {
				t, err := time.Parse(followup.DateLayout, m.LastContacted)
				if err != nil {
					problems = append(problems, fmt.Errorf("member %s: last_contacted %q is not YYYY-MM-DD", m.ID, m.LastContacted))
					continue
				}
				s.LastContacted = t
			}
			subjects = append(subjects, s)
		}
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDirectory, errors.Join(problems...))
	}
	return subjects, nil
}
