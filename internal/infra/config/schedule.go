package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // timezone names resolve on hosts without a zoneinfo database

	"gopkg.in/yaml.v3"

	"assistant_scheduler/internal/domain/followup"
	"assistant_scheduler/internal/domain/schedule"
)

// ErrInvalidSchedule wraps every validation problem found in the schedule document.
var ErrInvalidSchedule = errors.New("invalid schedule configuration")

// ScheduleConfig is the validated scheduling table plus the static content it refers to.
type ScheduleConfig struct {
	Location  *time.Location
	Tolerance time.Duration
	Blackout  []time.Weekday
	Table     schedule.Table
	Templates map[string]string
	Themes    map[string]followup.Theme
}

type scheduleDoc struct {
	Timezone         string                    `yaml:"timezone"`
	Tolerance        string                    `yaml:"tolerance"`
	BlackoutWeekdays []string                  `yaml:"blackout_weekdays"`
	Entries          []entryDoc                `yaml:"entries"`
	Templates        map[string]string         `yaml:"templates"`
	Themes           map[string]followup.Theme `yaml:"themes"`
}

type entryDoc struct {
	Name        string   `yaml:"name"`
	Time        string   `yaml:"time"`
	Days        []string `yaml:"days"`
	WeekOfMonth int      `yaml:"week_of_month"`
	Period      string   `yaml:"period"`
	Channel     string   `yaml:"channel"`
	Template    string   `yaml:"template"`
	Description string   `yaml:"description"`
	Followups   bool     `yaml:"followups"`
}

// LoadSchedule reads and validates the schedule document at path.
func LoadSchedule(path string) (*ScheduleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule file: %w", err)
	}
	return ParseSchedule(data)
}

// ParseSchedule validates a schedule document. All problems are reported at once.
func ParseSchedule(data []byte) (*ScheduleConfig, error) {
	var doc scheduleDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}

	var problems []error
	cfg := &ScheduleConfig{
		Location:  time.Local,
		Tolerance: time.Minute,
		Blackout:  []time.Weekday{time.Sunday},
		Templates: doc.Templates,
		Themes:    doc.Themes,
	}

	if doc.Timezone != "" {
		loc, err := time.LoadLocation(doc.Timezone)
		if err != nil {
			problems = append(problems, fmt.Errorf("timezone: %w", err))
		} else {
			cfg.Location = loc
		}
	}

	if doc.Tolerance != "" {
		d, err := time.ParseDuration(doc.Tolerance)
		if err != nil || d <= 0 {
			problems = append(problems, fmt.Errorf("tolerance %q: must be a positive duration", doc.Tolerance))
		} else {
			cfg.Tolerance = d
		}
	}

	if doc.BlackoutWeekdays != nil {
		cfg.Blackout = make([]time.Weekday, 0, len(doc.BlackoutWeekdays))
		for _, s := range doc.BlackoutWeekdays {
			wd, err := schedule.ParseWeekday(s)
			if err != nil {
				problems = append(problems, fmt.Errorf("blackout_weekdays: %w", err))
				continue
			}
			cfg.Blackout = append(cfg.Blackout, wd)
		}
	}

	if len(doc.Entries) == 0 {
		problems = append(problems, errors.New("entries: at least one entry is required"))
	}

	seen := make(map[string]bool, len(doc.Entries))
	for i, ed := range doc.Entries {
		e, errs := parseEntry(ed, doc.Templates)
		label := ed.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}
		for _, err := range errs {
			problems = append(problems, fmt.Errorf("entry %s: %w", label, err))
		}
		if ed.Name != "" && seen[ed.Name] {
			problems = append(problems, fmt.Errorf("entry %s: duplicate name", ed.Name))
		}
		seen[ed.Name] = true
		if len(errs) == 0 {
			cfg.Table.Entries = append(cfg.Table.Entries, e)
		}
	}

	for period := range doc.Themes {
		if _, err := followup.ParsePeriod(period, time.UTC); err != nil {
			problems = append(problems, fmt.Errorf("themes: key %q is not YYYY-MM", period))
		}
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchedule, errors.Join(problems...))
	}
	return cfg, nil
}

func parseEntry(ed entryDoc, templates map[string]string) (schedule.Entry, []error) {
	var errs []error
	e := schedule.Entry{
		Name:        strings.TrimSpace(ed.Name),
		Channel:     schedule.Channel(ed.Channel),
		Template:    ed.Template,
		Description: ed.Description,
		Followups:   ed.Followups,
	}
	if e.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}

	at, err := schedule.ParseTimeOfDay(ed.Time)
	if err != nil {
		errs = append(errs, err)
	}
	e.At = at

	if len(ed.Days) == 0 {
		errs = append(errs, errors.New("days: at least one weekday is required"))
	}
	for _, s := range ed.Days {
		wd, err := schedule.ParseWeekday(s)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		e.Recurrence.Days = append(e.Recurrence.Days, wd)
	}

	if ed.WeekOfMonth < 0 || ed.WeekOfMonth > 5 {
		errs = append(errs, fmt.Errorf("week_of_month %d: must be between 0 and 5", ed.WeekOfMonth))
	}
	e.Recurrence.WeekOfMonth = ed.WeekOfMonth

	switch schedule.PeriodKind(ed.Period) {
	case "":
		e.Period = schedule.DefaultPeriod(e.Recurrence)
	case schedule.PeriodDaily, schedule.PeriodWeekly, schedule.PeriodMonthly:
		e.Period = schedule.PeriodKind(ed.Period)
	default:
		errs = append(errs, fmt.Errorf("unknown period %q", ed.Period))
	}

	if !e.Channel.Valid() {
		errs = append(errs, fmt.Errorf("unknown channel %q", ed.Channel))
	}

	if e.Template == "" {
		errs = append(errs, errors.New("template is required"))
	} else if _, ok := templates[e.Template]; !ok {
		errs = append(errs, fmt.Errorf("template %q is not defined", e.Template))
	}

	return e, errs
}
