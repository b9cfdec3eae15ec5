// Package mood records athlete wellbeing check-ins on a fixed 1..7 scale and
// summarizes them over a rolling window.
package mood

import (
	"context"
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"example.com/coaching/internal/domain"
)

const (
	// MinLevel and MaxLevel bound the check-in scale.
	MinLevel = 1
	MaxLevel = 7

	defaultWindowDays = 30
	maxNotesLen       = 500
)

// moodLabels maps each level to its display label and emoji. The table is
// fixed; clients render it as-is.
var moodLabels = map[int]struct {
	label string
	emoji string
}{
	7: {"Excellent", "😄"},
	6: {"Very good", "😊"},
	5: {"Good", "🙂"},
	4: {"Okay", "😐"},
	3: {"So-so", "😕"},
	2: {"Bad", "😟"},
	1: {"Very bad", "😞"},
}

// Label returns the display label for a level, or "Unknown" outside the scale.
func Label(level int) string {
	if m, ok := moodLabels[level]; ok {
		return m.label
	}
	return "Unknown"
}

// Emoji returns the emoji for a level, or a neutral face outside the scale.
func Emoji(level int) string {
	if m, ok := moodLabels[level]; ok {
		return m.emoji
	}
	return "😐"
}

// Entry is one check-in with its rendered label.
type Entry struct {
	ID        string    `json:"id"`
	Level     int       `json:"level"`
	Label     string    `json:"label"`
	Emoji     string    `json:"emoji"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DayStats is one calendar day's rollup. A day with no check-ins is omitted
// from the history.
type DayStats struct {
	Date    string  `json:"date"`
	Average float64 `json:"average"`
	Min     int     `json:"min"`
	Max     int     `json:"max"`
	Count   int     `json:"count"`
}

// History is the windowed mood report for one athlete.
type History struct {
	AthleteID   string     `json:"athlete_id"`
	Days        int        `json:"days"`
	Entries     []Entry    `json:"entries"`
	Daily       []DayStats `json:"daily"`
	TotalLogs   int        `json:"total_logs"`
	AverageMood float64    `json:"average_mood"`
	DaysTracked int        `json:"days_tracked"`
}

// Store is the persistence surface the tracker needs.
type Store interface {
	GetAthlete(ctx context.Context, athleteID string) (*domain.Athlete, error)
	CreateMoodLog(ctx context.Context, log *domain.MoodLog) error
	ListMoodLogs(ctx context.Context, athleteID string, since time.Time) ([]domain.MoodLog, error)
	GetMoodLog(ctx context.Context, id string) (*domain.MoodLog, error)
	DeleteMoodLog(ctx context.Context, id string) error
}

// Tracker validates and serves mood check-ins.
type Tracker struct {
	store Store
	now   func() time.Time
}

func NewTracker(store Store) *Tracker {
	return &Tracker{store: store, now: time.Now}
}

// LogMood records a check-in for the athlete in scope. Level must be within
// the 1..7 scale; notes are optional, capped at 500 characters.
func (t *Tracker) LogMood(ctx context.Context, scope domain.Scope, athleteID string, level int, notes string) (*Entry, error) {
	if scope.AthleteID != "" {
		athleteID = scope.AthleteID
	}
	if level < MinLevel || level > MaxLevel {
		return nil, domain.ErrValidation
	}
	if utf8.RuneCountInString(notes) > maxNotesLen {
		return nil, fmt.Errorf("%w: notes must be <= %d characters", domain.ErrValidation, maxNotesLen)
	}

	athlete, err := t.store.GetAthlete(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	if !scope.CanAccessAthlete(athlete) {
		return nil, domain.ErrNotFound
	}

	log := &domain.MoodLog{
		ID:        uuid.NewString(),
		AthleteID: athlete.ID,
		Level:     level,
		Notes:     notes,
		CreatedAt: t.now().UTC(),
	}
	if err := t.store.CreateMoodLog(ctx, log); err != nil {
		return nil, err
	}

	entry := toEntry(*log)
	return &entry, nil
}

// History returns the athlete's check-ins over the last windowDays (30 when
// zero or negative), newest first, plus per-day average/min/max rollups in
// date order. Days without check-ins do not appear.
func (t *Tracker) History(ctx context.Context, scope domain.Scope, athleteID string, windowDays int) (*History, error) {
	if scope.AthleteID != "" {
		athleteID = scope.AthleteID
	}
	if windowDays <= 0 {
		windowDays = defaultWindowDays
	}

	athlete, err := t.store.GetAthlete(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	if !scope.CanAccessAthlete(athlete) {
		return nil, domain.ErrNotFound
	}

	since := t.now().UTC().AddDate(0, 0, -windowDays)
	logs, err := t.store.ListMoodLogs(ctx, athlete.ID, since)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(logs))
	for _, l := range logs {
		entries = append(entries, toEntry(l))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })

	daily := dailyStats(logs)

	average := 0.0
	if len(logs) > 0 {
		sum := 0
		for _, l := range logs {
			sum += l.Level
		}
		average = round1(float64(sum) / float64(len(logs)))
	}

	return &History{
		AthleteID:   athlete.ID,
		Days:        windowDays,
		Entries:     entries,
		Daily:       daily,
		TotalLogs:   len(entries),
		AverageMood: average,
		DaysTracked: len(daily),
	}, nil
}

// Delete removes one of the athlete's own check-ins. Coaches cannot delete
// athlete mood entries.
func (t *Tracker) Delete(ctx context.Context, scope domain.Scope, id string) error {
	if scope.AthleteID == "" {
		return domain.ErrNotFound
	}
	log, err := t.store.GetMoodLog(ctx, id)
	if err != nil {
		return err
	}
	if log.AthleteID != scope.AthleteID {
		return domain.ErrNotFound
	}
	return t.store.DeleteMoodLog(ctx, id)
}

func toEntry(l domain.MoodLog) Entry {
	return Entry{
		ID:        l.ID,
		Level:     l.Level,
		Label:     Label(l.Level),
		Emoji:     Emoji(l.Level),
		Notes:     l.Notes,
		CreatedAt: l.CreatedAt,
	}
}

func dailyStats(logs []domain.MoodLog) []DayStats {
	type tally struct {
		sum, count, min, max int
	}
	byDay := make(map[string]*tally)
	for _, l := range logs {
		key := l.CreatedAt.UTC().Format("2006-01-02")
		d, ok := byDay[key]
		if !ok {
			d = &tally{min: l.Level, max: l.Level}
			byDay[key] = d
		}
		d.sum += l.Level
		d.count++
		if l.Level < d.min {
			d.min = l.Level
		}
		if l.Level > d.max {
			d.max = l.Level
		}
	}

	days := make([]DayStats, 0, len(byDay))
	for date, d := range byDay {
		days = append(days, DayStats{
			Date:    date,
			Average: round1(float64(d.sum) / float64(d.count)),
			Min:     d.min,
			Max:     d.max,
			Count:   d.count,
		})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
