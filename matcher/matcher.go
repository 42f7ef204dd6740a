// Package matcher decides which substitution entries concern a user's lessons.
package matcher

import (
	"fmt"
	"strings"

	"vertretungsplan-bot/types"

	"go.uber.org/zap"
)

// MaxScore is the score of a lesson that declares all six fields and equals the entry
const MaxScore = 6

// Match is a relevant entry together with the first lesson it matched
type Match struct {
	Entry  types.Substitution
	Lesson types.Lesson
	Score  int
}

// Matcher compares lessons with entries. An entry is relevant for a lesson if
// at least Level of the lesson's fields agree with it.
type Matcher struct {
	Level int
	log   *zap.Logger
}

func New(log *zap.Logger, level int) *Matcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Matcher{Level: level, log: log}
}

// Match returns every entry relevant for at least one lesson, each entry once,
// in the order lessons and entries were given.
func (m *Matcher) Match(lessons []types.Lesson, entries []types.Substitution) []Match {
	matches := make([]Match, 0)
	seen := make(map[int]bool)

	for _, lesson := range lessons {
		for i := range entries {
			if seen[i] {
				continue
			}
			entry := &entries[i]

			if lesson.ClassOnly() {
				if sameClass(lesson.ClassName, entry.ClassName) {
					seen[i] = true
					matches = append(matches, Match{Entry: *entry, Lesson: lesson, Score: 1})
				}
				continue
			}

			score, err := Score(lesson, *entry)
			if err != nil {
				m.log.Debug("Skipping entry",
					zap.Stringer("lesson", lesson),
					zap.String("class", entry.ClassName),
					zap.String("date", entry.Date),
					zap.Error(err))
				continue
			}
			if score >= m.Level {
				seen[i] = true
				matches = append(matches, Match{Entry: *entry, Lesson: lesson, Score: score})
			}
		}
	}
	return matches
}

// Relevant is Match without the bookkeeping
func (m *Matcher) Relevant(lessons []types.Lesson, entries []types.Substitution) []types.Substitution {
	matches := m.Match(lessons, entries)
	relevant := make([]types.Substitution, 0, len(matches))
	for _, match := range matches {
		relevant = append(relevant, match.Entry)
	}
	return relevant
}

// Score counts the fields of lesson that agree with entry: class, weekday,
// period, subject, room and, if the lesson declares one, the week type.
// It fails if the entry's date or the lesson's weekday or week type cannot be read.
func Score(lesson types.Lesson, entry types.Substitution) (int, error) {
	date, err := entry.Time()
	if err != nil {
		return 0, fmt.Errorf("entry date: %w", err)
	}

	day, ok := types.NormalizeWeekday(lesson.WeekDay)
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", lesson.WeekDay)
	}

	checks := []bool{
		strings.Contains(normalize(entry.ClassName), normalize(lesson.ClassName)),
		types.Weekdays[day] == weekday(date.Weekday()),
		strings.Contains(entry.Period, lesson.Period),
		lesson.Subject == entry.OrigSubject,
		lesson.Room == entry.OrigRoom,
	}

	if lesson.WeekType != "" {
		parity, ok := types.WeekTypes[lesson.WeekType]
		if !ok {
			return 0, fmt.Errorf("unknown week type %q", lesson.WeekType)
		}
		checks = append(checks, WeekParity(date) == parity)
	}

	score := 0
	for _, check := range checks {
		if check {
			score++
		}
	}
	return score, nil
}

func sameClass(a, b string) bool {
	return normalize(a) == normalize(b)
}

// normalize folds case and strips leading zeros ("05a" -> "5a")
func normalize(className string) string {
	return strings.TrimLeft(strings.ToLower(strings.TrimSpace(className)), "0")
}
