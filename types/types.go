package types

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DateLayout is the date format used in Untis section headers ("21.10.2019").
const DateLayout = "02.01.2006"

// Weekdays maps the two-letter German weekday abbreviation to its ordinal (Mo=0 ... So=6).
var Weekdays = map[string]int{
	"Mo": 0,
	"Di": 1,
	"Mi": 2,
	"Do": 3,
	"Fr": 4,
	"Sa": 5,
	"So": 6,
}

// WeekTypes maps the rotation label of a fortnightly schedule to its parity.
var WeekTypes = map[string]int{
	"A": 0,
	"a": 0,
	"B": 1,
	"b": 1,
}

// Credentials for the DSB account of a school
type Credentials struct {
	Username string
	Password string
}

// Valid reports whether both parts are set
func (c Credentials) Valid() bool {
	return c.Username != "" && c.Password != ""
}

// Substitution represents one announced change for one class and period
type Substitution struct {
	ClassName   string `json:"class_name"`
	Period      string `json:"period"`
	Subject     string `json:"subject"`
	OrigSubject string `json:"orig_subject"`
	Room        string `json:"room"`
	OrigRoom    string `json:"orig_room"`
	ReplFrom    string `json:"repl_from"`
	ReplType    string `json:"repl_type"`
	Description string `json:"description"`
	WeekDay     string `json:"week_day"`  // "Montag"
	WeekType    string `json:"week_type"` // "A" or "B"
	Date        string `json:"date"`      // "21.10.2019"
}

// UniqueID identifies an entry across two fetches of the same plan
func (s *Substitution) UniqueID() string {
	return strings.Join([]string{
		s.Date, s.ClassName, s.Period, s.OrigSubject, s.OrigRoom, s.Subject, s.Room, s.ReplType, s.Description,
	}, "|")
}

// Time parses Date
func (s *Substitution) Time() (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s.Date))
}

func (s Substitution) String() string {
	parts := make([]string, 0, 5)
	if s.ClassName != "" {
		parts = append(parts, "Klasse "+s.ClassName)
	}
	if s.Period != "" {
		parts = append(parts, s.Period+". Stunde")
	}

	subject := s.Subject
	if s.OrigSubject != "" {
		subject += " statt " + s.OrigSubject
	}
	if subject = strings.TrimSpace(subject); subject != "" {
		parts = append(parts, subject)
	}

	room := s.Room
	if room == "" {
		room = "<kein Raum>"
	}
	room = "in " + room
	if s.OrigRoom != "" {
		room += " statt " + s.OrigRoom
	}
	parts = append(parts, room)

	if s.WeekDay != "" {
		parts = append(parts, "am "+s.WeekDay)
	}
	return strings.Join(parts, " ")
}

// Lesson is a recurring course slot declared by a user.
// A lesson with only ClassName set matches on the class alone.
type Lesson struct {
	ClassName string `json:"class_name"`
	Subject   string `json:"subject,omitempty"`
	Room      string `json:"room,omitempty"`
	Period    string `json:"period,omitempty"`
	WeekDay   string `json:"week_day,omitempty"`  // "Mo"
	WeekType  string `json:"week_type,omitempty"` // optional, "A" or "B"
}

// ClassOnly reports whether the lesson is the single-field form
func (l *Lesson) ClassOnly() bool {
	return l.Subject == "" && l.Room == "" && l.Period == "" && l.WeekDay == "" && l.WeekType == ""
}

func (l Lesson) String() string {
	if l.ClassOnly() {
		return l.ClassName
	}
	fields := []string{l.ClassName, l.WeekDay, l.Period, l.Subject, l.Room}
	if l.WeekType != "" {
		fields = append(fields, l.WeekType)
	}
	return strings.Join(fields, " ")
}

// NormalizeWeekday turns user input like "mo", "MONTAG" or "Montag" into the
// two-letter key of Weekdays. The second return value is false if the input
// does not name a weekday.
func NormalizeWeekday(day string) (string, bool) {
	day = strings.TrimSpace(day)
	if len([]rune(day)) < 2 {
		return "", false
	}
	short := cases.Title(language.German).String(string([]rune(day)[:2]))
	_, ok := Weekdays[short]
	return short, ok
}

// ParseLesson parses the text form users type in:
//
//	05A
//	05A Mo 1 Deu 1.23
//	05A Mo 1 Deu 1.23 A
func ParseLesson(text string) (Lesson, error) {
	fields := strings.Fields(text)
	switch len(fields) {
	case 1:
		return Lesson{ClassName: fields[0]}, nil
	case 5, 6:
	default:
		return Lesson{}, fmt.Errorf("lesson %q: expected 1, 5 or 6 fields, got %d", text, len(fields))
	}

	day, ok := NormalizeWeekday(fields[1])
	if !ok {
		return Lesson{}, fmt.Errorf("lesson %q: unknown weekday %q", text, fields[1])
	}

	lesson := Lesson{
		ClassName: fields[0],
		WeekDay:   day,
		Period:    fields[2],
		Subject:   cases.Title(language.German, cases.NoLower).String(fields[3]),
		Room:      fields[4],
	}
	if len(fields) == 6 {
		if _, ok := WeekTypes[fields[5]]; !ok {
			return Lesson{}, fmt.Errorf("lesson %q: unknown week type %q", text, fields[5])
		}
		lesson.WeekType = strings.ToUpper(fields[5])
	}
	return lesson, nil
}

// NewsItem is a daily announcement printed above the substitution table
type NewsItem struct {
	DateLabel string `json:"date_label"`
	Text      string `json:"text"`
}

// Plan is everything parsed from one published schedule document
type Plan struct {
	URL         string
	LastUpdated string // "21.10.2019 07:45"
	Entries     []Substitution
	News        []NewsItem
}
