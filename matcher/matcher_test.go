package matcher

import (
	"testing"
	"time"

	"vertretungsplan-bot/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 21.10.2019 is a Monday in an "A" week (day 294 of the year)
var monday = types.Substitution{
	ClassName:   "05A",
	Period:      "1",
	Subject:     "Ma",
	OrigSubject: "Deu",
	Room:        "1.11",
	OrigRoom:    "1.23",
	ReplType:    "Vertretung",
	WeekDay:     "Montag",
	Date:        "21.10.2019",
}

var german = types.Lesson{ClassName: "05A", WeekDay: "Mo", Period: "1", Subject: "Deu", Room: "1.23"}

func TestScore_AllFiveFields(t *testing.T) {
	score, err := Score(german, monday)
	require.NoError(t, err)
	assert.Equal(t, 5, score)

	matches := New(nil, 5).Match([]types.Lesson{german}, []types.Substitution{monday})
	require.Len(t, matches, 1)
	assert.Equal(t, 5, matches[0].Score)
	assert.Equal(t, german, matches[0].Lesson)
}

func TestScore_ExactMatchWithWeekType(t *testing.T) {
	lesson := german
	lesson.WeekType = "A"

	score, err := Score(lesson, monday)
	require.NoError(t, err)
	assert.Equal(t, MaxScore, score)

	lesson.WeekType = "b"
	score, err = Score(lesson, monday)
	require.NoError(t, err)
	assert.Equal(t, 5, score)
}

func TestScore_PartialFields(t *testing.T) {
	cases := map[string]struct {
		lesson types.Lesson
		want   int
	}{
		"other weekday":   {types.Lesson{ClassName: "05A", WeekDay: "Di", Period: "1", Subject: "Deu", Room: "1.23"}, 4},
		"other room":      {types.Lesson{ClassName: "05A", WeekDay: "Mo", Period: "1", Subject: "Deu", Room: "2.01"}, 4},
		"substituted one": {types.Lesson{ClassName: "05A", WeekDay: "Mo", Period: "1", Subject: "Ma", Room: "1.11"}, 3},
		"nothing":         {types.Lesson{ClassName: "10B", WeekDay: "Fr", Period: "6", Subject: "Eng", Room: "3.01"}, 0},
		"class substring": {types.Lesson{ClassName: "5", WeekDay: "Fr", Period: "6", Subject: "Eng", Room: "3.01"}, 1},
		"case and zeros":  {types.Lesson{ClassName: "5a", WeekDay: "mo", Period: "6", Subject: "Eng", Room: "3.01"}, 2},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			score, err := Score(tc.lesson, monday)
			require.NoError(t, err)
			assert.Equal(t, tc.want, score)
		})
	}
}

func TestScore_Errors(t *testing.T) {
	broken := monday
	broken.Date = "kein Datum"
	_, err := Score(german, broken)
	assert.Error(t, err)

	lesson := german
	lesson.WeekDay = "Xx"
	_, err = Score(lesson, monday)
	assert.Error(t, err)

	lesson = german
	lesson.WeekType = "C"
	_, err = Score(lesson, monday)
	assert.Error(t, err)
}

func TestMatch_Monotonic(t *testing.T) {
	lessons := []types.Lesson{
		german,
		{ClassName: "05A", WeekDay: "Di", Period: "1", Subject: "Deu", Room: "1.23"},
		{ClassName: "05A", WeekDay: "Mo", Period: "2", Subject: "Ma", Room: "1.11", WeekType: "B"},
	}

	for _, lesson := range lessons {
		score, err := Score(lesson, monday)
		require.NoError(t, err)
		for level := 0; level <= MaxScore; level++ {
			matched := len(New(nil, level).Match([]types.Lesson{lesson}, []types.Substitution{monday})) == 1
			assert.Equal(t, score >= level, matched, "lesson %v level %d", lesson, level)
		}
	}
}

func TestMatch_ClassOnly(t *testing.T) {
	entries := []types.Substitution{
		{ClassName: "5a", Period: "3", OrigSubject: "Sp", Date: "garbage"},
		{ClassName: "05B", Period: "1", Date: "21.10.2019"},
		{ClassName: "05A, 05B", Period: "1", Date: "21.10.2019"},
	}

	relevant := New(nil, MaxScore).Relevant([]types.Lesson{{ClassName: "05A"}}, entries)
	assert.Equal(t, []types.Substitution{entries[0]}, relevant)

	relevant = New(nil, 0).Relevant([]types.Lesson{{ClassName: "05A"}}, entries)
	assert.Equal(t, []types.Substitution{entries[0]}, relevant, "class-only lessons ignore the level")
}

func TestMatch_Deduplicates(t *testing.T) {
	lessons := []types.Lesson{
		german,
		{ClassName: "05A"},
		{ClassName: "05A", WeekDay: "Mo", Period: "1", Subject: "Deu", Room: "1.23", WeekType: "A"},
	}
	other := monday
	other.ClassName = "06C"
	other.OrigRoom = "0.01"

	matches := New(nil, 5).Match(lessons, []types.Substitution{monday, other})
	require.Len(t, matches, 1)
	assert.Equal(t, monday, matches[0].Entry)
	assert.Equal(t, german, matches[0].Lesson, "first matching lesson wins")
}

func TestMatch_SkipsMalformedDates(t *testing.T) {
	broken := monday
	broken.Date = "32.10.2019"

	var relevant []types.Substitution
	require.NotPanics(t, func() {
		relevant = New(nil, 0).Relevant([]types.Lesson{german}, []types.Substitution{broken, monday})
	})
	assert.Equal(t, []types.Substitution{monday}, relevant)
}

func TestMatch_LevelZeroMatchesEverything(t *testing.T) {
	entries := []types.Substitution{
		monday,
		{ClassName: "Q2", Period: "9", Date: "25.10.2019"},
	}
	relevant := New(nil, 0).Relevant([]types.Lesson{german}, entries)
	assert.Len(t, relevant, 2)
}

func TestMatch_Empty(t *testing.T) {
	m := New(nil, 5)
	assert.Empty(t, m.Match(nil, []types.Substitution{monday}))
	assert.Empty(t, m.Match([]types.Lesson{german}, nil))
}

func TestWeekParity(t *testing.T) {
	assert.Equal(t, 0, WeekParity(time.Date(2019, 10, 21, 0, 0, 0, 0, time.UTC))) // day 294
	assert.Equal(t, 1, WeekParity(time.Date(2019, 10, 28, 0, 0, 0, 0, time.UTC))) // day 301
	assert.Equal(t, 0, WeekParity(time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)))   // day 1
	assert.Equal(t, 1, WeekParity(time.Date(2019, 1, 7, 0, 0, 0, 0, time.UTC)))   // day 7
}

func TestWeekday(t *testing.T) {
	assert.Equal(t, 0, weekday(time.Monday))
	assert.Equal(t, 4, weekday(time.Friday))
	assert.Equal(t, 6, weekday(time.Sunday))
}
