package checker

import (
	"context"
	"errors"
	"testing"

	"vertretungsplan-bot/matcher"
	"vertretungsplan-bot/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var creds = types.Credentials{Username: "213061", Password: "dsbgak"}

type fakeURLs struct {
	url   string
	err   error
	calls int
}

func (f *fakeURLs) PlanURL(_ context.Context, _ types.Credentials) (string, error) {
	f.calls++
	return f.url, f.err
}

type fakePlans struct {
	plan *types.Plan
	err  error
	got  string
}

func (f *fakePlans) FetchPlan(_ context.Context, planURL string) (*types.Plan, error) {
	f.got = planURL
	if f.err != nil {
		return nil, f.err
	}
	plan := *f.plan
	plan.URL = planURL
	return &plan, nil
}

type memoryStore struct {
	snapshots map[string][]types.Substitution
	saves     int
	getErr    error
	saveErr   error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{snapshots: make(map[string][]types.Substitution)}
}

func (m *memoryStore) GetLastRelevant(_ context.Context, owner string) ([]types.Substitution, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.snapshots[owner], nil
}

func (m *memoryStore) SaveLastRelevant(_ context.Context, owner string, entries []types.Substitution) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.snapshots[owner] = entries
	return nil
}

func entry(class, period string) types.Substitution {
	return types.Substitution{
		ClassName:   class,
		Period:      period,
		Subject:     "Ma",
		OrigSubject: "Deu",
		Room:        "1.11",
		OrigRoom:    "1.23",
		ReplType:    "Vertretung",
		WeekDay:     "Montag",
		WeekType:    "A",
		Date:        "21.10.2019",
	}
}

func samplePlan() *types.Plan {
	return &types.Plan{
		LastUpdated: "21.10.2019 07:45",
		Entries:     []types.Substitution{entry("05A", "1"), entry("07B", "2"), entry("05A", "3")},
		News:        []types.NewsItem{{DateLabel: "21.10.2019", Text: "Die 6. Stunde entfällt für alle Klassen."}},
	}
}

func newChecker(urls *fakeURLs, plans *fakePlans) *Checker {
	return New(nil, urls, plans, matcher.New(nil, 5))
}

func TestCheck(t *testing.T) {
	urls := &fakeURLs{url: "https://light.dsbcontrol.de/plan/subst_001.htm"}
	plans := &fakePlans{plan: samplePlan()}
	c := newChecker(urls, plans)

	result, err := c.Check(context.Background(), creds, []types.Lesson{{ClassName: "05a"}})
	require.NoError(t, err)

	assert.Equal(t, urls.url, plans.got)
	assert.Equal(t, urls.url, result.Plan.URL)
	require.Len(t, result.Matches, 2)
	assert.Equal(t, "1", result.Matches[0].Entry.Period)
	assert.Equal(t, "3", result.Matches[1].Entry.Period)
	assert.Equal(t, []types.Substitution{entry("05A", "1"), entry("05A", "3")}, result.Relevant())
}

func TestCheck_NoLessons(t *testing.T) {
	c := newChecker(&fakeURLs{url: "u"}, &fakePlans{plan: samplePlan()})

	result, err := c.Check(context.Background(), creds, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Matches)
	assert.Len(t, result.Plan.News, 1)
}

func TestCheck_Errors(t *testing.T) {
	resolveErr := errors.New("all backends failed")
	plans := &fakePlans{plan: samplePlan()}
	c := newChecker(&fakeURLs{err: resolveErr}, plans)

	_, err := c.Check(context.Background(), creds, nil)
	assert.ErrorIs(t, err, resolveErr)
	assert.Empty(t, plans.got, "nothing is fetched without a url")

	fetchErr := errors.New("invalid document")
	c = newChecker(&fakeURLs{url: "u"}, &fakePlans{err: fetchErr})
	_, err = c.Check(context.Background(), creds, nil)
	assert.ErrorIs(t, err, fetchErr)
}

func TestCheckNew(t *testing.T) {
	plan := samplePlan()
	plans := &fakePlans{plan: plan}
	store := newMemoryStore()
	c := newChecker(&fakeURLs{url: "u"}, plans)
	c.Store = store
	lessons := []types.Lesson{{ClassName: "05A"}}

	_, fresh, err := c.CheckNew(context.Background(), "42", creds, lessons)
	require.NoError(t, err)
	assert.Len(t, fresh, 2, "without a snapshot every relevant entry is new")
	assert.Equal(t, 1, store.saves)

	_, fresh, err = c.CheckNew(context.Background(), "42", creds, lessons)
	require.NoError(t, err)
	assert.Empty(t, fresh)
	assert.Equal(t, 1, store.saves, "unchanged snapshot is not rewritten")

	plans.plan = &types.Plan{Entries: append(append([]types.Substitution{}, plan.Entries...), entry("05A", "6"))}
	_, fresh, err = c.CheckNew(context.Background(), "42", creds, lessons)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "6", fresh[0].Period)
	assert.Equal(t, 2, store.saves)
	assert.Len(t, store.snapshots["42"], 3)
}

func TestCheckNew_RemovedEntryUpdatesSnapshot(t *testing.T) {
	store := newMemoryStore()
	store.snapshots["42"] = []types.Substitution{entry("05A", "1"), entry("05A", "3"), entry("05A", "4")}
	c := newChecker(&fakeURLs{url: "u"}, &fakePlans{plan: samplePlan()})
	c.Store = store

	_, fresh, err := c.CheckNew(context.Background(), "42", creds, []types.Lesson{{ClassName: "05A"}})
	require.NoError(t, err)
	assert.Empty(t, fresh)
	assert.Equal(t, 1, store.saves)
	assert.Len(t, store.snapshots["42"], 2)
}

func TestCheckNew_StoreErrors(t *testing.T) {
	c := newChecker(&fakeURLs{url: "u"}, &fakePlans{plan: samplePlan()})
	_, _, err := c.CheckNew(context.Background(), "42", creds, nil)
	assert.ErrorIs(t, err, ErrNoStore)

	store := newMemoryStore()
	store.getErr = errors.New("connection refused")
	c.Store = store
	_, fresh, err := c.CheckNew(context.Background(), "42", creds, []types.Lesson{{ClassName: "05A"}})
	require.NoError(t, err)
	assert.Len(t, fresh, 2, "an unreadable snapshot counts as none")

	saveErr := errors.New("read only replica")
	c.Store = &memoryStore{snapshots: map[string][]types.Substitution{}, saveErr: saveErr}
	result, _, err := c.CheckNew(context.Background(), "42", creds, []types.Lesson{{ClassName: "05A"}})
	assert.ErrorIs(t, err, saveErr)
	assert.NotNil(t, result)
}

func TestNewEntries(t *testing.T) {
	a, b, c := entry("05A", "1"), entry("05A", "2"), entry("07B", "1")

	assert.Equal(t, []types.Substitution{b, c}, NewEntries([]types.Substitution{a}, []types.Substitution{a, b, c}))
	assert.Equal(t, []types.Substitution{a}, NewEntries(nil, []types.Substitution{a}))
	assert.Empty(t, NewEntries([]types.Substitution{a, b}, []types.Substitution{b}))

	moved := a
	moved.Room = "2.04"
	assert.Equal(t, []types.Substitution{moved}, NewEntries([]types.Substitution{a}, []types.Substitution{moved}))
}

func TestChanged(t *testing.T) {
	a, b := entry("05A", "1"), entry("05A", "2")

	assert.False(t, Changed(nil, nil))
	assert.False(t, Changed([]types.Substitution{a, b}, []types.Substitution{b, a}))
	assert.True(t, Changed([]types.Substitution{a}, []types.Substitution{a, b}))
	assert.True(t, Changed([]types.Substitution{a}, []types.Substitution{b}))
}
