// Package checker runs the whole discovery pipeline: resolve the plan url,
// fetch and parse the plan, then match it against a user's lessons.
package checker

import (
	"context"
	"errors"
	"fmt"

	"vertretungsplan-bot/matcher"
	"vertretungsplan-bot/types"

	"go.uber.org/zap"
)

// ErrNoStore is returned by CheckNew when no snapshot store is configured
var ErrNoStore = errors.New("no snapshot store configured")

// URLResolver is satisfied by *dsb.Client
type URLResolver interface {
	PlanURL(ctx context.Context, creds types.Credentials) (string, error)
}

// PlanFetcher is satisfied by *parser.Client
type PlanFetcher interface {
	FetchPlan(ctx context.Context, planURL string) (*types.Plan, error)
}

// SnapshotStore keeps the relevant entries of the previous check per owner.
// It is satisfied by *storage.Storage.
type SnapshotStore interface {
	GetLastRelevant(ctx context.Context, owner string) ([]types.Substitution, error)
	SaveLastRelevant(ctx context.Context, owner string, entries []types.Substitution) error
}

type Checker struct {
	URLs    URLResolver
	Plans   PlanFetcher
	Matcher *matcher.Matcher
	Store   SnapshotStore // optional
	log     *zap.Logger
}

func New(log *zap.Logger, urls URLResolver, plans PlanFetcher, m *matcher.Matcher) *Checker {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = matcher.New(log, 0)
	}
	return &Checker{
		URLs:    urls,
		Plans:   plans,
		Matcher: m,
		log:     log,
	}
}

// Result of one check
type Result struct {
	Plan    *types.Plan
	Matches []matcher.Match
}

// Relevant returns the matched entries without scores
func (r *Result) Relevant() []types.Substitution {
	entries := make([]types.Substitution, 0, len(r.Matches))
	for _, m := range r.Matches {
		entries = append(entries, m.Entry)
	}
	return entries
}

// Plan resolves the current plan url and fetches the plan behind it
func (c *Checker) Plan(ctx context.Context, creds types.Credentials) (*types.Plan, error) {
	planURL, err := c.URLs.PlanURL(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("resolve plan url: %w", err)
	}

	plan, err := c.Plans.FetchPlan(ctx, planURL)
	if err != nil {
		return nil, fmt.Errorf("fetch plan: %w", err)
	}
	return plan, nil
}

// Check fetches the current plan and returns the entries relevant for lessons
func (c *Checker) Check(ctx context.Context, creds types.Credentials, lessons []types.Lesson) (*Result, error) {
	plan, err := c.Plan(ctx, creds)
	if err != nil {
		return nil, err
	}

	matches := c.Matcher.Match(lessons, plan.Entries)
	c.log.Info("🔍 Checked plan",
		zap.Int("lessons", len(lessons)),
		zap.Int("entries", len(plan.Entries)),
		zap.Int("relevant", len(matches)),
		zap.Int("level", c.Matcher.Level))

	return &Result{Plan: plan, Matches: matches}, nil
}

// CheckNew runs Check and compares the relevant entries with the snapshot
// saved for owner by the previous call. It returns the entries that were not
// relevant last time; without a snapshot every relevant entry is new.
// The snapshot is replaced whenever the relevant set changed.
func (c *Checker) CheckNew(ctx context.Context, owner string, creds types.Credentials, lessons []types.Lesson) (*Result, []types.Substitution, error) {
	if c.Store == nil {
		return nil, nil, ErrNoStore
	}

	result, err := c.Check(ctx, creds, lessons)
	if err != nil {
		return nil, nil, err
	}
	current := result.Relevant()

	previous, err := c.Store.GetLastRelevant(ctx, owner)
	if err != nil {
		c.log.Warn("⚠️ Failed to load last relevant entries", zap.String("owner", owner), zap.Error(err))
		previous = nil
	}

	fresh := NewEntries(previous, current)
	if previous == nil || Changed(previous, current) {
		if err := c.Store.SaveLastRelevant(ctx, owner, current); err != nil {
			return result, fresh, fmt.Errorf("save last relevant entries: %w", err)
		}
	}

	c.log.Info("Compared with last check",
		zap.String("owner", owner),
		zap.Int("relevant", len(current)),
		zap.Int("new", len(fresh)))
	return result, fresh, nil
}

// NewEntries returns the entries of cur that are not in prev
func NewEntries(prev, cur []types.Substitution) []types.Substitution {
	known := make(map[string]bool, len(prev))
	for i := range prev {
		known[prev[i].UniqueID()] = true
	}

	fresh := make([]types.Substitution, 0)
	for i := range cur {
		if !known[cur[i].UniqueID()] {
			fresh = append(fresh, cur[i])
		}
	}
	return fresh
}

// Changed reports whether prev and cur hold different sets of entries
func Changed(prev, cur []types.Substitution) bool {
	a := ids(prev)
	b := ids(cur)
	if len(a) != len(b) {
		return true
	}
	for id := range a {
		if !b[id] {
			return true
		}
	}
	return false
}

func ids(entries []types.Substitution) map[string]bool {
	set := make(map[string]bool, len(entries))
	for i := range entries {
		set[entries[i].UniqueID()] = true
	}
	return set
}
