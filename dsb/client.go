// Package dsb resolves the URL of the currently published substitution plan
// from a DSBmobile account. Two backends are tried in order on every attempt;
// after the retry budget is spent an emergency URL may be used instead.
package dsb

import (
	"context"
	"errors"
	"fmt"

	"vertretungsplan-bot/types"

	"go.uber.org/zap"
)

const DefaultTries = 5

var (
	ErrMissingCredentials   = errors.New("missing credentials")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrStructuralMismatch   = errors.New("index structure mismatch")
	ErrAllBackendsFailed    = errors.New("all backends failed")
	ErrNoDataURL            = errors.New("no data url has worked")
)

// EmergencySource supplies a manually configured plan URL.
// An empty string with a nil error means none is configured.
type EmergencySource interface {
	EmergencyURL(ctx context.Context) (string, error)
}

// StaticURL is an EmergencySource with a fixed value
type StaticURL string

func (s StaticURL) EmergencyURL(context.Context) (string, error) {
	return string(s), nil
}

// Options configure a Client
type Options struct {
	Tries     int
	Path      IndexPath
	Emergency EmergencySource
}

// Client resolves the plan URL using an ordered list of backends.
// The first backend is asked on every attempt; the following ones only
// when the previous one reported a failed login.
type Client struct {
	backends  []Backend
	tries     int
	path      IndexPath
	emergency EmergencySource
	log       *zap.Logger
}

func NewClient(log *zap.Logger, opts Options, backends ...Backend) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Tries <= 0 {
		opts.Tries = DefaultTries
	}
	if opts.Path.Title == "" {
		opts.Path = DefaultIndexPath()
	}
	return &Client{
		backends:  backends,
		tries:     opts.Tries,
		path:      opts.Path,
		emergency: opts.Emergency,
		log:       log,
	}
}

// PlanURL returns the URL of the published plan document
func (c *Client) PlanURL(ctx context.Context, creds types.Credentials) (string, error) {
	if !creds.Valid() {
		return "", ErrMissingCredentials
	}
	if len(c.backends) == 0 {
		return "", fmt.Errorf("%w: no backends configured", ErrAllBackendsFailed)
	}

	var lastErr error
	for attempt := 1; attempt <= c.tries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		planURL, err := c.attempt(ctx, creds)
		if err == nil {
			return planURL, nil
		}
		lastErr = err
		c.log.Warn("Attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("tries", c.tries),
			zap.Error(err))
	}

	if planURL := c.emergencyURL(ctx); planURL != "" {
		c.log.Warn("🚨 Using emergency url", zap.String("url", planURL))
		return planURL, nil
	}

	return "", fmt.Errorf("no login method worked properly after %d tries: %w",
		c.tries, errors.Join(ErrAllBackendsFailed, lastErr))
}

// attempt walks the backend chain once
func (c *Client) attempt(ctx context.Context, creds types.Credentials) (string, error) {
	for i, backend := range c.backends {
		outcome := backend.FetchIndex(ctx, creds)

		switch outcome.Status {
		case StatusOK:
			planURL, err := c.path.Resolve(outcome.Index)
			if err != nil {
				return "", fmt.Errorf("%s backend: %w", backend.Name(), err)
			}
			c.log.Info("Resolved plan url", zap.String("backend", backend.Name()), zap.String("url", planURL))
			return planURL, nil

		case StatusLoginFailed:
			if i+1 < len(c.backends) {
				c.log.Warn("Login failed, trying next backend",
					zap.String("backend", backend.Name()),
					zap.String("next", c.backends[i+1].Name()))
			}
			continue

		case StatusStructural, StatusTransport:
			return "", fmt.Errorf("%s backend: %w", backend.Name(), outcome.Err)

		default:
			return "", fmt.Errorf("%s backend: unexpected status %v", backend.Name(), outcome.Status)
		}
	}
	return "", ErrAuthenticationFailed
}

func (c *Client) emergencyURL(ctx context.Context) string {
	if c.emergency == nil {
		return ""
	}
	planURL, err := c.emergency.EmergencyURL(ctx)
	if err != nil {
		c.log.Error("Failed to read emergency url", zap.Error(err))
		return ""
	}
	return planURL
}
