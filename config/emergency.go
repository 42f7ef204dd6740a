package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"vertretungsplan-bot/dsb"
)

// EmergencyFile reads "emergency_url" from a JSON file on every call, so an
// operator can edit it while the process runs. A missing file or key yields "".
type EmergencyFile string

func (f EmergencyFile) EmergencyURL(context.Context) (string, error) {
	data, err := os.ReadFile(string(f))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	var info struct {
		EmergencyURL string `json:"emergency_url"`
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return "", fmt.Errorf("parse %s: %w", string(f), err)
	}
	return info.EmergencyURL, nil
}

// Chain asks each source in order and returns the first url found.
// A failing source is skipped if a later one has a url.
type Chain []dsb.EmergencySource

func (c Chain) EmergencyURL(ctx context.Context) (string, error) {
	var firstErr error
	for _, source := range c {
		url, err := source.EmergencyURL(ctx)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if url != "" {
			return url, nil
		}
	}
	return "", firstErr
}

// EmergencySources builds the sources named in the config, extra ones last
func (c *Config) EmergencySources(extra ...dsb.EmergencySource) Chain {
	var chain Chain
	if c.Emergency.URL != "" {
		chain = append(chain, dsb.StaticURL(c.Emergency.URL))
	}
	if c.Emergency.File != "" {
		chain = append(chain, EmergencyFile(c.Emergency.File))
	}
	return append(chain, extra...)
}
