package dsb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"vertretungsplan-bot/codec"
	"vertretungsplan-bot/types"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/78.0.3904.70 Safari/537.36"

// Status tags the result of one backend attempt
type Status int

const (
	StatusOK Status = iota
	StatusLoginFailed
	StatusStructural
	StatusTransport
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusLoginFailed:
		return "login failed"
	case StatusStructural:
		return "structural mismatch"
	case StatusTransport:
		return "transport error"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Outcome is what a backend reports for one FetchIndex call.
// Index is set for StatusOK, Err for everything else.
type Outcome struct {
	Status Status
	Index  *Index
	Err    error
}

func success(index *Index) Outcome {
	if index.LoginFailed() {
		return Outcome{Status: StatusLoginFailed, Index: index, Err: ErrAuthenticationFailed}
	}
	return Outcome{Status: StatusOK, Index: index}
}

// failure classifies err: an unreadable reply is structural, the rest transport
func failure(err error) Outcome {
	if errors.Is(err, codec.ErrMalformedEnvelope) {
		return Outcome{Status: StatusStructural, Err: err}
	}
	return Outcome{Status: StatusTransport, Err: err}
}

// Backend is one way of obtaining the index from DSB
type Backend interface {
	Name() string
	FetchIndex(ctx context.Context, creds types.Credentials) Outcome
}

// timestamp formats t the way the apps do: millisecond precision, "Z" suffix
func timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000") + "Z"
}

// postData sends an encoded request to a data endpoint and decodes the index from the reply
func postData(ctx context.Context, client *http.Client, dataURL string, fields codec.Fields, header http.Header) (*Index, error) {
	env, err := codec.Encode(fields)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, dataURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json;charset=utf-8")
	req.Header.Set("User-Agent", userAgent)
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", dataURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, dataURL)
	}

	var index Index
	if err := codec.DecodeResponse(resp.Body, &index); err != nil {
		return nil, fmt.Errorf("decode %s: %w", dataURL, err)
	}
	return &index, nil
}
