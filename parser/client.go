package parser

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"vertretungsplan-bot/types"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

const userAgent = "Mozilla/5.0 (compatible; VertretungsplanBot/1.0)"

// Client downloads and parses plan documents
type Client struct {
	httpClient *http.Client
	parser     *Parser
	log        *zap.Logger
}

func NewClient(log *zap.Logger, timeout time.Duration) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		parser:     New(log),
		log:        log,
	}
}

// FetchPlan downloads the document at planURL and parses it. Untis pages are
// usually served as ISO-8859-1; the body is decoded to UTF-8 first.
func (c *Client) FetchPlan(ctx context.Context, planURL string) (*types.Plan, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, planURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", planURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d when fetching %s", resp.StatusCode, planURL)
	}

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", planURL, err)
	}

	plan, err := c.parser.Parse(body)
	if err != nil {
		return nil, err
	}
	plan.URL = planURL

	c.log.Info("📄 Fetched plan",
		zap.String("url", planURL),
		zap.String("last_updated", plan.LastUpdated),
		zap.Int("entries", len(plan.Entries)),
		zap.Int("news", len(plan.News)))
	return plan, nil
}
