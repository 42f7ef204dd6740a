package dsb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"vertretungsplan-bot/codec"
	"vertretungsplan-bot/types"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const (
	DefaultLoginURL = "https://www.dsbmobile.de/Login.aspx"
	defaultTimeout  = 15 * time.Second
)

// DefaultDataURLs are the known data endpoints of the web app. DSB rotates the
// valid one from time to time, so all of them are tried in order.
var DefaultDataURLs = []string{
	"https://www.dsbmobile.de/jhw-1fd98248-440c-4283-bef6-dc82fe769b61.ashx/GetData",
	"https://www.dsbmobile.de/jhw-ecd92528-a4b9-425f-89ee-c7038c72b9a6.ashx/GetData",
}

// hiddenFields are the ASP.NET form tokens resubmitted with the login form
var hiddenFields = []string{
	"__LASTFOCUS",
	"__VIEWSTATE",
	"__VIEWSTATEGENERATOR",
	"__EVENTTARGET",
	"__EVENTARGUMENT",
	"__EVENTVALIDATION",
}

// WebBackend logs in through the web login form and fetches the index with
// the resulting session cookies.
type WebBackend struct {
	LoginURL string
	DataURLs []string
	Timeout  time.Duration

	log *zap.Logger
	now func() time.Time
}

func NewWebBackend(log *zap.Logger, loginURL string, dataURLs []string, timeout time.Duration) *WebBackend {
	if log == nil {
		log = zap.NewNop()
	}
	if loginURL == "" {
		loginURL = DefaultLoginURL
	}
	if len(dataURLs) == 0 {
		dataURLs = DefaultDataURLs
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &WebBackend{
		LoginURL: loginURL,
		DataURLs: dataURLs,
		Timeout:  timeout,
		log:      log.Named("web"),
		now:      time.Now,
	}
}

func (b *WebBackend) Name() string { return "web" }

// FetchIndex runs login and data request on one cookie session
func (b *WebBackend) FetchIndex(ctx context.Context, creds types.Credentials) Outcome {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return failure(err)
	}
	client := &http.Client{
		Jar:     jar,
		Timeout: b.Timeout,
	}

	if err := b.login(ctx, client, creds); err != nil {
		return failure(fmt.Errorf("login: %w", err))
	}

	for _, dataURL := range b.DataURLs {
		index, err := postData(ctx, client, dataURL, b.fields(), b.header())
		if err != nil {
			if ctx.Err() != nil {
				return failure(ctx.Err())
			}
			b.log.Warn("Data url failed, trying next one", zap.String("url", dataURL), zap.Error(err))
			continue
		}
		return success(index)
	}
	return failure(ErrNoDataURL)
}

func (b *WebBackend) login(ctx context.Context, client *http.Client, creds types.Credentials) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.LoginURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d from login page", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("txtUser", creds.Username)
	form.Set("txtPass", creds.Password)
	form.Set("ctl03", "Anmelden")
	for _, field := range hiddenFields {
		input := doc.Find("#" + field).First()
		if input.Length() == 0 {
			continue
		}
		value, _ := input.Attr("value")
		form.Set(field, value)
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodPost, b.LoginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err = client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("unexpected status code %d from login form", resp.StatusCode)
	}

	b.log.Debug("Submitted login form", zap.Int("status", resp.StatusCode), zap.Int("fields", len(form)))
	return nil
}

// fields is the data request of the web app. Credentials travel in the session cookie.
func (b *WebBackend) fields() codec.Fields {
	now := timestamp(b.now())
	return codec.Fields{
		"UserId":     "",
		"UserPw":     "",
		"Abos":       []any{},
		"AppVersion": "2.3",
		"Language":   "de",
		"OsVersion":  userAgent,
		"AppId":      "",
		"Device":     "WebApp",
		"PushId":     "",
		"BundleId":   "de.heinekingmedia.inhouse.dsbmobile.web",
		"Date":       now,
		"LastUpdate": now,
	}
}

func (b *WebBackend) header() http.Header {
	referer := "www.dsbmobile.de"
	if u, err := url.Parse(b.LoginURL); err == nil && u.Host != "" {
		referer = u.Host
	}
	return http.Header{"Referer": []string{referer}}
}
