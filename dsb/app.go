package dsb

import (
	"context"
	"net/http"
	"time"

	"vertretungsplan-bot/codec"
	"vertretungsplan-bot/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultAppURL = "https://app.dsbcontrol.de/JsonHandler.ashx/GetData"

// AppBackend speaks the protocol of the Android app: one request carrying
// the credentials, no login step.
type AppBackend struct {
	URL     string
	Timeout time.Duration

	log   *zap.Logger
	now   func() time.Time
	newID func() string
}

func NewAppBackend(log *zap.Logger, appURL string, timeout time.Duration) *AppBackend {
	if log == nil {
		log = zap.NewNop()
	}
	if appURL == "" {
		appURL = DefaultAppURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &AppBackend{
		URL:     appURL,
		Timeout: timeout,
		log:     log.Named("app"),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

func (b *AppBackend) Name() string { return "app" }

func (b *AppBackend) FetchIndex(ctx context.Context, creds types.Credentials) Outcome {
	client := &http.Client{Timeout: b.Timeout}

	index, err := postData(ctx, client, b.URL, b.fields(creds), nil)
	if err != nil {
		return failure(err)
	}
	b.log.Debug("Fetched index", zap.Int("menus", len(index.ResultMenuItems)))
	return success(index)
}

func (b *AppBackend) fields(creds types.Credentials) codec.Fields {
	now := timestamp(b.now())
	return codec.Fields{
		"UserId":     creds.Username,
		"UserPw":     creds.Password,
		"Abos":       []any{},
		"AppVersion": "2.5.9",
		"Language":   "de",
		"OsVersion":  "28 9",
		"AppId":      b.newID(),
		"Device":     "SM-G935F",
		"PushId":     "",
		"BundleId":   "de.heinekingmedia.dsbmobile",
		"Date":       now,
		"LastUpdate": now,
	}
}
