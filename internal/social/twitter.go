package social

import (
	"context"

	"github.com/dghubble/oauth1"

	"github.com/openclaw/openclaw/internal/logging"
)

const twitterAPI = "https://api.twitter.com"

// TwitterCredentials are the app and user keys for OAuth 1.0a user context.
type TwitterCredentials struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

func (c TwitterCredentials) complete() bool {
	return c.APIKey != "" && c.APISecret != "" && c.AccessToken != "" && c.AccessSecret != ""
}

// Twitter posts tweets through the v2 API.
type Twitter struct {
	creds TwitterCredentials
	opts  options
}

func NewTwitter(creds TwitterCredentials, opts ...Option) *Twitter {
	return &Twitter{creds: creds, opts: newOptions(twitterAPI, opts)}
}

func (t *Twitter) Name() string { return "Twitter" }

func (t *Twitter) Configured() bool { return t.creds.complete() }

// Post tweets text.
func (t *Twitter) Post(ctx context.Context, text string) error {
	if !t.Configured() {
		return ErrNotConfigured
	}
	cfg := oauth1.NewConfig(t.creds.APIKey, t.creds.APISecret)
	token := oauth1.NewToken(t.creds.AccessToken, t.creds.AccessSecret)
	signed := cfg.Client(context.WithValue(ctx, oauth1.HTTPClient, t.opts.http), token)
	signed.Timeout = t.opts.http.Timeout

	var out struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	body := map[string]string{"text": text}
	if err := postJSON(ctx, signed, "twitter", t.opts.baseURL+"/2/tweets", nil, body, &out); err != nil {
		return err
	}
	logging.For("social").WithField("tweet_id", out.Data.ID).Info("posted to Twitter")
	return nil
}
