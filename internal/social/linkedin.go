package social

import (
	"context"
	"net/http"

	"github.com/openclaw/openclaw/internal/logging"
)

const linkedInAPI = "https://api.linkedin.com"

// LinkedIn shares text posts as a member via the UGC posts API.
type LinkedIn struct {
	accessToken string
	personURN   string
	opts        options
}

func NewLinkedIn(accessToken, personURN string, opts ...Option) *LinkedIn {
	return &LinkedIn{accessToken: accessToken, personURN: personURN, opts: newOptions(linkedInAPI, opts)}
}

func (l *LinkedIn) Name() string { return "LinkedIn" }

func (l *LinkedIn) Configured() bool { return l.accessToken != "" && l.personURN != "" }

type ugcPost struct {
	Author          string            `json:"author"`
	LifecycleState  string            `json:"lifecycleState"`
	SpecificContent specificContent   `json:"specificContent"`
	Visibility      map[string]string `json:"visibility"`
}

type specificContent struct {
	ShareContent shareContent `json:"com.linkedin.ugc.ShareContent"`
}

type shareContent struct {
	ShareCommentary    shareCommentary `json:"shareCommentary"`
	ShareMediaCategory string          `json:"shareMediaCategory"`
}

type shareCommentary struct {
	Text string `json:"text"`
}

// Post publishes text publicly under the configured member.
func (l *LinkedIn) Post(ctx context.Context, text string) error {
	if !l.Configured() {
		return ErrNotConfigured
	}
	body := ugcPost{
		Author:         "urn:li:person:" + l.personURN,
		LifecycleState: "PUBLISHED",
		SpecificContent: specificContent{ShareContent: shareContent{
			ShareCommentary:    shareCommentary{Text: text},
			ShareMediaCategory: "NONE",
		}},
		Visibility: map[string]string{"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC"},
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+l.accessToken)
	header.Set("X-Restli-Protocol-Version", "2.0.0")

	var out struct {
		ID string `json:"id"`
	}
	if err := postJSON(ctx, l.opts.http, "linkedin", l.opts.baseURL+"/v2/ugcPosts", header, body, &out); err != nil {
		return err
	}
	logging.For("social").WithField("post_id", out.ID).Info("posted to LinkedIn")
	return nil
}
