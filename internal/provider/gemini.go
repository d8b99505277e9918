package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/openclaw/openclaw/internal/capability"
)

const geminiDefaultModel = "gemini-2.0-flash"

// GeminiProvider talks to the Gemini API through the genai SDK.
type GeminiProvider struct {
	id         string
	baseURL    string
	model      string
	credential Credential
	httpClient *http.Client
	clients    *ClientHolder[*genai.Client]
}

type GeminiOption func(*GeminiProvider)

// WithGeminiHTTPClient sets a custom HTTP client.
func WithGeminiHTTPClient(c *http.Client) GeminiOption {
	return func(p *GeminiProvider) { p.httpClient = c }
}

// WithGeminiCredential replaces the static API key with a lookup run per request.
func WithGeminiCredential(c Credential) GeminiOption {
	return func(p *GeminiProvider) { p.credential = c }
}

func NewGeminiProvider(id, baseURL, apiKey, model string, opts ...GeminiOption) *GeminiProvider {
	if model == "" {
		model = geminiDefaultModel
	}
	p := &GeminiProvider{
		id:         id,
		baseURL:    baseURL,
		model:      model,
		credential: StaticCredential(apiKey),
	}
	for _, o := range opts {
		o(p)
	}
	p.clients = NewClientHolder(p.newClient)
	return p
}

func (p *GeminiProvider) ID() string { return p.id }

func (p *GeminiProvider) Configured() bool { return p.credential() != "" }

func (p *GeminiProvider) newClient(ctx context.Context, key string) (*genai.Client, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      key,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  p.httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: p.baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return c, nil
}

func (p *GeminiProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	key := p.credential()
	if key == "" {
		return nil, fmt.Errorf("%s: %w", p.id, ErrNotConfigured)
	}
	client, err := p.clients.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	contents, cfg, err := toGenai(req)
	if err != nil {
		return nil, err
	}
	resp, err := client.Models.GenerateContent(ctx, p.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}
	return fromGenai(resp)
}

func toGenai(req *CompletionRequest) ([]*genai.Content, *genai.GenerateContentConfig, error) {
	var system []string
	var contents []*genai.Content

	turns := req.Turns
	for i := 0; i < len(turns); i++ {
		t := turns[i]
		switch t.Role {
		case RoleSystem:
			system = append(system, t.Text)
		case RoleUser:
			contents = append(contents, genai.NewContentFromText(t.Text, genai.RoleUser))
		case RoleAssistant:
			contents = append(contents, modelContent(t))
		case RoleTool:
			// Consecutive results answer one model turn and travel in one user content.
			var parts []*genai.Part
			for ; i < len(turns) && turns[i].Role == RoleTool; i++ {
				res := turns[i].Result
				if res == nil {
					return nil, nil, fmt.Errorf("tool turn %d has no result", i)
				}
				parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
					ID:       res.CallID,
					Name:     res.Name,
					Response: map[string]any{"result": res.Payload},
				}})
			}
			i--
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: parts})
		default:
			return nil, nil, fmt.Errorf("unsupported role %q", t.Role)
		}
	}

	cfg := &genai.GenerateContentConfig{}
	if len(system) > 0 {
		cfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, c := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:                 c.Name,
				Description:          c.Description,
				ParametersJsonSchema: c.Schema(),
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
		cfg.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingConfigModeAuto},
		}
	}
	return contents, cfg, nil
}

// modelContent returns the model turn exactly as the backend sent it, or
// rebuilds it when the turn did not come from Gemini.
func modelContent(t Turn) *genai.Content {
	if c, ok := t.Raw.(*genai.Content); ok && c != nil {
		return c
	}
	var parts []*genai.Part
	if t.Text != "" {
		parts = append(parts, genai.NewPartFromText(t.Text))
	}
	for _, inv := range t.Invocations {
		parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
			ID:   inv.ID,
			Name: inv.Name,
			Args: inv.Args,
		}})
	}
	return &genai.Content{Role: genai.RoleModel, Parts: parts}
}

func fromGenai(resp *genai.GenerateContentResponse) (*CompletionResponse, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	content := resp.Candidates[0].Content

	var text strings.Builder
	var invocations []capability.Invocation
	for _, part := range content.Parts {
		if part == nil {
			continue
		}
		if part.Text != "" && !part.Thought {
			text.WriteString(part.Text)
		}
		if fc := part.FunctionCall; fc != nil {
			invocations = append(invocations, capability.Invocation{
				ID:   fc.ID,
				Name: fc.Name,
				Args: capability.Args(fc.Args),
			})
		}
	}

	out := &CompletionResponse{Text: text.String(), Invocations: invocations}
	out.Turn = Turn{Role: RoleAssistant, Text: out.Text, Invocations: invocations, Raw: content}
	return out, nil
}
