package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/openclaw/openclaw/internal/capability"
)

const openAIDefaultBaseURL = "https://api.openai.com/v1"

// OpenAIProvider implements Provider for any OpenAI-compatible chat
// completions API (OpenAI, Groq, Together, Ollama, vLLM, etc.).
type OpenAIProvider struct {
	id         string
	baseURL    string
	model      string
	credential Credential
	httpClient *http.Client
	clients    *ClientHolder[*openai.Client]
}

type OpenAIOption func(*OpenAIProvider)

// WithOpenAIHTTPClient sets a custom HTTP client.
func WithOpenAIHTTPClient(c *http.Client) OpenAIOption {
	return func(p *OpenAIProvider) { p.httpClient = c }
}

// WithOpenAICredential replaces the static API key with a lookup run per request.
func WithOpenAICredential(c Credential) OpenAIOption {
	return func(p *OpenAIProvider) { p.credential = c }
}

func NewOpenAIProvider(id, baseURL, apiKey, model string, opts ...OpenAIOption) *OpenAIProvider {
	if baseURL == "" {
		baseURL = openAIDefaultBaseURL
	}
	p := &OpenAIProvider{
		id:         id,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		credential: StaticCredential(apiKey),
	}
	for _, o := range opts {
		o(p)
	}
	p.clients = NewClientHolder(p.newClient)
	return p
}

func (p *OpenAIProvider) ID() string { return p.id }

func (p *OpenAIProvider) Configured() bool { return p.credential() != "" }

func (p *OpenAIProvider) newClient(_ context.Context, key string) (*openai.Client, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithBaseURL(p.baseURL + "/"),
		// Failures go straight to the router; there is no retry schedule.
		option.WithMaxRetries(0),
	}
	if p.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(p.httpClient))
	}
	c := openai.NewClient(opts...)
	return &c, nil
}

func (p *OpenAIProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	key := p.credential()
	if key == "" {
		return nil, fmt.Errorf("%s: %w", p.id, ErrNotConfigured)
	}
	client, err := p.clients.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	params, err := p.toParams(req)
	if err != nil {
		return nil, err
	}
	completion, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s chat completion: %w", strings.ToLower(p.id), err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%s: %w", strings.ToLower(p.id), ErrEmptyResponse)
	}
	return fromOpenAI(completion.Choices[0].Message), nil
}

func (p *OpenAIProvider) toParams(req *CompletionRequest) (openai.ChatCompletionNewParams, error) {
	params := openai.ChatCompletionNewParams{Model: shared.ChatModel(p.model)}
	for i, t := range req.Turns {
		msg, err := toOpenAIMessage(t)
		if err != nil {
			return params, fmt.Errorf("turn %d: %w", i, err)
		}
		params.Messages = append(params.Messages, msg)
	}

	if len(req.Tools) > 0 {
		params.Tools = make([]openai.ChatCompletionToolUnionParam, 0, len(req.Tools))
		for _, c := range req.Tools {
			schema, err := c.SchemaMap()
			if err != nil {
				return params, err
			}
			params.Tools = append(params.Tools, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
				Name:        c.Name,
				Description: openai.String(c.Description),
				Parameters:  shared.FunctionParameters(schema),
			}))
		}
		// Groq rejects a follow-up request that carries tools without tool_choice.
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String(string(openai.ChatCompletionToolChoiceOptionAutoAuto)),
		}
	}
	return params, nil
}

func toOpenAIMessage(t Turn) (openai.ChatCompletionMessageParamUnion, error) {
	switch t.Role {
	case RoleSystem:
		return openai.SystemMessage(t.Text), nil
	case RoleUser:
		return openai.UserMessage(t.Text), nil
	case RoleAssistant:
		if raw, ok := t.Raw.(openai.ChatCompletionMessage); ok {
			return raw.ToParam(), nil
		}
		return assistantMessage(t)
	case RoleTool:
		if t.Result == nil {
			return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("tool turn has no result")
		}
		content, err := json.Marshal(t.Result.Payload)
		if err != nil {
			return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("marshal %s result: %w", t.Result.Name, err)
		}
		return openai.ToolMessage(string(content), t.Result.CallID), nil
	default:
		return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("unsupported role %q", t.Role)
	}
}

// assistantMessage rebuilds an assistant turn that did not come from this backend.
func assistantMessage(t Turn) (openai.ChatCompletionMessageParamUnion, error) {
	if len(t.Invocations) == 0 {
		return openai.AssistantMessage(t.Text), nil
	}
	calls := make([]openai.ChatCompletionMessageToolCallUnionParam, 0, len(t.Invocations))
	for _, inv := range t.Invocations {
		args, err := json.Marshal(inv.Args)
		if err != nil {
			return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("marshal %s args: %w", inv.Name, err)
		}
		calls = append(calls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: inv.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      inv.Name,
					Arguments: string(args),
				},
			},
		})
	}
	asst := openai.ChatCompletionAssistantMessageParam{ToolCalls: calls}
	if t.Text != "" {
		asst.Content.OfString = openai.String(t.Text)
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &asst}, nil
}

func fromOpenAI(msg openai.ChatCompletionMessage) *CompletionResponse {
	var invocations []capability.Invocation
	for _, tc := range msg.ToolCalls {
		// Every call in the replayed message needs a result, so calls we
		// cannot run still become invocations that answer with an error.
		if tc.Type != "function" {
			invocations = append(invocations, capability.Invocation{
				ID:        tc.ID,
				Name:      tc.Custom.Name,
				Args:      capability.Args{},
				ArgsError: fmt.Sprintf("unsupported tool call type %q", tc.Type),
			})
			continue
		}
		inv := capability.Invocation{ID: tc.ID, Name: tc.Function.Name, Args: capability.Args{}}
		if raw := strings.TrimSpace(tc.Function.Arguments); raw != "" {
			if err := json.Unmarshal([]byte(raw), &inv.Args); err != nil {
				inv.ArgsError = fmt.Sprintf("invalid arguments for %s: %v", tc.Function.Name, err)
			}
		}
		invocations = append(invocations, inv)
	}
	return &CompletionResponse{
		Text:        msg.Content,
		Invocations: invocations,
		Turn:        Turn{Role: RoleAssistant, Text: msg.Content, Invocations: invocations, Raw: msg},
	}
}
