package capability

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type Param struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
	Required    bool   `yaml:"required"`
}

// Capability is an action the assistant may ask to run. Params keep their declared order.
type Capability struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Params      []Param `yaml:"params,omitempty"`
}

// Schema renders the parameters as a JSON Schema object. Every adapter renders
// its function declarations from this one schema.
func (c Capability) Schema() *jsonschema.Schema {
	props := orderedmap.New[string, *jsonschema.Schema]()
	var required []string
	for _, p := range c.Params {
		typ := p.Type
		if typ == "" {
			typ = "string"
		}
		props.Set(p.Name, &jsonschema.Schema{Type: typ, Description: p.Description})
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

// SchemaMap is Schema decoded into a plain map, for SDKs that take untyped parameters.
func (c Capability) SchemaMap() (map[string]any, error) {
	raw, err := json.Marshal(c.Schema())
	if err != nil {
		return nil, fmt.Errorf("marshal %s schema: %w", c.Name, err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("unmarshal %s schema: %w", c.Name, err)
	}
	return m, nil
}

type Args map[string]any

// String returns the named argument when it is a string.
func (a Args) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Invocation is a backend's request to run a capability. ID is the backend's
// correlation token and may be empty for backends that match results by position.
type Invocation struct {
	ID   string
	Name string
	Args Args
	// ArgsError is set when the backend's argument payload could not be decoded.
	ArgsError string
}

// Result answers one Invocation. Payload is JSON-serialisable data or an error payload.
type Result struct {
	CallID  string
	Name    string
	Payload any
}

// ErrorPayload is the payload returned to a backend when an invocation fails.
func ErrorPayload(msg string) map[string]any {
	return map[string]any{"error": msg}
}

// ErrorMessage reports whether payload is an error payload and returns its message.
func ErrorMessage(payload any) (string, bool) {
	m, ok := payload.(map[string]any)
	if !ok || len(m) != 1 {
		return "", false
	}
	msg, ok := m["error"].(string)
	return msg, ok
}
