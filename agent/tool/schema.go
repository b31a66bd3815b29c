package tool

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/invopop/jsonschema"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	contractx "github.com/tanpawarit/drawdb-mcp/agent/contract"
)

// inputSchema is a tool's JSON schema, reflected from its Go input type and compiled
// once for argument validation.
type inputSchema struct {
	raw      json.RawMessage
	compiled *sjsonschema.Schema
}

func newInputSchema(toolName string, input any) (*inputSchema, error) {
	raw, err := reflectSchema(input)
	if err != nil {
		return nil, fmt.Errorf("reflect %s schema: %w", toolName, err)
	}

	url := "mem://tools/" + toolName + ".json"
	compiler := sjsonschema.NewCompiler()
	compiler.Draft = sjsonschema.Draft2020
	if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("load %s schema: %w", toolName, err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", toolName, err)
	}

	return &inputSchema{raw: raw, compiled: compiled}, nil
}

// reflectSchema inlines every definition and drops $schema/$id, which several MCP
// clients refuse.
func reflectSchema(input any) (json.RawMessage, error) {
	r := &jsonschema.Reflector{
		Anonymous:                 true,
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
	}
	s := r.Reflect(input)
	s.Version = ""
	return json.Marshal(s)
}

// Validate checks args against the schema. Empty args are treated as an empty object.
func (s *inputSchema) Validate(args json.RawMessage) error {
	if len(bytes.TrimSpace(args)) == 0 || bytes.Equal(bytes.TrimSpace(args), []byte("null")) {
		args = json.RawMessage(`{}`)
	}

	var doc any
	if err := json.Unmarshal(args, &doc); err != nil {
		return fmt.Errorf("%w: arguments are not valid JSON: %v", contractx.ErrValidation, err)
	}

	err := s.compiled.Validate(doc)
	if err == nil {
		return nil
	}

	var verr *sjsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}
	return fmt.Errorf("%w: %s", contractx.ErrValidation, strings.Join(validationIssues(verr), "; "))
}

// toolInfo describes a tool to eino chat models with the parameters of its raw input
// schema, so models and argument validation see the same contract.
func toolInfo(name, desc string, raw json.RawMessage) (*schema.ToolInfo, error) {
	params := &openapi3.Schema{}
	if err := json.Unmarshal(raw, params); err != nil {
		return nil, fmt.Errorf("convert %s schema: %w", name, err)
	}
	return &schema.ToolInfo{
		Name:        name,
		Desc:        desc,
		ParamsOneOf: schema.NewParamsOneOfByOpenAPIV3(params),
	}, nil
}

func (s *inputSchema) Raw() json.RawMessage {
	out := make(json.RawMessage, len(s.raw))
	copy(out, s.raw)
	return out
}

func validationIssues(verr *sjsonschema.ValidationError) []string {
	seen := make(map[string]struct{})
	var walk func(e *sjsonschema.ValidationError)
	walk = func(e *sjsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			seen[loc+": "+e.Message] = struct{}{}
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(verr)

	issues := make([]string, 0, len(seen))
	for issue := range seen {
		issues = append(issues, issue)
	}
	sort.Strings(issues)
	return issues
}
