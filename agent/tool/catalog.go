package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/drawdb-mcp/agent/contract"
)

// Tool is one callable operation exposed to agents.
type Tool interface {
	Name() string
	Description() string
	InputSchema() json.RawMessage
	Info() *schema.ToolInfo
	Execute(ctx context.Context, args json.RawMessage) (any, error)
}

type Executor func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error)

// Catalog holds tools in registration order.
type Catalog struct {
	tools map[string]Tool
	order []string
}

func NewCatalog(tools ...Tool) (*Catalog, error) {
	c := &Catalog{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if t == nil {
			return nil, errors.New("nil tool")
		}
		name := t.Name()
		if _, dup := c.tools[name]; dup {
			return nil, fmt.Errorf("duplicate tool name %q", name)
		}
		c.tools[name] = t
		c.order = append(c.order, name)
	}
	return c, nil
}

func (c *Catalog) Get(name string) (Tool, bool) {
	t, ok := c.tools[name]
	return t, ok
}

func (c *Catalog) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

func (c *Catalog) Tools() []Tool {
	out := make([]Tool, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.tools[name])
	}
	return out
}

// Infos describes every tool for function-calling chat models.
func (c *Catalog) Infos() []*schema.ToolInfo {
	out := make([]*schema.ToolInfo, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.tools[name].Info())
	}
	return out
}

func (c *Catalog) Executor() Executor {
	fallback := DefaultExecutor()
	return func(ctx context.Context, name string, args map[string]any) (contractx.ToolResult, error) {
		t, ok := c.Get(name)
		if !ok {
			return fallback(ctx, name, args)
		}

		raw := json.RawMessage(`{}`)
		if args != nil {
			encoded, err := json.Marshal(args)
			if err != nil {
				err = fmt.Errorf("%w: encode arguments: %v", contractx.ErrValidation, err)
				return contractx.ToolResult{Tool: name, Error: err.Error()}, err
			}
			raw = encoded
		}

		out, err := t.Execute(ctx, raw)
		if err != nil {
			return contractx.ToolResult{Tool: name, Error: err.Error()}, err
		}
		return contractx.ToolResult{Tool: name, Result: out}, nil
	}
}

func DefaultExecutor() Executor {
	return func(ctx context.Context, tool string, _ map[string]any) (contractx.ToolResult, error) {
		err := fmt.Errorf("%w: %s", contractx.ErrUnknownTool, tool)
		return contractx.ToolResult{
			Tool:  tool,
			Error: fmt.Sprintf("tool=%s is unavailable", tool),
		}, err
	}
}
