package mcpserver

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/drawdb-mcp/agent/contract"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config is loaded with the MCP prefix.
type Config struct {
	Name              string        `default:"drawdb-mcp"`
	Version           string        `default:"dev"`
	Transport         string        `default:"stdio"`
	HTTPAddr          string        `envconfig:"HTTP_ADDR" default:":3000"`
	RemoteControlAddr string        `split_words:"true" default:":8787"`
	RemoteControlPath string        `split_words:"true" default:"/remote-control"`
	ShutdownTimeout   time.Duration `split_words:"true" default:"10s"`
}

func (c *Config) Validate() error {
	c.Transport = strings.ToLower(strings.TrimSpace(c.Transport))
	switch c.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("%w: unsupported transport %q (want stdio or http)", contractx.ErrValidation, c.Transport)
	}
	if !strings.HasPrefix(c.RemoteControlPath, "/") {
		return fmt.Errorf("%w: remote control path must start with /", contractx.ErrValidation)
	}
	return nil
}
