package drawdb

import "time"

const (
	defaultCommandTimeout  = 10 * time.Second
	defaultWriteTimeout    = 5 * time.Second
	defaultPingInterval    = 30 * time.Second
	defaultPongWait        = 60 * time.Second
	defaultMaxMessageBytes = 1 << 20
)

// Config tunes the remote-control channel. Loaded with the DRAWDB prefix.
type Config struct {
	CommandTimeout  time.Duration `split_words:"true" default:"10s"`
	WriteTimeout    time.Duration `split_words:"true" default:"5s"`
	PingInterval    time.Duration `split_words:"true" default:"30s"`
	PongWait        time.Duration `split_words:"true" default:"60s"`
	MaxMessageBytes int64         `split_words:"true" default:"1048576"`
	// Empty accepts any origin.
	AllowedOrigins []string `split_words:"true"`
}

func (c Config) withDefaults() Config {
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = defaultCommandTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.PingInterval <= 0 {
		c.PingInterval = defaultPingInterval
	}
	if c.PongWait <= c.PingInterval {
		c.PongWait = c.PingInterval * 2
	}
	if c.MaxMessageBytes <= 0 {
		c.MaxMessageBytes = defaultMaxMessageBytes
	}
	return c
}
