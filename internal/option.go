package internal

import "fmt"

// Option is a functional option for configuring an application run.
type Option func(*application)

// application carries the resolved run configuration shared by the serve
// and MCP entry points.
type application struct {
	config *Config
}

func newApplication(opts ...Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}
