package cmd

import (
	"context"
	"fmt"

	"ambioctl/internal/alerts"
	"ambioctl/internal/api"
	"ambioctl/internal/cli"
	"ambioctl/internal/config"
	"ambioctl/internal/platform"
	"ambioctl/internal/session"
)

// runtime bundles everything a command needs to talk to the Ambio API.
type runtime struct {
	cfg       config.Config
	configDir string
	session   *session.Controller
	alerts    *alerts.Client
	platform  *platform.Client
}

// newRuntime loads the configuration and builds the shared client stack.
// Callers must Close the runtime when done so the proactive refresh timer
// is released.
func newRuntime() (*runtime, error) {
	configDir, err := config.DefaultConfigDir()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, err
	}
	if apiURLFlag != "" {
		cfg.APIURL = apiURLFlag
	}

	tokens, err := api.NewTokenStore(api.TokenStoreConfig{
		StorageDir: cfg.TokenDir,
		FileMode:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open token storage: %w", err)
	}

	client := api.NewClient(cfg.APIURL, tokens)
	return &runtime{
		cfg:       cfg,
		configDir: configDir,
		session:   session.NewController(client, tokens),
		alerts:    alerts.NewClient(client),
		platform:  platform.NewClient(client),
	}, nil
}

func (r *runtime) Close() {
	r.session.Close()
}

// requireUser returns the authenticated user or an error that maps to the
// auth-required exit code.
func (r *runtime) requireUser(ctx context.Context) (*session.User, error) {
	user := r.session.CheckAuth(ctx)
	if user == nil {
		return nil, &cli.AuthRequiredError{}
	}
	return user, nil
}

// requireCapability returns the user when their role grants the capability
// selected by pick, and a client-side permission error otherwise.
func (r *runtime) requireCapability(ctx context.Context, action string, pick func(session.Capabilities) bool) (*session.User, error) {
	user, err := r.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !pick(session.CapabilitiesFor(user)) {
		return nil, &cli.PermissionError{Action: action}
	}
	return user, nil
}
