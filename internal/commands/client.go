package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"evalgo.org/pathium/internal/gateway"
	"evalgo.org/pathium/internal/orchestrator"
	"evalgo.org/pathium/internal/session"
	"evalgo.org/pathium/internal/transport"
)

// app bundles the client-side service objects behind one wiring step so
// every command builds them the same way.
type app struct {
	sessions *session.Store
	gateway  *gateway.Gateway
	orch     *orchestrator.Orchestrator
}

// newApp wires session store, transport and gateway, and restores a
// persisted session if one exists. The store doubles as the transport's
// token source, so the client must be attached after construction.
func newApp(ctx context.Context) (*app, error) {
	sessions := session.New(cfg.Session.TokenFile)

	client, err := transport.New(cfg.API.BaseURL, cfg.API.Timeout, sessions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize API client: %w", err)
	}
	sessions.SetClient(client)

	if err := sessions.Restore(ctx); err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}

	gw := gateway.New(client)
	return &app{
		sessions: sessions,
		gateway:  gw,
		orch:     orchestrator.New(gw, sessions, cfg.Seed.RequireAuth),
	}, nil
}

// bootstrap runs the startup sequence and surfaces a seeding refusal as a
// warning instead of an error. The commands still work against the empty
// graph; queries will simply find no paths.
func (a *app) bootstrap(ctx context.Context) error {
	if err := a.orch.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}
	if err := a.orch.InitError(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	return nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
