package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"tipranks-client/lib/platforms/tipranks"
	"tipranks-client/lib/restyutil"
	"tipranks-client/lib/sessionstore"
)

// openStore returns nil when no session store is configured.
func openStore(ctx context.Context, cfg Config) (sessionstore.Store, error) {
	if cfg.SessionStore.Kind == "" {
		return nil, nil
	}
	store, err := sessionstore.Open(ctx, cfg.SessionStore, nil)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return store, nil
}

// createClient reads the config and returns an authenticated client, cleanup
// releases the session store.
func createClient(ctx context.Context) (client *tipranks.Client, cfg Config, cleanup func(), err error) {
	cfg, err = readConfig()
	if err != nil {
		return nil, Config{}, nil, fmt.Errorf("read config: %w", err)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, Config{}, nil, err
	}
	cleanup = func() {
		if store != nil {
			store.Close()
		}
	}

	auth, err := cfg.authenticator(store)
	if err != nil {
		cleanup()
		return nil, Config{}, nil, err
	}

	opts := tipranks.ClientOptions{
		BaseUrl:                 cfg.baseUrl(),
		Authenticator:           auth,
		Timeout:                 time.Duration(cfg.TimeoutSeconds) * time.Second,
		RequestsPerSecond:       cfg.RequestsPerSecond,
		DisableCloudflareBypass: cfg.DisableCloudflareBypass,
	}
	if dumpHttp != "" {
		output, err := restyutil.NewFilesystemOutput(dumpHttp)
		if err != nil {
			cleanup()
			return nil, Config{}, nil, fmt.Errorf("create http dump directory: %w", err)
		}
		slog.Info("writing http messages", "dir", output.Dir())
		opts.MessageOutput = output
	}

	client, err = tipranks.NewClient(ctx, opts)
	if err != nil {
		cleanup()
		return nil, Config{}, nil, err
	}
	return client, cfg, cleanup, nil
}
