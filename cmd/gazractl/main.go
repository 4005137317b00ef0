// Command gazractl inspects and seeds the Gazra site collections from the
// command line, using the same configuration as the API server.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gazra/gazra/backend/go-services/internal/config"
	"github.com/gazra/gazra/backend/go-services/internal/database"
	"github.com/gazra/gazra/backend/go-services/internal/docstore"
	"github.com/gazra/gazra/backend/go-services/pkg/logger"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	root, release := newRootCmd(openConfiguredStore)
	err := root.Execute()
	release()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openConfiguredStore connects to the store selected by STORE_BACKEND.
// The memory backend is accepted but only useful for dry runs.
func openConfiguredStore(ctx context.Context) (docstore.Store, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Store.Backend != config.BackendMongo {
		logger.Warnf("STORE_BACKEND=%s: changes are not persisted", cfg.Store.Backend)
		return docstore.NewMemoryStore(), func() {}, nil
	}
	client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 3)
	if err != nil {
		return nil, nil, err
	}
	return docstore.NewMongoStore(client.Database(cfg.MongoDB.Database)), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}, nil
}
