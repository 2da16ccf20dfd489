package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"dcrclient/internal/config"
	"dcrclient/internal/flow"
	"dcrclient/internal/shell"
	"dcrclient/pkg/logging"
)

// runShell starts a session and its interactive shell. It returns when
// the user exits or on SIGINT/SIGTERM. The metrics listener runs alongside
// when configured.
func runShell(ctx context.Context, cfg config.Config, services *Services, version string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := services.NewSession(cfg, flow.WithSoftwareVersion(version))
	go session.Run(ctx)
	defer func() {
		session.Close()
		session.Wait()
	}()

	if cfg.MetricsAddr != "" {
		server, err := shell.StartMetricsServer(ctx, cfg.MetricsAddr, services.Registry)
		if err != nil {
			logging.Error("Metrics", err, "Failed to start metrics listener on %s", cfg.MetricsAddr)
		} else {
			defer server.Stop()
		}
	}

	historyDir := ""
	if cfg.Storage.Backend == config.StorageBackendFile {
		historyDir = cfg.Storage.Dir
	}
	return shell.New(session, shell.WithHistoryDir(historyDir)).Run(ctx)
}
