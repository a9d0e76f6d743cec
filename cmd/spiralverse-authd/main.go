// Command spiralverse-authd serves the Spiralverse authority over gRPC.
//
// Usage:
//
//	SPIRALVERSE_KEYSTORE_PASSWORD=... spiralverse-authd -config /etc/spiralverse/authd.yaml
//
// The master key and the long-term key salt are created in the encrypted key
// store on first start and reused afterwards, so tokens stay verifiable
// across restarts.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"

	spiralverse "github.com/issdandavis/Spiralverse-AetherMoore"
	"github.com/issdandavis/Spiralverse-AetherMoore/authsvc"
	"github.com/issdandavis/Spiralverse-AetherMoore/config"
	"github.com/issdandavis/Spiralverse-AetherMoore/crypto"
)

const masterKeySize = 32

func main() {
	fs := flag.NewFlagSet("spiralverse-authd", flag.ExitOnError)
	configPath := fs.String("config", "", "path to the YAML configuration file")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := cfg.ConfigureLogging(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logrus.WithError(err).Error("spiralverse-authd stopped")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	system, err := openSystem(cfg)
	if err != nil {
		return err
	}

	var replay *crypto.ReplayGuard
	if cfg.Replay.Enabled {
		replay, err = crypto.NewReplayGuard(cfg.Replay.Dir, cfg.Replay.Window, nil)
		if err != nil {
			return fmt.Errorf("opening replay guard: %w", err)
		}
		defer func() {
			if err := replay.Close(); err != nil {
				logrus.WithError(err).Warn("Failed to persist replay guard")
			}
		}()
	}

	lis, err := net.Listen("tcp", cfg.Server.Address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Server.Address, err)
	}

	srv := grpc.NewServer(
		grpc.MaxRecvMsgSize(authsvc.MaxMessageSize),
		grpc.UnaryInterceptor(authsvc.TimeoutInterceptor(cfg.Server.RequestTimeout)),
	)
	service := authsvc.NewServer(system, replay)
	authsvc.RegisterAuthorityServer(srv, service)

	go func() {
		<-ctx.Done()
		metrics := service.Metrics.Snapshot()
		logrus.WithFields(logrus.Fields{
			"issued":          metrics.Issue.Succeeded,
			"issue_failed":    metrics.Issue.Failed,
			"verified":        metrics.Verify.Succeeded,
			"verify_rejected": metrics.Verify.Failed,
			"replayed":        metrics.Replayed,
			"uptime":          metrics.Uptime.String(),
		}).Info("Shutting down")
		srv.GracefulStop()
	}()

	logrus.WithFields(logrus.Fields{
		"address":  lis.Addr().String(),
		"version":  spiralverse.Version,
		"protocol": spiralverse.ProtocolID,
		"replay":   cfg.Replay.Enabled,
	}).Info("spiralverse-authd listening")

	if err := srv.Serve(lis); err != nil {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

// openSystem loads the master key and salt from the key store, creating them
// on first use, and builds the authorization system.
func openSystem(cfg *config.Config) (*spiralverse.System, error) {
	store, err := crypto.NewEncryptedKeyStore(cfg.KeyStore.Dir, []byte(cfg.KeyStore.Password))
	if err != nil {
		return nil, fmt.Errorf("opening key store: %w", err)
	}
	defer store.Close()

	masterKey, err := store.LoadOrCreateMasterKey(cfg.KeyStore.KeyName, masterKeySize)
	if err != nil {
		return nil, fmt.Errorf("loading master key: %w", err)
	}
	defer crypto.ZeroBytes(masterKey)

	salt, err := store.LoadOrCreateMasterKey(cfg.KeyStore.SaltName(), crypto.SaltSize)
	if err != nil {
		return nil, fmt.Errorf("loading master key salt: %w", err)
	}

	opts := cfg.Options()
	opts.MasterKeySalt = salt
	system, err := spiralverse.New(masterKey, opts)
	if err != nil {
		return nil, fmt.Errorf("creating authorization system: %w", err)
	}
	return system, nil
}
