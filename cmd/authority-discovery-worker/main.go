// Command authority-discovery-worker runs the authority-discovery
// worker as a standalone process against a logging stand-in network
// and runtime, for local experimentation and for exercising the Fx
// wiring outside of a full node. A real deployment supplies its own
// NetworkProvider, KeySource and RuntimeAPI from the host node and
// wires authoritydiscovery.Module directly instead of running this
// binary.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/authority-discovery/internal/authoritydiscovery"
	"github.com/dep2p/authority-discovery/pkg/authkey"
	"github.com/dep2p/authority-discovery/pkg/log"
	"github.com/dep2p/authority-discovery/pkg/multiaddr"
	"github.com/dep2p/authority-discovery/pkg/types"
)

var runLog = log.Logger("authoritydiscovery.cmd")

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "authority-discovery-worker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	role := flag.String("role", "sentry", "node role: sentry or authority")
	listenAddr := flag.String("listen-addr", "/ip4/0.0.0.0/tcp/30333", "local external multiaddr to publish (authority role only)")
	peerIDFlag := flag.String("peer-id", "QmYyQSo1c1Ym7orWxLYvCrM2EmxFTANf8wXmmE7DWjhx5N", "local peer id")
	signingKeyHex := flag.String("signing-key-hex", "", "32-byte hex-encoded secp256k1 private key (authority role only)")
	publishInterval := flag.Duration("publish-interval", 10*time.Minute, "publish tick interval")
	refillInterval := flag.Duration("refill-interval", 10*time.Minute, "refill tick interval")
	flag.Parse()

	nodeRole, err := parseRole(*role)
	if err != nil {
		return err
	}

	cfg := authoritydiscovery.NewConfig(
		authoritydiscovery.WithRole(nodeRole),
		authoritydiscovery.WithPublishInterval(*publishInterval),
		authoritydiscovery.WithRefillInterval(*refillInterval),
	)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	local := types.PeerID(*peerIDFlag)
	if err := local.Validate(); err != nil {
		return fmt.Errorf("invalid -peer-id: %w", err)
	}

	var externals []multiaddr.Multiaddr
	if nodeRole == types.RoleAuthority {
		addr, err := multiaddr.NewMultiaddr(*listenAddr)
		if err != nil {
			return fmt.Errorf("invalid -listen-addr: %w", err)
		}
		externals = append(externals, addr)
	}

	keys, authorities, err := buildKeySource(nodeRole, *signingKeyHex)
	if err != nil {
		return err
	}

	net := newLoggingNetwork(local, externals)
	runtime := &staticRuntimeAPI{authorities: authorities}
	events := make(chan authoritydiscovery.DHTEvent)

	app := fx.New(
		fx.Supply(cfg),
		fx.Provide(
			func() authoritydiscovery.NetworkProvider { return net },
			func() authoritydiscovery.KeySource { return keys },
			func() authoritydiscovery.RuntimeAPI { return runtime },
			func() <-chan authoritydiscovery.DHTEvent { return events },
		),
		authoritydiscovery.Module,
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewExample()}
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-signalCh
		runLog.Info("received signal, shutting down", "signal", sig.String())
		close(events)
		cancel()
	}()

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("starting app: %w", err)
	}

	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	return app.Stop(stopCtx)
}

func parseRole(s string) (types.Role, error) {
	switch strings.ToLower(s) {
	case "sentry":
		return types.RoleSentry, nil
	case "authority":
		return types.RoleAuthority, nil
	default:
		return 0, fmt.Errorf("unknown -role %q: must be sentry or authority", s)
	}
}

func buildKeySource(role types.Role, signingKeyHex string) (authkey.KeySource, []types.AuthorityID, error) {
	if role != types.RoleAuthority || signingKeyHex == "" {
		return authkey.NewStaticKeySource(), nil, nil
	}
	raw, err := hex.DecodeString(signingKeyHex)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid -signing-key-hex: %w", err)
	}
	priv, err := authkey.NewPrivateKey(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid signing key: %w", err)
	}
	authority := priv.PublicKey().AuthorityID()
	return authkey.NewStaticKeySource(priv), []types.AuthorityID{authority}, nil
}
