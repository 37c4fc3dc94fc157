// The httpserver command runs the land title registry service: the registry
// engine, a funds forwarder, the document archive, and the JSON API with
// metrics.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/urfave/cli/v2"

	"github.com/landreg/title-registry-backend/cmd/flags"
	"github.com/landreg/title-registry-backend/escrow"
	"github.com/landreg/title-registry-backend/httpserver"
	"github.com/landreg/title-registry-backend/interfaces"
	"github.com/landreg/title-registry-backend/registry"
	"github.com/landreg/title-registry-backend/sigverify"
	"github.com/landreg/title-registry-backend/storage"
)

func main() {
	app := &cli.App{
		Name:  "registry-server",
		Usage: "Serve the land title registry API",
		Flags: append([]cli.Flag{
			flags.ListenAddrFlag,
			flags.RegistryIdentityFlag,
			flags.AdministratorFlag,
			flags.RegistrationFeeFlag,
			flags.TransferFeeFlag,
			flags.ForwarderFlag,
			flags.RPCAddrFlag,
			flags.ForwarderKeyFlag,
			flags.ArchiveBackendsFlag,
		}, flags.CommonFlags...),
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	registryIdentity, err := interfaces.NewIdentityFromHex(cCtx.String(flags.RegistryIdentityFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid registry identity: %w", err)
	}
	administrator, err := interfaces.NewIdentityFromHex(cCtx.String(flags.AdministratorFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid administrator identity: %w", err)
	}

	registrationFee, ok := new(big.Int).SetString(cCtx.String(flags.RegistrationFeeFlag.Name), 10)
	if !ok {
		return fmt.Errorf("invalid registration fee")
	}
	transferFee, ok := new(big.Int).SetString(cCtx.String(flags.TransferFeeFlag.Name), 10)
	if !ok {
		return fmt.Errorf("invalid transfer fee")
	}

	forwarder, err := buildForwarder(cCtx, logger)
	if err != nil {
		return err
	}

	engine, err := registry.New(interfaces.RegistryConfig{
		RegistryIdentity: registryIdentity,
		Administrator:    administrator,
		RegistrationFee:  registrationFee,
		TransferFee:      transferFee,
	}, sigverify.NewEthereumVerifier(), forwarder, logger)
	if err != nil {
		return fmt.Errorf("could not create registry engine: %w", err)
	}
	defer engine.Close()

	var archive interfaces.StorageBackend
	if uris := cCtx.StringSlice(flags.ArchiveBackendsFlag.Name); len(uris) > 0 {
		locations := make([]interfaces.StorageBackendLocation, len(uris))
		for i, uri := range uris {
			locations[i] = interfaces.StorageBackendLocation(uri)
		}
		archive, err = storage.NewArchiveFactory(logger).CreateMultiBackend(locations)
		if err != nil {
			return fmt.Errorf("could not create document archive: %w", err)
		}
	} else {
		logger.Warn("No archive backends configured, document endpoints disabled")
	}

	handler := httpserver.NewHandler(engine, archive, logger)
	server, err := httpserver.New(flags.ConfigureServer(cCtx, logger), handler)
	if err != nil {
		return fmt.Errorf("could not create server: %w", err)
	}

	server.RunInBackground()
	logger.Info("Registry server is running",
		"administrator", administrator.String(),
		"registryIdentity", registryIdentity.String(),
		"registrationFee", registrationFee.String())

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
	<-exit
	logger.Info("Shutdown signal received")

	server.Shutdown()
	logger.Info("Server shutdown complete")
	return nil
}

// buildForwarder selects the funds forwarder implementation.
func buildForwarder(cCtx *cli.Context, logger *slog.Logger) (interfaces.FundsForwarder, error) {
	switch cCtx.String(flags.ForwarderFlag.Name) {
	case "ledger":
		logger.Info("Using in-memory escrow ledger")
		return escrow.NewLedger(), nil

	case "eth":
		keyHex := cCtx.String(flags.ForwarderKeyFlag.Name)
		if keyHex == "" {
			return nil, fmt.Errorf("forwarder-key is required for the eth forwarder")
		}
		key, err := crypto.HexToECDSA(keyHex)
		if err != nil {
			return nil, fmt.Errorf("invalid forwarder key: %w", err)
		}

		rpcAddr := cCtx.String(flags.RPCAddrFlag.Name)
		logger.Info("Connecting to Ethereum RPC", "address", rpcAddr)
		client, err := ethclient.Dial(rpcAddr)
		if err != nil {
			return nil, fmt.Errorf("could not dial RPC: %w", err)
		}

		return escrow.NewEthForwarder(context.Background(), client, key)

	default:
		return nil, fmt.Errorf("invalid forwarder: %s", cCtx.String(flags.ForwarderFlag.Name))
	}
}
