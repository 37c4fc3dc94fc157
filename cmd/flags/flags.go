// Package flags holds the CLI flags and setup helpers shared by the registry
// commands.
package flags

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/landreg/title-registry-backend/common"
	"github.com/landreg/title-registry-backend/httpserver"
)

// SetupLogger builds the process logger from the common logging flags.
func SetupLogger(cCtx *cli.Context) *slog.Logger {
	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   cCtx.Bool(LogDebugFlag.Name),
		JSON:    cCtx.Bool(LogJSONFlag.Name),
		Service: cCtx.String(LogServiceFlag.Name),
		Version: common.Version,
	})

	if cCtx.Bool(LogUIDFlag.Name) {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

// ConfigureServer builds the HTTP server config from the server flags.
func ConfigureServer(cCtx *cli.Context, logger *slog.Logger) *httpserver.HTTPServerConfig {
	return &httpserver.HTTPServerConfig{
		ListenAddr:               cCtx.String(ListenAddrFlag.Name),
		MetricsAddr:              cCtx.String(MetricsAddrFlag.Name),
		Log:                      logger,
		EnablePprof:              cCtx.Bool(PprofFlag.Name),
		DrainDuration:            time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

var ListenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for API",
}

var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics, empty to disable",
}

var LogJSONFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}

var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}

var LogUIDFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}

var LogServiceFlag = &cli.StringFlag{
	Name:  "log-service",
	Value: "title-registry",
	Usage: "add 'service' tag to logs",
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}

var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}

var RegistryIdentityFlag = &cli.StringFlag{
	Name:     "registry-identity",
	Required: true,
	Usage:    "20-byte hex identity receiving registration fees",
}

var AdministratorFlag = &cli.StringFlag{
	Name:     "administrator",
	Required: true,
	Usage:    "20-byte hex identity allowed to create titles",
}

var RegistrationFeeFlag = &cli.StringFlag{
	Name:  "registration-fee",
	Value: "1000000000000000000",
	Usage: "registration fee in wei",
}

var TransferFeeFlag = &cli.StringFlag{
	Name:  "transfer-fee",
	Value: "1000000000000000000",
	Usage: "transfer fee in wei",
}

var ForwarderFlag = &cli.StringFlag{
	Name:  "forwarder",
	Value: "ledger",
	Usage: "funds forwarder to use: 'ledger' (in-memory) or 'eth' (JSON-RPC)",
}

var RPCAddrFlag = &cli.StringFlag{
	Name:  "rpc-addr",
	Value: "http://127.0.0.1:8545",
	Usage: "Ethereum JSON-RPC address for the eth forwarder",
}

var ForwarderKeyFlag = &cli.StringFlag{
	Name:    "forwarder-key",
	EnvVars: []string{"REGISTRY_FORWARDER_KEY"},
	Usage:   "hex private key funding forwarded payments (eth forwarder only)",
}

var ArchiveBackendsFlag = &cli.StringSliceFlag{
	Name:  "archive-backend",
	Usage: "document archive backend URI (file://, s3://, ipfs://, vault://); repeatable",
}

var CommonFlags = []cli.Flag{
	LogJSONFlag,
	LogDebugFlag,
	LogUIDFlag,
	LogServiceFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}
