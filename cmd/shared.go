package cmd

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"

	adapters "github.com/universal-tool-calling-protocol/go-utcp-adapters"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/json"
)

var stdout io.Writer = os.Stdout

var (
	options *Options

	svcMu   sync.Mutex
	svcInst *adapters.MultiProviderClient
	logger  logr.Logger
	syncLog func()
)

// start remembers the options of the current invocation; sub-commands read them
// once go-flags has populated them.
func start(o *Options) {
	svcMu.Lock()
	defer svcMu.Unlock()
	options = o
	svcInst = nil
	logger = logr.Discard()
	syncLog = func() {}
}

// finish releases the client and flushes the logger.
func finish() {
	svcMu.Lock()
	defer svcMu.Unlock()
	if svcInst != nil {
		if err := svcInst.Close(); err != nil {
			logger.Error(err, "closing client")
		}
		svcInst = nil
	}
	syncLog()
}

func newLogger(verbose bool) (logr.Logger, func(), error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if verbose {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zapLog, err := cfg.Build()
	if err != nil {
		return logr.Logger{}, nil, err
	}
	return zapr.NewLogger(zapLog), func() { _ = zapLog.Sync() }, nil
}

// serviceSingleton creates the providers client once per invocation.
func serviceSingleton() (*adapters.MultiProviderClient, error) {
	svcMu.Lock()
	defer svcMu.Unlock()
	if svcInst != nil {
		return svcInst, nil
	}
	log, flush, err := newLogger(options.Verbose)
	if err != nil {
		return nil, err
	}
	logger, syncLog = log, flush
	svc, err := adapters.NewMultiProviderClient(adapters.Config{
		ProvidersFilePath: options.Providers,
		EnvFiles:          options.EnvFiles,
		Logger:            log,
	})
	if err != nil {
		return nil, err
	}
	svcInst = svc
	return svc, nil
}

// commandContext carries the CLI logger so the adapters log through it.
func commandContext() context.Context {
	return logr.NewContext(context.Background(), logger)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = stdout.Write(append(data, '\n'))
	return err
}
