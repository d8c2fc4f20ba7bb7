package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/layer-3/w3o"
	"github.com/layer-3/w3o/adapters/events"
	"github.com/layer-3/w3o/adapters/evm"
	"github.com/layer-3/w3o/adapters/metrics"
	"github.com/layer-3/w3o/adapters/store"
	"github.com/layer-3/w3o/adapters/tokenizer"
	"github.com/layer-3/w3o/adapters/tokens"
	"github.com/layer-3/w3o/config"
	"github.com/layer-3/w3o/core"
	"github.com/layer-3/w3o/ports"
	transport "github.com/layer-3/w3o/transport/http"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	zcfg := zap.NewProductionConfig()
	if err := zcfg.Level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, err
	}
	return zcfg.Build()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	signKey, err := loadHandleKey(cfg.HandleKeyFile)
	if err != nil {
		logger.Fatal("load handle key", zap.String("file", cfg.HandleKeyFile), zap.Error(err))
	}
	if cfg.HandleKeyFile == "" {
		logger.Warn("HANDLE_KEY_FILE not set, stored wallet handles will not survive a restart")
	}

	// Sessions go to redis when configured, memory otherwise
	var (
		kv        ports.Store
		publisher message.Publisher
	)
	wmLogger := watermill.NewStdLogger(false, false)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("parse redis url", zap.Error(err))
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()

		kv = store.NewRedisStore(redisClient, store.DefaultRedisPrefix)
		publisher, err = redisstream.NewPublisher(redisstream.PublisherConfig{Client: redisClient}, wmLogger)
		if err != nil {
			logger.Fatal("create redis publisher", zap.Error(err))
		}
	} else {
		kv = store.NewMemoryStore()
		publisher = gochannel.NewGoChannel(gochannel.Config{}, wmLogger)
	}
	defer publisher.Close()

	collector := metrics.NewCollector("w3o")
	eventPub := collector.Publisher(events.NewWatermillPublisher(publisher, cfg.AppName))
	octopus := w3o.New(w3o.Options{Store: kv, Publisher: eventPub, Logger: logger})

	client, err := ethclient.DialContext(ctx, cfg.EVMRPCURL)
	if err != nil {
		logger.Fatal("dial evm rpc", zap.String("url", cfg.EVMRPCURL), zap.Error(err))
	}
	defer client.Close()

	walletKey, err := crypto.GenerateKey()
	if err != nil {
		logger.Fatal("generate wallet key", zap.Error(err))
	}
	wallet := evm.NewLocalWallet(walletKey)
	logger.Info("local wallet", zap.String("address", wallet.Address()))

	network := evm.NewNetwork(core.NetworkSettings{
		Name:          cfg.EVMNetworkName,
		ChainID:       cfg.EVMChainID,
		DisplayName:   cfg.EVMNetworkName,
		RPCURL:        cfg.EVMRPCURL,
		TokensURL:     cfg.EVMTokensURL,
		ModuleVersion: "1.0.0",
	}, client, tokens.NewHTTPSource(nil))

	auth := evm.NewAuth(evm.AuthConfig{
		Name:      "local",
		AppName:   cfg.AppName,
		HandleTTL: cfg.HandleTTL,
	}, wallet, kv, tokenizer.NewJWTTokenizer(signKey, cfg.AppName), logger)

	if err := octopus.AddNetworkSupport(ctx, w3o.NetworkSupport{
		Type:     evm.NetworkType,
		Auth:     []w3o.AuthSupport{auth},
		Networks: []w3o.Network{network},
	}); err != nil {
		logger.Fatal("add evm support", zap.Error(err))
	}

	bootCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = octopus.Boot(bootCtx, cfg.Settings())
	cancel()
	if err != nil && !errors.Is(err, core.ErrSessionLoad) {
		logger.Fatal("boot", zap.Error(err))
	}
	if err != nil {
		logger.Warn("stored sessions discarded", zap.Error(err))
	}

	go refresh(ctx, octopus, logger)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: transport.SetupRouter(octopus, logger, collector),
	}
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

// refresh updates every network state periodically
func refresh(ctx context.Context, octopus *w3o.Octopus, logger *zap.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := octopus.Networks().UpdateState(ctx); err != nil {
				logger.Warn("update network state", zap.Error(err))
			}
		}
	}
}
