package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"multisend/internal/app/port"
	"multisend/internal/app/service"
	"multisend/internal/domain/entity"
	"multisend/internal/infrastructure/chain"
	"multisend/internal/infrastructure/configloader"
	"multisend/internal/infrastructure/dex"
	"multisend/internal/infrastructure/restapi"
	"multisend/internal/pkg/logger"
	"multisend/internal/pkg/metrics"
	"multisend/internal/pkg/utils"
)

func main() {
	cfgPath := utils.GetEnv("CONFIG_PATH", "config/config.yml")
	cfg, err := configloader.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	zapLogger, err := logger.Init(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath))

	metrics.MustRegisterMetrics()

	portLogger := logger.NewSlogAdapter()
	provider := chain.NewProvider(cfg, portLogger)
	hydrator := service.NewWalletHydrator(provider, portLogger, cfg.Batch.OpsPerSecond)
	orchestrator := service.NewBatchOrchestrator(provider, portLogger, cfg.Batch.OpsPerSecond)

	quoters := buildQuoters(cfg, zapLogger)

	handler := restapi.NewHandler(hydrator, orchestrator, quoters, zapLogger)
	router := restapi.SetupRouter(handler, zapLogger)
	registerPprof(router)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		zapLogger.Info(fmt.Sprintf("Server starting on %s", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exiting")
}

// buildQuoters wires one swap venue per chain family. A venue that cannot be
// configured is logged and left out; quoting is optional, transfers are not.
func buildQuoters(cfg *configloader.Config, zapLogger *zap.Logger) map[entity.ChainKind]port.SwapQuoter {
	quoters := make(map[entity.ChainKind]port.SwapQuoter)

	raydiumTimeout := time.Duration(cfg.Swap.RequestTimeoutMillis) * time.Millisecond
	quoters[entity.ChainAccountModel] = dex.NewRaydiumClient(cfg.Swap.RaydiumBaseURL, raydiumTimeout, zapLogger)
	zapLogger.Info("Raydium quote client initialized", zap.String("baseURL", cfg.Swap.RaydiumBaseURL))

	endpoint := cfg.Chains.ContractMainnet
	if endpoint.RouterV2 == "" || endpoint.WrappedNative == "" {
		zapLogger.Warn("Contract-model swap quoting disabled: routerV2/wrappedNative not configured")
		return quoters
	}
	ethClient, err := ethclient.Dial(endpoint.RPCURL)
	if err != nil {
		zapLogger.Warn("Contract-model swap quoting disabled: RPC dial failed", zap.Error(err))
		return quoters
	}
	rpcTimeout := time.Duration(cfg.Performance.RPCCallTimeoutSeconds) * time.Second
	pancake, err := dex.NewPancakeQuoter(ethClient, endpoint.RouterV2, endpoint.WrappedNative, rpcTimeout, zapLogger)
	if err != nil {
		zapLogger.Warn("Contract-model swap quoting disabled", zap.Error(err))
		return quoters
	}
	quoters[entity.ChainContractModel] = pancake
	zapLogger.Info("Pancake V2 quoter initialized", zap.String("router", endpoint.RouterV2))
	return quoters
}

func registerPprof(router *gin.Engine) {
	pprofRouter := router.Group("/debug/pprof")
	{
		pprofRouter.GET("/", gin.WrapF(pprof.Index))
		pprofRouter.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		pprofRouter.GET("/profile", gin.WrapF(pprof.Profile))
		pprofRouter.GET("/symbol", gin.WrapF(pprof.Symbol))
		pprofRouter.GET("/trace", gin.WrapF(pprof.Trace))
		pprofRouter.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
		pprofRouter.GET("/heap", gin.WrapH(pprof.Handler("heap")))
	}
}
