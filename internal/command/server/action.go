package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/lwmacct/251207-go-pkg-strbuf/internal/config"
	"github.com/lwmacct/251207-go-pkg-strbuf/internal/metrics"
	"github.com/lwmacct/251207-go-pkg-strbuf/internal/version"
)

func action(ctx context.Context, cmd *cli.Command) error {
	// 加载配置：默认值 → 配置文件 → 环境变量 → CLI flags
	cfg, err := config.LoadCmd(cmd, version.AppRawName)
	if err != nil {
		return err
	}

	recorder, opts, shutdownMetrics, err := setupMetrics(cfg)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      NewHandler(cfg, recorder, slog.Default(), opts...),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  cfg.Server.Idletime,
	}

	// 启动服务器（非阻塞）
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "addr", cfg.Server.Addr, "cacheSize", cfg.Server.CacheSize, "metrics", cfg.Server.Metrics)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errCh:
		slog.Error("Server error", "error", err)
		_ = shutdownMetrics(context.WithoutCancel(ctx))

		return fmt.Errorf("server error: %w", err)
	case <-sigChan:
	case <-ctx.Done():
	}

	slog.Info("Shutting down")

	// 使用 WithoutCancel 保持 context 链，同时防止父 context 取消影响 shutdown
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.Timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)

		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := shutdownMetrics(shutdownCtx); err != nil {
		slog.Warn("Metrics shutdown failed", "error", err)
	}

	slog.Info("Server stopped gracefully")

	return nil
}

// setupMetrics 按 server.metrics 安装全局 MeterProvider。
//
// 启用时使用 ManualReader，由 GET /metrics 按需采集；关闭时使用 [metrics.Noop]。
func setupMetrics(cfg *config.Config) (metrics.Recorder, []HandlerOption, func(context.Context) error, error) {
	if !cfg.Server.Metrics {
		return metrics.Noop{}, nil, func(context.Context) error { return nil }, nil
	}

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	recorder, err := metrics.NewFromProvider(provider)
	if err != nil {
		_ = provider.Shutdown(context.Background())

		return nil, nil, nil, fmt.Errorf("init metrics: %w", err)
	}

	return recorder, []HandlerOption{WithMetrics(reader)}, provider.Shutdown, nil
}
