package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/lwmacct/251207-go-pkg-strbuf/internal/command/server"
	"github.com/lwmacct/251207-go-pkg-strbuf/internal/config"
	"github.com/lwmacct/251207-go-pkg-strbuf/internal/version"
)

// retryBackoff 第 n 次重试前等待 n*retryBackoff。
const retryBackoff = 100 * time.Millisecond

func healthAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.LoadCmd(cmd, version.AppRawName)
	if err != nil {
		return err
	}

	body, err := send(ctx, cfg.Client, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}

	var health map[string]string
	if err := json.Unmarshal(body, &health); err != nil {
		return fmt.Errorf("decode health: %w", err)
	}
	_, err = fmt.Fprintf(cmd.Root().Writer, "%s %s\n", health["status"], health["version"])

	return err
}

func expandAction(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Args().Present() {
		return errors.New("missing TEMPLATE argument")
	}

	cfg, err := config.LoadCmd(cmd, version.AppRawName)
	if err != nil {
		return err
	}

	args := cmd.Args().Slice()
	payload, err := json.Marshal(server.ExpandRequest{
		Template: args[0],
		MaxSlot:  cmd.Int("template-max-slot"),
		Values:   args[1:],
	})
	if err != nil {
		return err
	}

	body, err := send(ctx, cfg.Client, http.MethodPost, "/v1/expand", payload)
	if err != nil {
		return err
	}

	var res server.Result
	if err := json.Unmarshal(body, &res); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	_, err = fmt.Fprintln(cmd.Root().Writer, res.Result)

	return err
}

// send 发送请求，连接错误与 5xx 按 cfg.Retries 重试，4xx 直接返回。
func send(ctx context.Context, cfg config.ClientConfig, method, path string, payload []byte) ([]byte, error) {
	client := &http.Client{Timeout: cfg.Timeout}
	url := strings.TrimSuffix(cfg.URL, "/") + path

	var lastErr error
	for attempt := 0; attempt <= cfg.Retries; attempt++ {
		if attempt > 0 {
			slog.Debug("Retrying request", "url", url, "attempt", attempt, "error", lastErr)
			if err := sleep(ctx, time.Duration(attempt)*retryBackoff); err != nil {
				return nil, err
			}
		}

		body, status, err := roundTrip(ctx, client, method, url, payload)
		switch {
		case err != nil:
			lastErr = err
		case status >= http.StatusInternalServerError:
			lastErr = responseError(status, body)
		case status >= http.StatusBadRequest:
			return nil, responseError(status, body)
		default:
			return body, nil
		}
	}

	return nil, fmt.Errorf("%s %s: %w", method, url, lastErr)
}

func roundTrip(ctx context.Context, client *http.Client, method, url string, payload []byte) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}

	return body, resp.StatusCode, nil
}

func responseError(status int, body []byte) error {
	var res server.ErrorResponse
	if err := json.Unmarshal(body, &res); err == nil && res.Error != "" {
		return fmt.Errorf("server returned %d: %s", status, res.Error)
	}

	return fmt.Errorf("server returned %d", status)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
