// Command callback-lambda serves gateway callbacks from API Gateway (HTTP
// API, payload v2) through the same router as cmd/api. Sessions must live in
// redis since each execution environment has its own memory.
package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/rickd5991-stack/jenny-bot/cmd/mainconfig"
	"github.com/rickd5991-stack/jenny-bot/internal/app/bootstrap"
	appconfig "github.com/rickd5991-stack/jenny-bot/internal/config"
	"github.com/rickd5991-stack/jenny-bot/pkg/logging"
)

// confirmationDrain bounds how long an invocation waits for confirmation
// sends before returning.
const confirmationDrain = 5 * time.Second

type drainer interface {
	Wait(ctx context.Context) error
}

type invoker struct {
	handler    http.Handler
	dispatcher drainer
	logger     *logging.Logger
}

func main() {
	cfg := appconfig.Load()
	logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, Format: "json"})
	if cfg.SessionBackend != "redis" {
		logger.Warn("callback lambda running without redis sessions; dialogues will not survive cold starts")
	}

	ctx := context.Background()
	app, err := bootstrap.BuildApp(ctx, cfg, loadAWS(ctx, cfg, logger), logger)
	if err != nil {
		logger.Error("failed to build app", "error", err)
		panic(err)
	}

	inv := &invoker{handler: app.Handler, dispatcher: app.Dispatcher, logger: logger}
	lambda.Start(inv.handle)
}

func loadAWS(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *aws.Config {
	if !cfg.NeedsAWS() {
		return nil
	}
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		panic(err)
	}
	return &awsCfg
}

func (inv *invoker) handle(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	req, err := toRequest(ctx, evt)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusBadRequest, Body: "invalid body"}, nil
	}

	rec := httptest.NewRecorder()
	inv.handler.ServeHTTP(rec, req)

	if inv.dispatcher != nil {
		drainCtx, cancel := context.WithTimeout(ctx, confirmationDrain)
		if err := inv.dispatcher.Wait(drainCtx); err != nil {
			inv.logger.Warn("confirmation sends still pending at invocation end", "error", err)
		}
		cancel()
	}

	out := events.APIGatewayV2HTTPResponse{
		StatusCode: rec.Code,
		Body:       rec.Body.String(),
		Headers:    map[string]string{},
	}
	for key := range rec.Header() {
		out.Headers[strings.ToLower(key)] = rec.Header().Get(key)
	}
	return out, nil
}

func toRequest(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (*http.Request, error) {
	body, err := decodeBody(evt)
	if err != nil {
		return nil, err
	}

	method := strings.ToUpper(strings.TrimSpace(evt.RequestContext.HTTP.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := strings.TrimSpace(evt.RawPath)
	if path == "" {
		path = strings.TrimSpace(evt.RequestContext.HTTP.Path)
	}
	if path == "" {
		path = "/"
	}
	target := path
	if qs := strings.TrimSpace(evt.RawQueryString); qs != "" {
		target += "?" + qs
	}

	req := httptest.NewRequest(method, target, bytes.NewReader(body)).WithContext(ctx)
	for key, value := range evt.Headers {
		req.Header.Set(key, value)
	}
	if ip := strings.TrimSpace(evt.RequestContext.HTTP.SourceIP); ip != "" && req.Header.Get("X-Real-Ip") == "" {
		req.Header.Set("X-Real-Ip", ip)
	}
	return req, nil
}

func decodeBody(evt events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if !evt.IsBase64Encoded {
		return []byte(evt.Body), nil
	}
	return base64.StdEncoding.DecodeString(evt.Body)
}
