package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"resty.dev/v3"

	apperrors "github.com/allisson/pdvsync/internal/errors"
)

// Config holds the adapter settings.
type Config struct {
	BaseURL string
	// Environment is the requested environment. Production is never honored.
	Environment     Environment
	Timeout         time.Duration
	RateLimitPerSec float64
	Burst           int
}

// Adapter is the fiscal gateway client. It is safe for concurrent use.
type Adapter struct {
	client      *resty.Client
	environment Environment
	ready       bool
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// NewAdapter creates an adapter. A production environment is downgraded to sandbox.
func NewAdapter(cfg Config, logger *slog.Logger) *Adapter {
	requested := Environment(strings.ToLower(strings.TrimSpace(string(cfg.Environment))))
	if requested != EnvironmentSandbox {
		logger.Warn("fiscal gateway environment forced to sandbox",
			slog.String("requested", string(cfg.Environment)),
		)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	limit := rate.Inf
	if cfg.RateLimitPerSec > 0 {
		limit = rate.Limit(cfg.RateLimitPerSec)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")

	return &Adapter{
		client:      client,
		environment: EnvironmentSandbox,
		ready:       baseURL != "",
		limiter:     rate.NewLimiter(limit, burst),
		logger:      logger,
	}
}

// Environment returns the effective environment, which is always sandbox.
func (a *Adapter) Environment() Environment {
	return a.environment
}

// Ready reports whether a gateway URL is configured.
func (a *Adapter) Ready() bool {
	return a.ready
}

// Close releases idle connections.
func (a *Adapter) Close() error {
	return a.client.Close()
}

// EmitDocument issues a consumer receipt for the payload.
func (a *Adapter) EmitDocument(ctx context.Context, payload *EmissionPayload) (*EmissionResult, error) {
	if payload == nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "emission payload is required")
	}
	if err := payload.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
	}
	if err := a.acquire(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(toWireEmitRequest(payload))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode emission request")
	}

	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParam("ref", payload.Reference).
		SetBody(body).
		Post("/nfce")
	wire, err := a.decode(ctx, resp, err, "emit")
	if err != nil {
		return nil, err
	}
	if wire.Reference == "" {
		wire.Reference = payload.Reference
	}

	result := wire.toEmissionResult()
	a.logger.Info("fiscal document emitted",
		slog.String("reference", payload.Reference),
		slog.String("status", string(result.Status)),
		slog.String("environment", string(a.environment)),
	)
	return result, nil
}

// CheckStatus queries the document issued for reference. The provider keys status
// lookups by the emission reference (the order id) rather than the access key, which a
// document still being processed does not have yet.
func (a *Adapter) CheckStatus(ctx context.Context, reference string) (*EmissionResult, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "reference is required")
	}
	if err := a.acquire(ctx); err != nil {
		return nil, err
	}

	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParam("ambiente", homologation).
		Get("/nfce/" + url.PathEscape(reference))
	wire, err := a.decode(ctx, resp, err, "status")
	if err != nil {
		return nil, err
	}
	if wire.Reference == "" {
		wire.Reference = reference
	}
	return wire.toEmissionResult(), nil
}

// CancelDocument cancels an authorized document. The justification is checked before
// any request is made.
func (a *Adapter) CancelDocument(ctx context.Context, documentKey, justification string) (*CancelResult, error) {
	if err := ValidateJustification(justification); err != nil {
		return nil, err
	}
	if strings.TrimSpace(documentKey) == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "document key is required")
	}
	if err := a.acquire(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(wireCancelRequest{
		Environment:   homologation,
		Justification: strings.TrimSpace(justification),
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode cancel request")
	}

	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/nfce/" + url.PathEscape(documentKey) + "/cancelamento")
	wire, err := a.decode(ctx, resp, err, "cancel")
	if err != nil {
		return nil, err
	}

	result := wire.toCancelResult()
	a.logger.Info("fiscal document cancellation",
		slog.String("document_key", documentKey),
		slog.String("status", string(result.Status)),
	)
	return result, nil
}

// acquire checks readiness and waits for the throttle.
func (a *Adapter) acquire(ctx context.Context) error {
	if !a.ready {
		return ErrNotConfigured
	}
	if err := a.limiter.Wait(ctx); err != nil {
		if ctx.Err() == nil {
			// The wait would outlast the deadline.
			return apperrors.Wrap(fmt.Errorf("%w: %w", apperrors.ErrTimeout, err), "fiscal gateway throttled")
		}
		return apperrors.Wrap(apperrors.FromContext(ctx.Err()), "fiscal gateway throttled")
	}
	return nil
}

// decode classifies transport and HTTP failures and parses the body.
func (a *Adapter) decode(ctx context.Context, resp *resty.Response, err error, op string) (*wireResponse, error) {
	if err != nil {
		return nil, classify(ctx, err, op)
	}

	status := resp.StatusCode()
	switch {
	case status >= http.StatusInternalServerError:
		return nil, apperrors.Wrap(
			apperrors.ErrGatewayUnavailable,
			fmt.Sprintf("fiscal gateway %s returned %d", op, status),
		)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return nil, apperrors.Wrap(
			apperrors.ErrUnauthorized,
			fmt.Sprintf("fiscal gateway %s returned %d", op, status),
		)
	case status == http.StatusNotFound:
		return nil, apperrors.Wrap(apperrors.ErrNotFound, fmt.Sprintf("fiscal gateway %s: document not found", op))
	}

	var wire wireResponse
	if err := json.Unmarshal([]byte(resp.String()), &wire); err != nil {
		return nil, apperrors.Wrap(
			apperrors.ErrGatewayUnavailable,
			fmt.Sprintf("fiscal gateway %s returned an invalid body", op),
		)
	}
	if status >= http.StatusBadRequest && wire.Status == "" {
		wire.Status = "rejeitado"
	}
	return &wire, nil
}

func classify(ctx context.Context, err error, op string) error {
	err = ctxErr(ctx, err)
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() && !errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(fmt.Errorf("%w: %w", apperrors.ErrTimeout, err), "fiscal gateway "+op)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperrors.Wrap(apperrors.FromContext(err), "fiscal gateway "+op)
	}
	return apperrors.Wrap(fmt.Errorf("%w: %w", apperrors.ErrGatewayUnavailable, err), "fiscal gateway "+op)
}

// ctxErr prefers the context's own error when it has ended.
func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil && !errors.Is(err, ctx.Err()) {
		return fmt.Errorf("%w: %w", ctx.Err(), err)
	}
	return err
}
