package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/presenter"
)

const maxResponseBytes = 1 << 20

var ErrNoProtocol = errors.New("provider response without protocolo")

// Provider hands an envelope to the external delivery provider and returns the
// protocol it issued.
type Provider interface {
	Name() string
	Send(ctx context.Context, env presenter.Envelope) (string, error)
}

type providerResponse struct {
	Protocolo string `json:"protocolo"`
}

type HTTPProvider struct {
	name    string
	baseURL string
	headers map[string]string
	client  *http.Client
}

func NewHTTPProvider(name, baseURL string, timeout time.Duration, headers map[string]string) *HTTPProvider {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &HTTPProvider{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: headers,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) Name() string { return p.name }

func (p *HTTPProvider) Send(ctx context.Context, env presenter.Envelope) (string, error) {
	b, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/", bytes.NewReader(b))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range p.headers {
		req.Header.Set(k, v)
	}

	res, err := p.client.Do(req)
	if err != nil {
		return "", err
	}

	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("provider=%s read body: %w", p.name, err)
	}

	if res.StatusCode/100 != 2 {
		return "", fmt.Errorf("provider=%s status=%d body=%q", p.name, res.StatusCode, truncate(raw, 256))
	}

	var out providerResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("provider=%s decode response: %w", p.name, err)
	}
	if strings.TrimSpace(out.Protocolo) == "" {
		return "", fmt.Errorf("provider=%s: %w", p.name, ErrNoProtocol)
	}

	return strings.TrimSpace(out.Protocolo), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
