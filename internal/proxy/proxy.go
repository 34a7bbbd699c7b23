// Package proxy forwards yield API requests to the upstream yields service.
//
// Browsers cannot call the upstream directly (no CORS headers), so the
// explorer exposes POST /api/yields which takes {endpoint, method, data} and
// returns the upstream JSON untouched. Forwarder is the upstream side and is
// also used in-process; Client talks to a remote explorer's proxy route.
package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"

	clierr "github.com/ggonzalez94/defi-explorer/internal/errors"
	"github.com/ggonzalez94/defi-explorer/internal/httpx"
	"github.com/ggonzalez94/defi-explorer/internal/metrics"
	"github.com/ggonzalez94/defi-explorer/internal/policy"
)

const DefaultUpstream = "https://yields.llama.fi"

// Route is the path the proxy handler is mounted on.
const Route = "/api/yields"

type Request struct {
	Endpoint string         `json:"endpoint"`
	Method   string         `json:"method"`
	Data     map[string]any `json:"data,omitempty"`
}

// Transport sends a proxy request and decodes the upstream JSON into out.
type Transport interface {
	Forward(ctx context.Context, req Request, out any) error
}

type Forwarder struct {
	http      *httpx.Client
	upstream  string
	allowlist []string
	logger    *slog.Logger
}

func NewForwarder(httpClient *httpx.Client, upstream string, allowlist []string, logger *slog.Logger) *Forwarder {
	if strings.TrimSpace(upstream) == "" {
		upstream = DefaultUpstream
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Forwarder{
		http:      httpClient,
		upstream:  strings.TrimRight(strings.TrimSpace(upstream), "/"),
		allowlist: allowlist,
		logger:    logger,
	}
}

func (f *Forwarder) Forward(ctx context.Context, req Request, out any) error {
	raw, err := f.forwardRaw(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return clierr.Wrap(clierr.CodeUnavailable, "decode proxied response", err)
	}
	return nil
}

func (f *Forwarder) forwardRaw(ctx context.Context, req Request) (json.RawMessage, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	if method != http.MethodGet && method != http.MethodPost {
		return nil, clierr.New(clierr.CodeUsage, fmt.Sprintf("unsupported proxy method: %s", req.Method))
	}
	cleanPath, err := policy.CheckEndpointAllowed(f.allowlist, req.Endpoint)
	if err != nil {
		return nil, err
	}
	target, body, err := f.buildTarget(req, cleanPath, method)
	if err != nil {
		return nil, err
	}

	label := endpointLabel(cleanPath)
	var raw json.RawMessage
	if _, err := f.http.DoBodyJSON(ctx, method, target, body, nil, &raw); err != nil {
		metrics.ProxyForwardsTotal.WithLabelValues(label, "error").Inc()
		f.logger.Warn("proxy upstream request failed", "endpoint", cleanPath, "method", method, "error", err)
		return nil, err
	}
	metrics.ProxyForwardsTotal.WithLabelValues(label, "ok").Inc()
	return raw, nil
}

func (f *Forwarder) buildTarget(req Request, cleanPath, method string) (string, []byte, error) {
	parsed, err := url.Parse(strings.TrimSpace(req.Endpoint))
	if err != nil {
		return "", nil, clierr.Wrap(clierr.CodeUsage, "parse endpoint", err)
	}
	query := parsed.Query()
	var body []byte
	if len(req.Data) > 0 {
		if method == http.MethodGet {
			keys := make([]string, 0, len(req.Data))
			for k := range req.Data {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				query.Set(k, fmt.Sprint(req.Data[k]))
			}
		} else {
			body, err = json.Marshal(req.Data)
			if err != nil {
				return "", nil, clierr.Wrap(clierr.CodeUsage, "encode proxy data", err)
			}
		}
	}
	target := f.upstream + cleanPath
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}
	return target, body, nil
}

// endpointLabel keeps metric cardinality bounded: "/chart/<pool>" -> "/chart".
func endpointLabel(cleanPath string) string {
	trimmed := strings.TrimPrefix(cleanPath, "/")
	if i := strings.Index(trimmed, "/"); i >= 0 {
		trimmed = trimmed[:i]
	}
	return "/" + trimmed
}

// Client forwards requests to a remote explorer's proxy route.
type Client struct {
	http *httpx.Client
	url  string
}

func NewClient(httpClient *httpx.Client, baseURL string) *Client {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if !strings.HasSuffix(base, Route) {
		base += Route
	}
	return &Client{http: httpClient, url: base}
}

func (c *Client) Forward(ctx context.Context, req Request, out any) error {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	body, err := json.Marshal(req)
	if err != nil {
		return clierr.Wrap(clierr.CodeInternal, "encode proxy request", err)
	}
	_, err = c.http.DoBodyJSON(ctx, http.MethodPost, c.url, body, nil, out)
	return err
}
