package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

const arbitrumUSDC = "0xaf88d065e77c8cc2239327c5edb3a432268e5831"

// isolate keeps tests away from the user's config file and quiets logs so
// stderr carries only the error envelope.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("DEFI_EXPLORER_LOG_LEVEL", "error")
}

func newUpstream(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	calls := &atomic.Int32{}
	mux := http.NewServeMux()
	mux.HandleFunc("/pools", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	t.Setenv("DEFI_EXPLORER_UPSTREAM_URL", srv.URL)
	return srv, calls
}

func run(t *testing.T, args ...string) (int, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := NewRunnerWithWriters(&stdout, &stderr).Run(args)
	return code, &stdout, &stderr
}

func TestTrimRootPath(t *testing.T) {
	if got := trimRootPath("defi-explorer tokens list"); got != "tokens list" {
		t.Fatalf("unexpected trim result: %s", got)
	}
	if got := trimRootPath("defi-explorer"); got != "defi-explorer" {
		t.Fatalf("unexpected trim result: %s", got)
	}
}

func TestRunnerProvidersList(t *testing.T) {
	isolate(t)
	code, stdout, stderr := run(t, "providers", "list", "--results-only")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr.String())
	}
	var out []map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("failed to parse output json: %v output=%s", err, stdout.String())
	}
	if len(out) != 1 || out[0]["name"] != "defillama" {
		t.Fatalf("unexpected providers output: %v", out)
	}
}

func TestRunnerChainsList(t *testing.T) {
	isolate(t)
	code, stdout, stderr := run(t, "chains", "list", "--results-only", "--select", "chain_id")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr.String())
	}
	var out []map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("failed to parse output json: %v output=%s", err, stdout.String())
	}
	found := false
	for _, c := range out {
		if c["chain_id"] == float64(42161) {
			found = true
		}
		if len(c) != 1 {
			t.Fatalf("expected only selected field, got %v", c)
		}
	}
	if !found {
		t.Fatalf("expected arbitrum in chain list: %v", out)
	}
}

func TestRunnerTokensList(t *testing.T) {
	isolate(t)
	code, stdout, stderr := run(t, "tokens", "list", "--chain", "arbitrum", "--protocol", "aave", "--block", "stablecoin", "--results-only", "--select", "symbol")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr.String())
	}
	var out []map[string]string
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("failed to parse output json: %v output=%s", err, stdout.String())
	}
	got := make([]string, 0, len(out))
	for _, tok := range out {
		got = append(got, tok["symbol"])
	}
	if strings.Join(got, ",") != "USDC,USDT,DAI" {
		t.Fatalf("unexpected tokens: %v", got)
	}
}

func TestRunnerYields(t *testing.T) {
	isolate(t)
	_, calls := newUpstream(t, http.StatusOK, `{"status":"success","data":[
		{"pool":"a","chain":"Arbitrum","project":"aave-v3","symbol":"USDC","apy":4.2,"tvlUsd":1000000,"underlyingTokens":["`+arbitrumUSDC+`"]},
		{"pool":"b","chain":"Arbitrum","project":"pendle","symbol":"USDC","apy":9.1,"tvlUsd":5000,"underlyingTokens":["`+arbitrumUSDC+`"]},
		{"pool":"c","chain":"Arbitrum","project":"unknown-farm","symbol":"USDC","apy":99,"underlyingTokens":["`+arbitrumUSDC+`"]}
	]}`)

	code, stdout, stderr := run(t, "yields", "--chain", "arbitrum", "--token", "USDC", "--retries", "0")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr.String())
	}
	var env struct {
		Success bool `json:"success"`
		Data    []struct {
			Protocol string  `json:"protocol"`
			APY      float64 `json:"apy"`
			PairInfo string  `json:"pairInfo"`
		} `json:"data"`
		Meta struct {
			Command   string `json:"command"`
			Partial   bool   `json:"partial"`
			Cache     struct{ Status string } `json:"cache"`
			Providers []struct {
				Name   string `json:"name"`
				Status string `json:"status"`
				Items  int    `json:"items"`
			} `json:"providers"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &env); err != nil {
		t.Fatalf("failed to parse envelope: %v output=%s", err, stdout.String())
	}
	if !env.Success || env.Meta.Command != "yields" || env.Meta.Partial {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if len(env.Data) != 2 || env.Data[0].APY != 9.1 || env.Data[0].PairInfo != "USDC (PT)" {
		t.Fatalf("unexpected data: %+v", env.Data)
	}
	if env.Meta.Cache.Status != "write" {
		t.Fatalf("expected cache write, got %q", env.Meta.Cache.Status)
	}
	if len(env.Meta.Providers) != 1 || env.Meta.Providers[0].Status != "ok" || env.Meta.Providers[0].Items != 2 {
		t.Fatalf("unexpected provider statuses: %+v", env.Meta.Providers)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one upstream call, got %d", calls.Load())
	}
}

func TestRunnerYieldsNoProviders(t *testing.T) {
	isolate(t)
	_, calls := newUpstream(t, http.StatusOK, `{"data":[]}`)

	code, stdout, stderr := run(t, "yields", "--chain", "ethereum", "--token", "USDC")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr.String())
	}
	var env map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &env); err != nil {
		t.Fatalf("failed to parse envelope: %v", err)
	}
	warnings, _ := env["warnings"].([]any)
	if len(warnings) != 1 || !strings.Contains(warnings[0].(string), "no yield provider") {
		t.Fatalf("expected no-provider warning, got %v", env["warnings"])
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no upstream calls, got %d", calls.Load())
	}
}

func TestRunnerYieldsStrictFailsOnProviderError(t *testing.T) {
	isolate(t)
	newUpstream(t, http.StatusInternalServerError, `{"error":"down"}`)

	code, stdout, stderr := run(t, "yields", "--chain", "42161", "--token", arbitrumUSDC, "--strict", "--retries", "0")
	if code != 15 {
		t.Fatalf("expected exit 15, got %d stderr=%s", code, stderr.String())
	}
	if stdout.Len() != 0 {
		t.Fatalf("expected empty stdout, got %s", stdout.String())
	}
	var env struct {
		Success bool `json:"success"`
		Error   struct {
			Type string `json:"type"`
		} `json:"error"`
		Meta struct {
			Partial   bool `json:"partial"`
			Providers []struct {
				Status string `json:"status"`
			} `json:"providers"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(stderr.Bytes(), &env); err != nil {
		t.Fatalf("failed to parse error envelope: %v output=%s", err, stderr.String())
	}
	if env.Success || env.Error.Type != "partial_results" || !env.Meta.Partial {
		t.Fatalf("unexpected error envelope: %+v", env)
	}
	if len(env.Meta.Providers) != 1 || env.Meta.Providers[0].Status != "error" {
		t.Fatalf("unexpected provider statuses: %+v", env.Meta.Providers)
	}
}

func TestRunnerErrorEnvelopes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
		typ  string
	}{
		{name: "missing required flag", args: []string{"yields", "--chain", "arbitrum"}, code: 2, typ: "usage_error"},
		{name: "unknown chain id", args: []string{"tokens", "list", "--chain", "999"}, code: 13, typ: "unsupported"},
		{name: "unknown symbol", args: []string{"yields", "--chain", "arbitrum", "--token", "DOGE"}, code: 2, typ: "usage_error"},
		{name: "unknown command", args: []string{"bogus"}, code: 2, typ: "usage_error"},
		{name: "conflicting output flags", args: []string{"chains", "list", "--json", "--plain"}, code: 2, typ: "usage_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			code, _, stderr := run(t, append(tt.args, "--results-only")...)
			if code != tt.code {
				t.Fatalf("expected exit %d, got %d stderr=%s", tt.code, code, stderr.String())
			}
			var env map[string]any
			if err := json.Unmarshal(stderr.Bytes(), &env); err != nil {
				t.Fatalf("failed to parse error envelope: %v output=%s", err, stderr.String())
			}
			if env["success"] != false {
				t.Fatalf("expected success=false, got %v", env["success"])
			}
			errBody, _ := env["error"].(map[string]any)
			if errBody["type"] != tt.typ {
				t.Fatalf("expected error type %q, got %v", tt.typ, errBody["type"])
			}
		})
	}
}

func TestRunnerSchema(t *testing.T) {
	isolate(t)
	code, stdout, stderr := run(t, "schema", "yields", "--results-only")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr.String())
	}
	var out map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("failed to parse schema: %v output=%s", err, stdout.String())
	}
	if out["path"] != "defi-explorer yields" {
		t.Fatalf("unexpected schema path: %v", out["path"])
	}
}

func TestRunnerVersion(t *testing.T) {
	isolate(t)
	code, stdout, _ := run(t, "version", "--long")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.HasPrefix(stdout.String(), "defi-explorer ") {
		t.Fatalf("unexpected version output: %s", stdout.String())
	}
}
