package id

import "testing"

func TestParseChainVariants(t *testing.T) {
	chain, err := ParseChain("arbitrum")
	if err != nil {
		t.Fatalf("ParseChain(arbitrum) failed: %v", err)
	}
	if chain.EVMChainID != 42161 {
		t.Fatalf("unexpected chain id: %d", chain.EVMChainID)
	}

	chain, err = ParseChain("8453")
	if err != nil {
		t.Fatalf("ParseChain(8453) failed: %v", err)
	}
	if chain.Slug != "base" {
		t.Fatalf("unexpected slug: %s", chain.Slug)
	}

	chain, err = ParseChain("eip155:42161")
	if err != nil {
		t.Fatalf("ParseChain(eip155:42161) failed: %v", err)
	}
	if chain.LlamaName != "Arbitrum" {
		t.Fatalf("unexpected llama name: %s", chain.LlamaName)
	}

	if _, err := ParseChain("999999"); err == nil {
		t.Fatal("expected unsupported chain id error")
	}
	if _, err := ParseChain(""); err == nil {
		t.Fatal("expected error for empty chain")
	}
}

func TestLlamaChainNameFallback(t *testing.T) {
	if got := LlamaChainName(10); got != "Optimism" {
		t.Fatalf("expected Optimism, got %s", got)
	}
	if got := LlamaChainName(424242); got != DefaultLlamaChainName {
		t.Fatalf("expected fallback name, got %s", got)
	}
}

func TestNormalizeAddress(t *testing.T) {
	got, err := NormalizeAddress(" 0xAF88D065E77C8CC2239327C5EDB3A432268E5831 ")
	if err != nil {
		t.Fatalf("NormalizeAddress failed: %v", err)
	}
	if got != "0xaf88d065e77c8cc2239327c5edb3a432268e5831" {
		t.Fatalf("unexpected normalized address: %s", got)
	}
	if _, err := NormalizeAddress("0x1234"); err == nil {
		t.Fatal("expected error for short address")
	}
	if ChecksumAddress("0xaf88d065e77c8cc2239327c5edb3a432268e5831") != "0xaf88d065e77c8cC2239327C5EDb3A432268e5831" {
		t.Fatalf("unexpected checksum: %s", ChecksumAddress("0xaf88d065e77c8cc2239327c5edb3a432268e5831"))
	}
}

func TestLookupByAddressIsCaseInsensitive(t *testing.T) {
	token, ok := LookupByAddress(42161, "0xAF88D065E77C8CC2239327C5EDB3A432268E5831")
	if !ok || token.Symbol != "USDC" {
		t.Fatalf("expected USDC, got %+v ok=%v", token, ok)
	}
	if _, ok := LookupBySymbol(42161, "usdt"); !ok {
		t.Fatal("expected USDT lookup by symbol")
	}
}

func TestKnownChainIDsSorted(t *testing.T) {
	ids := KnownChainIDs()
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("ids not sorted: %v", ids)
		}
	}
	if len(Chains()) != len(ids) {
		t.Fatalf("chains/ids length mismatch")
	}
}

func TestResolveTokenAddress(t *testing.T) {
	got, err := ResolveTokenAddress(42161, "usdc")
	if err != nil || got != "0xaf88d065e77c8cc2239327c5edb3a432268e5831" {
		t.Fatalf("symbol lookup: got %q, %v", got, err)
	}
	got, err = ResolveTokenAddress(42161, "0xAF88D065E77C8CC2239327C5EDB3A432268E5831")
	if err != nil || got != "0xaf88d065e77c8cc2239327c5edb3a432268e5831" {
		t.Fatalf("address: got %q, %v", got, err)
	}
	for _, bad := range []string{"", "0x123", "NOPE"} {
		if _, err := ResolveTokenAddress(42161, bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
