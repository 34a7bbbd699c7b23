package tokenlist

import (
	"github.com/ggonzalez94/defi-explorer/internal/id"
)

const trustWalletAssets = "https://raw.githubusercontent.com/trustwallet/assets/master/blockchains"

// Trust Wallet asset repository folder names.
var trustWalletChains = map[int64]string{
	1:     "ethereum",
	10:    "optimism",
	56:    "smartchain",
	137:   "polygon",
	8453:  "base",
	42161: "arbitrum",
	43114: "avalanchec",
}

// LogoURL is the fallback logo for a token without one. The asset repository
// is keyed by EIP-55 address. Returns "" when no fallback exists.
func LogoURL(chainID int64, address string) string {
	folder, ok := trustWalletChains[chainID]
	if !ok || !id.IsAddress(address) {
		return ""
	}
	return trustWalletAssets + "/" + folder + "/assets/" + id.ChecksumAddress(address) + "/logo.png"
}
