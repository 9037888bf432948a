package coingecko

import "strings"

// symbolToID maps common ticker symbols to CoinGecko coin ids.
var symbolToID = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"ADA":   "cardano",
	"DOT":   "polkadot",
	"AVAX":  "avalanche-2",
	"MATIC": "matic-network",
	"POL":   "matic-network",
	"LINK":  "chainlink",
	"UNI":   "uniswap",
	"ATOM":  "cosmos",
	"XRP":   "ripple",
	"DOGE":  "dogecoin",
	"SHIB":  "shiba-inu",
	"LTC":   "litecoin",
	"BCH":   "bitcoin-cash",
	"NEAR":  "near",
	"APT":   "aptos",
	"ARB":   "arbitrum",
	"OP":    "optimism",
	"SUI":   "sui",
	"SEI":   "sei-network",
	"TIA":   "celestia",
	"INJ":   "injective-protocol",
	"FET":   "fetch-ai",
	"RNDR":  "render-token",
	"GRT":   "the-graph",
	"FIL":   "filecoin",
	"AAVE":  "aave",
	"MKR":   "maker",
	"CRV":   "curve-dao-token",
	"LDO":   "lido-dao",
	"RPL":   "rocket-pool",
	"SNX":   "synthetix-network-token",
	"COMP":  "compound-governance-token",
	"PEPE":  "pepe",
	"WIF":   "dogwifcoin",
	"BONK":  "bonk",
	"FLOKI": "floki",
}

// ResolveID maps a symbol (BTC), name or coin id to a CoinGecko id.
// Unknown inputs are assumed to already be ids.
func ResolveID(token string) string {
	t := strings.TrimSpace(token)
	if id, ok := symbolToID[strings.ToUpper(t)]; ok {
		return id
	}
	return strings.ToLower(t)
}
