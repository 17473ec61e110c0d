package chains

// builtin is the chain table shipped with verifyprep. It is read-only.
var builtin = []ChainConfig{
	{Network: "mainnet", ChainID: 1, URLs: URLs{APIURL: "https://api.etherscan.io/api", BrowserURL: "https://etherscan.io"}},
	{Network: "sepolia", ChainID: 11155111, URLs: URLs{APIURL: "https://api-sepolia.etherscan.io/api", BrowserURL: "https://sepolia.etherscan.io"}},
	{Network: "holesky", ChainID: 17000, URLs: URLs{APIURL: "https://api-holesky.etherscan.io/api", BrowserURL: "https://holesky.etherscan.io"}},
	{Network: "optimisticEthereum", ChainID: 10, URLs: URLs{APIURL: "https://api-optimistic.etherscan.io/api", BrowserURL: "https://optimistic.etherscan.io"}},
	{Network: "optimismSepolia", ChainID: 11155420, URLs: URLs{APIURL: "https://api-sepolia-optimistic.etherscan.io/api", BrowserURL: "https://sepolia-optimism.etherscan.io"}},
	{Network: "arbitrumOne", ChainID: 42161, URLs: URLs{APIURL: "https://api.arbiscan.io/api", BrowserURL: "https://arbiscan.io"}},
	{Network: "arbitrumSepolia", ChainID: 421614, URLs: URLs{APIURL: "https://api-sepolia.arbiscan.io/api", BrowserURL: "https://sepolia.arbiscan.io"}},
	{Network: "base", ChainID: 8453, URLs: URLs{APIURL: "https://api.basescan.org/api", BrowserURL: "https://basescan.org"}},
	{Network: "baseSepolia", ChainID: 84532, URLs: URLs{APIURL: "https://api-sepolia.basescan.org/api", BrowserURL: "https://sepolia.basescan.org"}},
	{Network: "polygon", ChainID: 137, URLs: URLs{APIURL: "https://api.polygonscan.com/api", BrowserURL: "https://polygonscan.com"}},
	{Network: "polygonAmoy", ChainID: 80002, URLs: URLs{APIURL: "https://api-amoy.polygonscan.com/api", BrowserURL: "https://amoy.polygonscan.com"}},
	{Network: "bsc", ChainID: 56, URLs: URLs{APIURL: "https://api.bscscan.com/api", BrowserURL: "https://bscscan.com"}},
	{Network: "bscTestnet", ChainID: 97, URLs: URLs{APIURL: "https://api-testnet.bscscan.com/api", BrowserURL: "https://testnet.bscscan.com"}},
	{Network: "avalanche", ChainID: 43114, URLs: URLs{APIURL: "https://api.snowtrace.io/api", BrowserURL: "https://snowtrace.io"}},
	{Network: "avalancheFujiTestnet", ChainID: 43113, URLs: URLs{APIURL: "https://api-testnet.snowtrace.io/api", BrowserURL: "https://testnet.snowtrace.io"}},
	{Network: "gnosis", ChainID: 100, URLs: URLs{APIURL: "https://api.gnosisscan.io/api", BrowserURL: "https://gnosisscan.io"}},
	{Network: "linea", ChainID: 59144, URLs: URLs{APIURL: "https://api.lineascan.build/api", BrowserURL: "https://lineascan.build"}},
	{Network: "scroll", ChainID: 534352, URLs: URLs{APIURL: "https://api.scrollscan.com/api", BrowserURL: "https://scrollscan.com"}},
}

// Builtin returns a copy of the built-in chain table.
func Builtin() []ChainConfig {
	out := make([]ChainConfig, len(builtin))
	copy(out, builtin)
	return out
}
