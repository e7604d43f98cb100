package rpc

// Request is the JSON-RPC 2.0 envelope the Solana endpoint expects.
type Request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

// TokenAmount carries a balance in base units. Amount is a decimal string;
// it is never surfaced as a float.
type TokenAmount struct {
	Amount   string `json:"amount"`
	Decimals int    `json:"decimals"`
}

// LargestAccount is one entry from getTokenLargestAccounts, ranked by
// descending balance.
type LargestAccount struct {
	Address string `json:"address"`
	TokenAmount
}

// GetTokenLargestAccountsResponse wraps the holder-ranking query result.
type GetTokenLargestAccountsResponse struct {
	Result struct {
		Value []LargestAccount `json:"value"`
	} `json:"result"`
	Error *Error `json:"error"`
}

// GetTokenAccountBalanceResponse wraps the balance query result.
type GetTokenAccountBalanceResponse struct {
	Result struct {
		Value TokenAmount `json:"value"`
	} `json:"result"`
	Error *Error `json:"error"`
}
