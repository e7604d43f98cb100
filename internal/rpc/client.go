package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"
)

// Client talks JSON-RPC to a Solana-style endpoint. It exposes exactly the
// two queries the watcher consumes: holder ranking and account balance.
// Calls are single-attempt; the polling loop is the retry mechanism.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient builds a Client against endpoint. Every call is bounded by a
// fixed timeout so one unresponsive account never stalls a whole poll cycle.
func NewClient(endpoint string, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// Endpoint returns the configured RPC URL (included in alert messages).
func (c *Client) Endpoint() string { return c.endpoint }

// LargestHolders returns up to limit token account addresses holding mint,
// ranked by descending balance.
func (c *Client) LargestHolders(ctx context.Context, mint string, limit int) ([]string, error) {
	params := []interface{}{mint, map[string]string{"commitment": "confirmed"}}

	var resp GetTokenLargestAccountsResponse
	if err := c.call(ctx, "getTokenLargestAccounts", params, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("getTokenLargestAccounts %s: %w", mint, resp.Error)
	}

	accounts := resp.Result.Value
	if len(accounts) > limit {
		accounts = accounts[:limit]
	}
	out := make([]string, 0, len(accounts))
	for _, acct := range accounts {
		if !validAddress(acct.Address) {
			c.logger.WithFields(logrus.Fields{
				"mint":    mint,
				"address": acct.Address,
			}).Warn("skipping malformed holder address")
			continue
		}
		out = append(out, acct.Address)
	}
	return out, nil
}

// validAddress reports whether s is a base58-encoded 32-byte key. The
// endpoint is trusted for ranking, not for shape.
func validAddress(s string) bool {
	raw, err := base58.Decode(s)
	return err == nil && len(raw) == 32
}

// AccountBalance returns the balance of a token account in base units.
// The RPC reports the amount as a decimal string; it is parsed into a
// big.Int so precision never degrades at scale.
func (c *Client) AccountBalance(ctx context.Context, account string) (*big.Int, error) {
	params := []interface{}{account, map[string]string{"commitment": "confirmed"}}

	var resp GetTokenAccountBalanceResponse
	if err := c.call(ctx, "getTokenAccountBalance", params, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("getTokenAccountBalance %s: %w", account, resp.Error)
	}

	amount, ok := new(big.Int).SetString(resp.Result.Value.Amount, 10)
	if !ok {
		return nil, fmt.Errorf("getTokenAccountBalance %s: malformed amount %q", account, resp.Result.Value.Amount)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("getTokenAccountBalance %s: negative amount %s", account, amount)
	}
	return amount, nil
}

func (c *Client) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	payload := Request{JSONRPC: "2.0", ID: 1, Method: method, Params: params}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.WithField("method", method).Debug("rpc call")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("%s: status %d: %s", method, resp.StatusCode, snippet)
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	return nil
}
