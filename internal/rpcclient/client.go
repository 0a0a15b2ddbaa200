// Package rpcclient provides a JSON-RPC 2.0 client for klingnet-hd servers.
package rpcclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Klingon-tech/klingnet-hd/internal/rpc"
)

// Client is a JSON-RPC 2.0 HTTP client.
type Client struct {
	endpoint string
	http     *http.Client
}

// New creates a new RPC client targeting the given endpoint URL.
func New(endpoint string) *Client {
	return NewWithTimeout(endpoint, 10*time.Second)
}

// NewWithTimeout creates a new RPC client with a custom HTTP timeout.
func NewWithTimeout(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// request is a JSON-RPC 2.0 request.
type request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      int         `json:"id"`
}

// response is a JSON-RPC 2.0 response.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      int             `json:"id"`
}

// rpcError is a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RPCError is returned when the server responds with an error.
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Call invokes a JSON-RPC method and unmarshals the result into the provided pointer.
// If result is nil, the response result is discarded.
func (c *Client) Call(method string, params, result interface{}) error {
	req := request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	resp, err := c.http.Post(c.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var rpcResp response
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if rpcResp.Error != nil {
		return &RPCError{
			Code:    rpcResp.Error.Code,
			Message: rpcResp.Error.Message,
		}
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
	}

	return nil
}

// Info returns the wallet summary of the server.
func (c *Client) Info() (*rpc.InfoResult, error) {
	var result rpc.InfoResult
	if err := c.Call("hd_getInfo", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PublicKey returns the public key for (account, index, chain). An empty
// chain means external.
func (c *Client) PublicKey(account, index uint32, chain string) (*rpc.KeyResult, error) {
	var result rpc.KeyResult
	params := rpc.KeyParam{Account: account, Index: index, Chain: chain}
	if err := c.Call("hd_getPublicKey", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PublicKeyAtPath returns the public key at path.
func (c *Client) PublicKeyAtPath(path string) (*rpc.KeyResult, error) {
	var result rpc.KeyResult
	if err := c.Call("hd_getPublicKeyAtPath", rpc.PathParam{Path: path}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Window returns count consecutive public keys from start; zero count
// means the server's gap limit.
func (c *Client) Window(account uint32, chain string, start uint32, count int) (*rpc.WindowResult, error) {
	var result rpc.WindowResult
	params := rpc.WindowParam{Account: account, Chain: chain, Start: start, Count: count}
	if err := c.Call("hd_getWindow", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AccountXpub returns the account xpub of a signing server.
func (c *Client) AccountXpub(account uint32) (string, error) {
	var result rpc.XpubResult
	if err := c.Call("hd_getAccountXpub", rpc.AccountParam{Account: account}, &result); err != nil {
		return "", err
	}
	return result.Xpub, nil
}
