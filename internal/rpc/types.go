package rpc

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	// CodeUnavailable is returned when the loaded wallet cannot serve the
	// request (watch-only wallet asked for signer data, wiped keychain).
	CodeUnavailable = -32001
	// CodeInvalidChildKey is returned for the rare index whose child key
	// is invalid; callers skip to the next index.
	CodeInvalidChildKey = -32002
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      interface{} `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ── Param types ─────────────────────────────────────────────────────────

// KeyParam is used by hd_getPublicKey. Chain is "external" (default) or
// "internal"; watch-only wallets ignore it.
type KeyParam struct {
	Account uint32 `json:"account"`
	Index   uint32 `json:"index"`
	Chain   string `json:"chain,omitempty"`
}

// PathParam is used by hd_getPublicKeyAtPath.
type PathParam struct {
	Path string `json:"path"`
}

// WindowParam is used by hd_getWindow. A zero Count means the gap limit.
type WindowParam struct {
	Account uint32 `json:"account"`
	Chain   string `json:"chain,omitempty"`
	Start   uint32 `json:"start"`
	Count   int    `json:"count,omitempty"`
}

// AccountParam is used by hd_getAccountXpub.
type AccountParam struct {
	Account uint32 `json:"account"`
}

// XpubParam is used by hd_decodeXpub.
type XpubParam struct {
	Xpub string `json:"xpub"`
}

// ── Result types ────────────────────────────────────────────────────────

// InfoResult is returned by hd_getInfo. CoinType and Purpose are only set
// for signing wallets.
type InfoResult struct {
	Mode        string  `json:"mode"`
	WalletID    string  `json:"wallet_id"`
	Fingerprint string  `json:"fingerprint"`
	Depth       uint8   `json:"depth"`
	RootXpub    string  `json:"root_xpub"`
	GapLimit    int     `json:"gap_limit"`
	CoinType    *uint32 `json:"coin_type,omitempty"`
	Purpose     *uint32 `json:"purpose,omitempty"`
}

// KeyResult describes one derived public key.
type KeyResult struct {
	Path              string `json:"path,omitempty"`
	ChildIndex        uint32 `json:"child_index"`
	Depth             uint8  `json:"depth"`
	PublicKey         string `json:"public_key"`
	Fingerprint       string `json:"fingerprint"`
	ParentFingerprint string `json:"parent_fingerprint"`
	Xpub              string `json:"xpub"`
}

// WindowResult is returned by hd_getWindow.
type WindowResult struct {
	Start uint32      `json:"start"`
	Keys  []KeyResult `json:"keys"`
}

// XpubResult is returned by hd_getAccountXpub.
type XpubResult struct {
	Xpub string `json:"xpub"`
}

// DecodeResult is returned by hd_decodeXpub.
type DecodeResult struct {
	Version           string `json:"version"`
	Depth             uint8  `json:"depth"`
	ParentFingerprint string `json:"parent_fingerprint"`
	ChildIndex        uint32 `json:"child_index"`
	Hardened          bool   `json:"hardened"`
	ChainCode         string `json:"chain_code"`
	PublicKey         string `json:"public_key"`
	Fingerprint       string `json:"fingerprint"`
}
