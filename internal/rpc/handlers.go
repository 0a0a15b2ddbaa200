package rpc

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-hd/internal/wallet"
	"github.com/Klingon-tech/klingnet-hd/pkg/crypto"
	"github.com/Klingon-tech/klingnet-hd/pkg/extkey"
	"github.com/Klingon-tech/klingnet-hd/pkg/hdpath"
)

// maxWindow caps hd_getWindow so one request cannot pin the server.
const maxWindow = 1000

func (s *Server) handleGetInfo(_ *Request) (interface{}, *Error) {
	root, err := s.wallet.RootPublicKey()
	if err != nil {
		return nil, walletError(err)
	}
	result := &InfoResult{
		Mode:        "signer",
		WalletID:    s.wallet.ID().String(),
		Fingerprint: root.Fingerprint().String(),
		Depth:       root.Depth(),
		RootXpub:    root.String(),
		GapLimit:    s.wallet.GapLimit(),
	}
	if s.wallet.IsCold() {
		result.Mode = "watch-only"
	}
	if coin, ok := s.wallet.CoinType(); ok {
		purpose, _ := s.wallet.Purpose()
		result.CoinType = &coin
		result.Purpose = &purpose
	}
	return result, nil
}

func (s *Server) handleGetPublicKey(req *Request) (interface{}, *Error) {
	var p KeyParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	chain, rpcErr := parseChain(p.Chain)
	if rpcErr != nil {
		return nil, rpcErr
	}
	k, err := s.wallet.PublicKey(p.Account, p.Index, chain)
	if err != nil {
		return nil, walletError(err)
	}
	return keyResult("", k), nil
}

func (s *Server) handleGetPublicKeyAtPath(req *Request) (interface{}, *Error) {
	var p PathParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	k, err := s.wallet.PublicKeyAtPath(p.Path)
	if err != nil {
		return nil, walletError(err)
	}
	return keyResult(p.Path, k), nil
}

func (s *Server) handleGetWindow(req *Request) (interface{}, *Error) {
	var p WindowParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	chain, rpcErr := parseChain(p.Chain)
	if rpcErr != nil {
		return nil, rpcErr
	}
	count := p.Count
	if count == 0 {
		count = s.wallet.GapLimit()
	}
	if count < 0 || count > maxWindow {
		return nil, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("count must be between 1 and %d", maxWindow)}
	}

	keys, err := s.wallet.PublicKeys(p.Account, chain, p.Start, count)
	if err != nil {
		return nil, walletError(err)
	}
	result := &WindowResult{Start: p.Start, Keys: make([]KeyResult, len(keys))}
	for i, k := range keys {
		result.Keys[i] = *keyResult("", k)
	}
	return result, nil
}

func (s *Server) handleGetAccountXpub(req *Request) (interface{}, *Error) {
	var p AccountParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	k, err := s.wallet.AccountPublicKey(p.Account)
	if err != nil {
		return nil, walletError(err)
	}
	return &XpubResult{Xpub: k.String()}, nil
}

func (s *Server) handleDecodeXpub(req *Request) (interface{}, *Error) {
	var p XpubParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	f, err := extkey.Decode(p.Xpub)
	if err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: err.Error()}
	}
	if f.IsPrivate() {
		crypto.Zero(f.KeyData[:])
		return nil, &Error{Code: CodeInvalidParams, Message: "private extended keys are not accepted"}
	}
	if _, err := wallet.NewExtendedPublicKey(f); err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: err.Error()}
	}
	return &DecodeResult{
		Version:           fmt.Sprintf("%08x", f.Version),
		Depth:             f.Depth,
		ParentFingerprint: fmt.Sprintf("%08x", f.ParentFingerprint),
		ChildIndex:        f.ChildIndex &^ hdpath.HardenedOffset,
		Hardened:          f.ChildIndex >= hdpath.HardenedOffset,
		ChainCode:         hex.EncodeToString(f.ChainCode[:]),
		PublicKey:         hex.EncodeToString(f.KeyData[:]),
		Fingerprint:       crypto.Fingerprint(f.KeyData[:]).String(),
	}, nil
}

func keyResult(path string, k *wallet.ExtendedPublicKey) *KeyResult {
	return &KeyResult{
		Path:              path,
		ChildIndex:        k.ChildIndex(),
		Depth:             k.Depth(),
		PublicKey:         hex.EncodeToString(k.PublicKeyBytes()),
		Fingerprint:       k.Fingerprint().String(),
		ParentFingerprint: k.ParentFingerprint().String(),
		Xpub:              k.String(),
	}
}

func parseChain(s string) (hdpath.Chain, *Error) {
	if s == "" {
		return hdpath.External, nil
	}
	c, err := hdpath.ParseChain(s)
	if err != nil {
		return 0, &Error{Code: CodeInvalidParams, Message: err.Error()}
	}
	return c, nil
}

// walletError maps wallet errors to JSON-RPC errors.
func walletError(err error) *Error {
	code := CodeInternalError
	switch {
	case errors.Is(err, hdpath.ErrInvalidPathSyntax),
		errors.Is(err, wallet.ErrIndexOutOfRange),
		errors.Is(err, wallet.ErrMaxDepth),
		errors.Is(err, wallet.ErrHardenedDerivationRequiresPrivateKey):
		code = CodeInvalidParams
	case errors.Is(err, wallet.ErrNoPrivateKeyAvailable),
		errors.Is(err, wallet.ErrKeychainUnavailable),
		errors.Is(err, wallet.ErrNoRootKeyAvailable):
		code = CodeUnavailable
	case errors.Is(err, wallet.ErrInvalidChildKey):
		code = CodeInvalidChildKey
	}
	return &Error{Code: code, Message: err.Error()}
}
