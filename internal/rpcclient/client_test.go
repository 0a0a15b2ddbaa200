package rpcclient

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"testing"

	klog "github.com/Klingon-tech/klingnet-hd/internal/log"
	"github.com/Klingon-tech/klingnet-hd/internal/rpc"
	"github.com/Klingon-tech/klingnet-hd/internal/wallet"
	"github.com/Klingon-tech/klingnet-hd/pkg/extkey"
)

// BIP-32 test vector 1.
const (
	vec1Seed       = "000102030405060708090a0b0c0d0e0f"
	vec1MasterXpub = "xpub661MyMwAqRbcFtXgS5sYJABqqG9YLmC4Q1Rdap9gSE8NqtwybGhePY2gZ29ESFjqJoCu1Rupje8YtGqsefD265TMg7usUDFdp6W1EGMcet8"
	vec1Xpub0h     = "xpub68Gmy5EdvgibQVfPdqkBBCHxA5htiqg55crXYuXoQRKfDBFA1WEjWgP6LHhwBZeNK1VTsfTFUHCdrfp1bgwQ9xv5ski8PX9rL2dZXvgGDnw"
)

func startServer(t *testing.T, w *wallet.HDWallet) *Client {
	t.Helper()
	klog.Init("error", false, "")

	srv := rpc.New("127.0.0.1:0", w)
	if err := srv.Start(); err != nil {
		t.Fatalf("start rpc: %v", err)
	}
	t.Cleanup(func() { srv.Stop() })
	return New("http://" + srv.Addr() + "/")
}

func signerClient(t *testing.T) (*Client, *wallet.HDWallet) {
	t.Helper()
	seed, _ := hex.DecodeString(vec1Seed)
	w, err := wallet.NewSigner(seed, 0, extkey.Mainnet)
	if err != nil {
		t.Fatalf("NewSigner() error: %v", err)
	}
	t.Cleanup(w.Close)
	return startServer(t, w), w
}

func coldClient(t *testing.T) *Client {
	t.Helper()
	w, err := wallet.NewCold(vec1MasterXpub)
	if err != nil {
		t.Fatalf("NewCold() error: %v", err)
	}
	return startServer(t, w)
}

func TestClient_Info(t *testing.T) {
	client := coldClient(t)

	info, err := client.Info()
	if err != nil {
		t.Fatalf("Info() error: %v", err)
	}
	if info.Mode != "watch-only" {
		t.Errorf("mode = %q, want watch-only", info.Mode)
	}
	if info.RootXpub != vec1MasterXpub {
		t.Errorf("root_xpub = %s, want %s", info.RootXpub, vec1MasterXpub)
	}
}

func TestClient_PublicKeyAtPath(t *testing.T) {
	client, _ := signerClient(t)

	k, err := client.PublicKeyAtPath("m/0'")
	if err != nil {
		t.Fatalf("PublicKeyAtPath() error: %v", err)
	}
	if k.Xpub != vec1Xpub0h {
		t.Errorf("xpub = %s, want %s", k.Xpub, vec1Xpub0h)
	}
}

func TestClient_SignerAndColdAgree(t *testing.T) {
	signer, w := signerClient(t)

	accountXpub, err := signer.AccountXpub(0)
	if err != nil {
		t.Fatalf("AccountXpub() error: %v", err)
	}
	account, err := wallet.NewCold(accountXpub)
	if err != nil {
		t.Fatalf("NewCold() error: %v", err)
	}
	cold := startServer(t, account)

	want, err := w.PublicKey(0, 4, 1)
	if err != nil {
		t.Fatalf("PublicKey() error: %v", err)
	}
	fromSigner, err := signer.PublicKey(0, 4, "internal")
	if err != nil {
		t.Fatalf("signer PublicKey() error: %v", err)
	}
	// Below an account xpub the first level is the chain.
	fromCold, err := cold.PublicKey(1, 4, "")
	if err != nil {
		t.Fatalf("cold PublicKey() error: %v", err)
	}
	if fromSigner.Xpub != want.String() || fromCold.Xpub != want.String() {
		t.Errorf("signer %s, cold %s, want %s", fromSigner.Xpub, fromCold.Xpub, want)
	}
}

func TestClient_Window(t *testing.T) {
	client := coldClient(t)

	window, err := client.Window(0, "", 3, 4)
	if err != nil {
		t.Fatalf("Window() error: %v", err)
	}
	if window.Start != 3 || len(window.Keys) != 4 {
		t.Fatalf("window start/len = %d/%d, want 3/4", window.Start, len(window.Keys))
	}
	last, err := client.PublicKeyAtPath("m/0/6")
	if err != nil {
		t.Fatalf("PublicKeyAtPath() error: %v", err)
	}
	if window.Keys[3].Xpub != last.Xpub {
		t.Errorf("window[3] = %s, want %s", window.Keys[3].Xpub, last.Xpub)
	}
}

func TestClient_RPCError(t *testing.T) {
	client := coldClient(t)

	_, err := client.AccountXpub(0)
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected RPCError, got %T: %v", err, err)
	}
	if rpcErr.Code != rpc.CodeUnavailable {
		t.Errorf("error code = %d, want %d", rpcErr.Code, rpc.CodeUnavailable)
	}
}

func TestClient_Call_InvalidEndpoint(t *testing.T) {
	client := New("http://127.0.0.1:1/") // nothing listens on port 1

	if _, err := client.Info(); err == nil {
		t.Fatal("expected connection error")
	}
}

func TestClient_Call_MethodNotFound(t *testing.T) {
	client := coldClient(t)

	var raw json.RawMessage
	err := client.Call("nonexistent_method", nil, &raw)
	if err == nil {
		t.Fatal("expected error for unknown method")
	}

	rpcErr, ok := err.(*RPCError)
	if !ok {
		t.Fatalf("expected RPCError, got %T: %v", err, err)
	}
	if rpcErr.Code != rpc.CodeMethodNotFound {
		t.Errorf("error code = %d, want %d", rpcErr.Code, rpc.CodeMethodNotFound)
	}
}
