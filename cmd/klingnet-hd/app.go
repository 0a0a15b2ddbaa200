package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/Klingon-tech/klingnet-hd/config"
	"github.com/Klingon-tech/klingnet-hd/internal/keyindex"
	"github.com/Klingon-tech/klingnet-hd/internal/keystore"
	"github.com/Klingon-tech/klingnet-hd/internal/log"
	"github.com/Klingon-tech/klingnet-hd/internal/rpc"
	"github.com/Klingon-tech/klingnet-hd/internal/rpcclient"
	"github.com/Klingon-tech/klingnet-hd/internal/storage"
	"github.com/Klingon-tech/klingnet-hd/internal/wallet"
	"github.com/Klingon-tech/klingnet-hd/pkg/crypto"
	"github.com/Klingon-tech/klingnet-hd/pkg/hdpath"
)

type passwordFunc func(prompt string) ([]byte, error)

// app carries what every command needs.
type app struct {
	ctx      context.Context // cancelled on shutdown signals
	cfg      *config.Config
	out      io.Writer
	password passwordFunc
	params   keystore.Params

	ks    *keystore.Keystore
	db    storage.DB
	index *keyindex.Index
}

func newApp(cfg *config.Config, out io.Writer, password passwordFunc) (*app, error) {
	ks, err := keystore.New(cfg.KeystoreDir())
	if err != nil {
		return nil, err
	}
	a := &app{
		ctx:      context.Background(),
		cfg:      cfg,
		out:      out,
		password: password,
		params:   keystore.DefaultParams(),
		ks:       ks,
	}

	switch cfg.Index.Backend {
	case config.IndexBadger:
		db, err := storage.NewBadger(cfg.IndexDir())
		if err != nil {
			return nil, fmt.Errorf("open key index: %w", err)
		}
		a.db = db
	case config.IndexLevelDB:
		db, err := storage.NewLevelDB(cfg.IndexDir())
		if err != nil {
			return nil, fmt.Errorf("open key index: %w", err)
		}
		a.db = db
	case config.IndexMemory:
		a.db = storage.NewMemory()
	}
	if a.db != nil {
		a.index = keyindex.New(a.db)
	}
	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.CLI.Warn().Err(err).Msg("Closing key index")
		}
		a.db = nil
	}
}

func (a *app) run(cmd string, args []string) error {
	switch cmd {
	case "create":
		return a.cmdCreate()
	case "import-xpub":
		return a.cmdImportXpub(args)
	case "list":
		return a.cmdList()
	case "info":
		return a.withWallet(a.cmdInfo)
	case "account":
		return a.withWallet(func(w *wallet.HDWallet) error { return a.cmdAccount(w, args) })
	case "pubkey":
		return a.withWallet(func(w *wallet.HDWallet) error { return a.cmdPubKey(w, args) })
	case "privkey":
		return a.withWallet(func(w *wallet.HDWallet) error { return a.cmdPrivKey(w, args) })
	case "path":
		return a.withWallet(func(w *wallet.HDWallet) error { return a.cmdPath(w, args) })
	case "window":
		return a.withWallet(func(w *wallet.HDWallet) error { return a.cmdWindow(w, args) })
	case "next":
		return a.withWallet(func(w *wallet.HDWallet) error { return a.cmdNext(w, args) })
	case "index":
		return a.withWallet(a.cmdIndex)
	case "serve":
		return a.withWallet(a.cmdServe)
	case "call":
		return a.cmdCall(args)
	default:
		return fmt.Errorf("unknown command: %s (see --help)", cmd)
	}
}

func (a *app) walletOptions() []wallet.Option {
	opts := []wallet.Option{
		wallet.WithGapLimit(a.cfg.Wallet.GapLimit),
		wallet.WithCacheSize(a.cfg.Wallet.CacheSize),
		wallet.WithPurpose(a.cfg.Wallet.Purpose),
	}
	if a.index != nil {
		opts = append(opts, wallet.WithKeyIndex(a.index))
	}
	return opts
}

// openWallet builds the configured wallet. An xpub in the config wins over
// the keystore.
func (a *app) openWallet() (*wallet.HDWallet, error) {
	if a.cfg.Wallet.Xpub != "" {
		return wallet.NewCold(a.cfg.Wallet.Xpub, a.walletOptions()...)
	}

	name := a.cfg.Wallet.Name
	entry, err := a.ks.Info(name)
	if err != nil {
		return nil, err
	}
	if entry.Kind == keystore.KindWatchOnly {
		return wallet.NewCold(entry.Xpub, a.walletOptions()...)
	}

	password, err := a.password(fmt.Sprintf("Password for %q: ", name))
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	defer crypto.Zero(password)
	seed, err := a.ks.Seed(name, password)
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(seed)

	// The coin type recorded at creation is part of the wallet.
	return wallet.NewSigner(seed, entry.CoinType, a.cfg.Versions(), a.walletOptions()...)
}

func (a *app) withWallet(fn func(*wallet.HDWallet) error) error {
	w, err := a.openWallet()
	if err != nil {
		return err
	}
	defer w.Close()
	return fn(w)
}

// ── Keystore commands ───────────────────────────────────────────────────

func (a *app) cmdCreate() error {
	name := a.cfg.Wallet.Name
	if _, err := a.ks.Info(name); err == nil {
		return fmt.Errorf("%w: %q", keystore.ErrExists, name)
	}

	password, err := a.password("Enter password: ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	defer crypto.Zero(password)
	confirm, err := a.password("Confirm password: ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	defer crypto.Zero(confirm)
	if !bytes.Equal(password, confirm) {
		return errors.New("passwords do not match")
	}

	seed, err := wallet.NewSeed()
	if err != nil {
		return fmt.Errorf("generate seed: %w", err)
	}
	defer crypto.Zero(seed)

	w, err := wallet.NewSigner(seed, a.cfg.Wallet.CoinType, a.cfg.Versions(), a.walletOptions()...)
	if err != nil {
		return err
	}
	defer w.Close()
	root, err := w.RootPublicKey()
	if err != nil {
		return err
	}
	account, err := w.AccountPublicKey(0)
	if err != nil {
		return err
	}

	meta := keystore.Meta{
		Network:     string(a.cfg.Network),
		CoinType:    a.cfg.Wallet.CoinType,
		Fingerprint: root.Fingerprint().String(),
		Xpub:        root.String(),
	}
	if err := a.ks.CreateSigner(name, seed, password, a.params, meta); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Seed (hex, write this down!):")
	fmt.Fprintf(a.out, "  %x\n\n", seed)
	fmt.Fprintf(a.out, "Wallet created: %s\n", name)
	fmt.Fprintf(a.out, "Fingerprint:    %s\n", meta.Fingerprint)
	fmt.Fprintf(a.out, "Account 0 xpub: %s\n", account)
	return nil
}

func (a *app) cmdImportXpub(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: klingnet-hd [-w name] import-xpub <xpub>")
	}
	root, err := wallet.ParseExtendedPublicKey(args[0])
	if err != nil {
		return err
	}
	if want := a.cfg.Versions().Public; root.Version() != want {
		return fmt.Errorf("xpub version %#08x does not belong to %s (want %#08x)", root.Version(), a.cfg.Network, want)
	}

	meta := keystore.Meta{
		Network:     string(a.cfg.Network),
		Fingerprint: root.Fingerprint().String(),
		Xpub:        root.String(),
	}
	if err := a.ks.CreateWatchOnly(a.cfg.Wallet.Name, meta); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Watch-only wallet imported: %s\n", a.cfg.Wallet.Name)
	fmt.Fprintf(a.out, "Fingerprint: %s  Depth: %d\n", meta.Fingerprint, root.Depth())
	return nil
}

func (a *app) cmdList() error {
	names, err := a.ks.List()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(a.out, "No wallets found.")
		return nil
	}
	for _, name := range names {
		e, err := a.ks.Info(name)
		if err != nil {
			log.CLI.Warn().Err(err).Str("wallet", name).Msg("Skipping unreadable wallet")
			continue
		}
		fmt.Fprintf(a.out, "%-20s %-10s %s\n", name, e.Kind, e.Fingerprint)
	}
	return nil
}

// ── Derivation commands ─────────────────────────────────────────────────

func (a *app) cmdInfo(w *wallet.HDWallet) error {
	root, err := w.RootPublicKey()
	if err != nil {
		return err
	}
	mode := "signer"
	if w.IsCold() {
		mode = "watch-only"
	}
	fmt.Fprintf(a.out, "Mode:        %s\n", mode)
	fmt.Fprintf(a.out, "Wallet ID:   %s\n", w.ID())
	fmt.Fprintf(a.out, "Fingerprint: %s\n", root.Fingerprint())
	fmt.Fprintf(a.out, "Depth:       %d\n", root.Depth())
	if coin, ok := w.CoinType(); ok {
		purpose, _ := w.Purpose()
		fmt.Fprintf(a.out, "Purpose:     %d\n", purpose)
		fmt.Fprintf(a.out, "Coin type:   %d\n", coin)
	}
	fmt.Fprintf(a.out, "Gap limit:   %d\n", w.GapLimit())
	fmt.Fprintf(a.out, "Root xpub:   %s\n", root)
	return nil
}

func (a *app) cmdAccount(w *wallet.HDWallet, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: klingnet-hd account <account>")
	}
	account, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	k, err := w.AccountPublicKey(account)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, k)
	return nil
}

func (a *app) cmdPubKey(w *wallet.HDWallet, args []string) error {
	account, index, chain, err := parseKeyArgs(args, "pubkey")
	if err != nil {
		return err
	}
	k, err := w.PublicKey(account, index, chain)
	if err != nil {
		return err
	}
	a.printPublic(k)
	return nil
}

func (a *app) cmdPrivKey(w *wallet.HDWallet, args []string) error {
	account, index, chain, err := parseKeyArgs(args, "privkey")
	if err != nil {
		return err
	}
	k, err := w.PrivateKey(account, index, chain)
	if err != nil {
		return err
	}
	defer k.Zero()
	fmt.Fprintln(a.out, k)
	return nil
}

func (a *app) cmdPath(w *wallet.HDWallet, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: klingnet-hd path <path>")
	}
	k, err := w.PublicKeyAtPath(args[0])
	if err != nil {
		return err
	}
	a.printPublic(k)
	return nil
}

func (a *app) cmdWindow(w *wallet.HDWallet, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return errors.New("usage: klingnet-hd window <account> <chain> [start]")
	}
	account, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	chain, err := hdpath.ParseChain(args[1])
	if err != nil {
		return err
	}
	var start uint32
	if len(args) == 3 {
		if start, err = parseIndex(args[2]); err != nil {
			return err
		}
	}

	keys, err := w.PublicKeyWindow(account, chain, start)
	if err != nil {
		return err
	}
	for i, k := range keys {
		fmt.Fprintf(a.out, "%-10d %x\n", start+uint32(i), k.PublicKeyBytes())
	}
	return nil
}

func (a *app) cmdNext(w *wallet.HDWallet, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: klingnet-hd next <account> [chain]")
	}
	if a.cfg.Wallet.Xpub != "" {
		return errors.New("next needs a keystore wallet; --xpub has no cursor")
	}
	account, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	chain := hdpath.External
	if len(args) == 2 {
		if chain, err = hdpath.ParseChain(args[1]); err != nil {
			return err
		}
	}

	index, err := a.ks.Advance(a.cfg.Wallet.Name, account, chain)
	if err != nil {
		return err
	}
	k, err := w.PublicKey(account, index, chain)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Index:      %d\n", index)
	a.printPublic(k)
	return nil
}

func (a *app) cmdIndex(w *wallet.HDWallet) error {
	if a.index == nil {
		return errors.New("key index disabled (index.backend = none)")
	}
	n := 0
	err := a.index.ForEach(w.ID(), func(path, xpub string) error {
		n++
		fmt.Fprintf(a.out, "%-32s %s\n", path, xpub)
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d keys\n", n)
	return nil
}

// ── RPC commands ────────────────────────────────────────────────────────

func (a *app) cmdServe(w *wallet.HDWallet) error {
	srv := rpc.New(a.cfg.RPC.Addr, w, a.cfg.RPC)
	if err := srv.Start(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Listening on %s\n", srv.Addr())

	<-a.ctx.Done()
	log.CLI.Info().Msg("Shutting down RPC server")
	return srv.Stop()
}

func (a *app) cmdCall(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: klingnet-hd call <method> [params-json]")
	}
	var params interface{}
	if len(args) == 2 {
		if !json.Valid([]byte(args[1])) {
			return fmt.Errorf("params are not valid JSON: %s", args[1])
		}
		params = json.RawMessage(args[1])
	}

	client := rpcclient.New("http://" + a.cfg.RPC.Addr + "/")
	var result json.RawMessage
	if err := client.Call(args[0], params, &result); err != nil {
		return err
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, result, "", "  "); err != nil {
		return fmt.Errorf("format result: %w", err)
	}
	fmt.Fprintln(a.out, pretty.String())
	return nil
}

func (a *app) printPublic(k *wallet.ExtendedPublicKey) {
	fmt.Fprintf(a.out, "Public key: %x\n", k.PublicKeyBytes())
	fmt.Fprintf(a.out, "Xpub:       %s\n", k)
}

// ── Argument helpers ────────────────────────────────────────────────────

func parseIndex(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || uint32(n) > hdpath.MaxIndex {
		return 0, fmt.Errorf("invalid index %q: must be 0..%d", s, hdpath.MaxIndex)
	}
	return uint32(n), nil
}

// parseKeyArgs reads <account> <index> [chain].
func parseKeyArgs(args []string, cmd string) (account, index uint32, chain hdpath.Chain, err error) {
	if len(args) < 2 || len(args) > 3 {
		return 0, 0, 0, fmt.Errorf("usage: klingnet-hd %s <account> <index> [chain]", cmd)
	}
	if account, err = parseIndex(args[0]); err != nil {
		return
	}
	if index, err = parseIndex(args[1]); err != nil {
		return
	}
	chain = hdpath.External
	if len(args) == 3 {
		chain, err = hdpath.ParseChain(args[2])
	}
	return
}
