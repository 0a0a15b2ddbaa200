package extkey

// Standard BIP-32 version bytes.
const (
	MainnetPrivate uint32 = 0x0488ade4 // xprv
	MainnetPublic  uint32 = 0x0488b21e // xpub
	TestnetPrivate uint32 = 0x04358394 // tprv
	TestnetPublic  uint32 = 0x043587cf // tpub
)

// VersionPair couples the private and public version bytes of a network.
type VersionPair struct {
	Private uint32
	Public  uint32
}

var (
	Mainnet = VersionPair{Private: MainnetPrivate, Public: MainnetPublic}
	Testnet = VersionPair{Private: TestnetPrivate, Public: TestnetPublic}
)
