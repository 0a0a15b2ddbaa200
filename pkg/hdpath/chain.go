package hdpath

import "fmt"

// Chain selects the receive or change branch below an account.
type Chain uint32

const (
	// External is the receiving chain.
	External Chain = 0

	// Internal is the change chain.
	Internal Chain = 1
)

// Valid reports whether c is External or Internal.
func (c Chain) Valid() bool {
	return c == External || c == Internal
}

func (c Chain) String() string {
	switch c {
	case External:
		return "external"
	case Internal:
		return "internal"
	default:
		return fmt.Sprintf("chain(%d)", uint32(c))
	}
}

// ParseChain accepts "external"/"receive"/"0" and "internal"/"change"/"1".
func ParseChain(s string) (Chain, error) {
	switch s {
	case "external", "receive", "0":
		return External, nil
	case "internal", "change", "1":
		return Internal, nil
	default:
		return 0, fmt.Errorf("unknown chain %q", s)
	}
}

// Canonical builds m/purpose'/coinType'/account'/chain/index.
func Canonical(purpose, coinType, account uint32, chain Chain, index uint32) (Path, error) {
	if !chain.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPathSyntax, chain)
	}
	parts := []struct {
		v        uint32
		hardened bool
	}{
		{purpose, true},
		{coinType, true},
		{account, true},
		{uint32(chain), false},
		{index, false},
	}
	path := make(Path, 0, len(parts))
	for _, part := range parts {
		step, err := NewStep(part.v, part.hardened)
		if err != nil {
			return nil, err
		}
		path = append(path, step)
	}
	return path, nil
}

// Account builds m/purpose'/coinType'/account'.
func Account(purpose, coinType, account uint32) (Path, error) {
	full, err := Canonical(purpose, coinType, account, External, 0)
	if err != nil {
		return nil, err
	}
	return full[:3:3], nil
}
