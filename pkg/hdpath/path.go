// Package hdpath parses and builds BIP-32 derivation paths.
//
// A path is written as "m" followed by zero or more "/<index>" segments,
// where a trailing ' (or h / H) marks a hardened step:
//
//	m/44'/8888'/0'/0/5
package hdpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// HardenedOffset is added to a step index to request hardened derivation.
const HardenedOffset uint32 = 1 << 31

// MaxIndex is the largest index a single step may carry.
const MaxIndex = HardenedOffset - 1

// PurposeBIP44 is the BIP-44 purpose field.
const PurposeBIP44 uint32 = 44

// ErrInvalidPathSyntax is returned for any malformed derivation path.
var ErrInvalidPathSyntax = errors.New("invalid derivation path")

// Step is a single level of a derivation path.
type Step struct {
	Index    uint32
	Hardened bool
}

// NewStep validates index and returns the step.
func NewStep(index uint32, hardened bool) (Step, error) {
	if index > MaxIndex {
		return Step{}, fmt.Errorf("%w: index %d exceeds %d", ErrInvalidPathSyntax, index, MaxIndex)
	}
	return Step{Index: index, Hardened: hardened}, nil
}

// Child returns the child number handed to the derivation function:
// Index for normal steps, Index + 2^31 for hardened ones.
func (s Step) Child() uint32 {
	if s.Hardened {
		return s.Index + HardenedOffset
	}
	return s.Index
}

// String renders the step as it appears in a path segment.
func (s Step) String() string {
	if s.Hardened {
		return strconv.FormatUint(uint64(s.Index), 10) + "'"
	}
	return strconv.FormatUint(uint64(s.Index), 10)
}

// Path is an ordered sequence of derivation steps, root first.
// The empty path addresses the master key.
type Path []Step

// Parse parses a path string such as "m/44'/0'/0'/0/5".
func Parse(s string) (Path, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPathSyntax)
	}
	segments := strings.Split(s, "/")
	if segments[0] != "m" && segments[0] != "M" {
		return nil, fmt.Errorf("%w: %q must start with m", ErrInvalidPathSyntax, s)
	}

	path := make(Path, 0, len(segments)-1)
	for i, seg := range segments[1:] {
		step, err := parseSegment(seg)
		if err != nil {
			return nil, fmt.Errorf("segment %d of %q: %w", i+1, s, err)
		}
		path = append(path, step)
	}
	return path, nil
}

// MustParse is like Parse but panics on error. Intended for constants.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

func parseSegment(seg string) (Step, error) {
	hardened := false
	digits := seg
	if n := len(seg); n > 0 {
		switch seg[n-1] {
		case '\'', 'h', 'H':
			hardened = true
			digits = seg[:n-1]
		}
	}
	if digits == "" {
		return Step{}, fmt.Errorf("%w: empty segment %q", ErrInvalidPathSyntax, seg)
	}
	// ParseUint alone would accept a leading '+'; markers in the middle
	// of a segment land here too.
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return Step{}, fmt.Errorf("%w: non-numeric segment %q", ErrInvalidPathSyntax, seg)
		}
	}
	v, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return Step{}, fmt.Errorf("%w: segment %q out of range", ErrInvalidPathSyntax, seg)
	}
	return NewStep(uint32(v), hardened)
}

// String renders the path using ' as the hardened marker.
func (p Path) String() string {
	var b strings.Builder
	b.WriteString("m")
	for _, s := range p {
		b.WriteByte('/')
		b.WriteString(s.String())
	}
	return b.String()
}

// Child returns a new path with step appended. p is not modified.
func (p Path) Child(step Step) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, step)
}

// Depth returns the number of steps.
func (p Path) Depth() int {
	return len(p)
}

// IsPublic reports whether every step can be derived from a public key.
func (p Path) IsPublic() bool {
	for _, s := range p {
		if s.Hardened {
			return false
		}
	}
	return true
}

// Children returns the raw child numbers of every step.
func (p Path) Children() []uint32 {
	out := make([]uint32, len(p))
	for i, s := range p {
		out[i] = s.Child()
	}
	return out
}
