package keystore

import (
	"bytes"
	"errors"
	"testing"
)

// fastParams keeps Argon2id cheap in tests.
func fastParams() Params {
	return Params{Memory: 64, Iterations: 1, Parallelism: 1}
}

func TestSealOpen(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"seed", bytes.Repeat([]byte{0xab}, 64)},
		{"empty", []byte{}},
		{"large", make([]byte, 10000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := Seal(tt.data, []byte("pass"), fastParams())
			if err != nil {
				t.Fatalf("Seal() error: %v", err)
			}
			if want := headerSize + 24 + len(tt.data) + 16; len(sealed) != want {
				t.Errorf("sealed length = %d, want %d", len(sealed), want)
			}
			opened, err := Open(sealed, []byte("pass"))
			if err != nil {
				t.Fatalf("Open() error: %v", err)
			}
			if !bytes.Equal(opened, tt.data) {
				t.Error("Open() did not return the sealed data")
			}
		})
	}
}

func TestOpen_Failures(t *testing.T) {
	sealed, err := Seal([]byte("secret"), []byte("correct"), fastParams())
	if err != nil {
		t.Fatalf("Seal() error: %v", err)
	}

	if _, err := Open(sealed, []byte("wrong")); !errors.Is(err, ErrDecrypt) {
		t.Errorf("wrong password error = %v, want ErrDecrypt", err)
	}

	corrupt := append([]byte{}, sealed...)
	corrupt[len(corrupt)-1] ^= 0xff
	if _, err := Open(corrupt, []byte("correct")); !errors.Is(err, ErrDecrypt) {
		t.Errorf("corrupted tag error = %v, want ErrDecrypt", err)
	}

	if _, err := Open([]byte("too short"), []byte("correct")); !errors.Is(err, ErrCiphertextTooShort) {
		t.Errorf("short input error = %v, want ErrCiphertextTooShort", err)
	}
}

func TestSeal_Randomized(t *testing.T) {
	s1, _ := Seal([]byte("same"), []byte("pass"), fastParams())
	s2, _ := Seal([]byte("same"), []byte("pass"), fastParams())
	if bytes.Equal(s1, s2) {
		t.Error("sealing twice produced identical output")
	}
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	if p.Memory != 64*1024 || p.Iterations != 3 || p.Parallelism != 4 {
		t.Errorf("DefaultParams() = %+v", p)
	}
}
