package assetcode

import (
	"errors"
	"fmt"
)

// DefaultAlphabet is the base-32 alphabet used by checksummed asset codes
// (RFC 4648 base32: the digits 0, 1, 8 and 9 are excluded).
const DefaultAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// LegacyAlphabet is the alphabet of the retired import-only code format.
// B, I, O and S are excluded as they are easily confused with 8, 1, 0 and 5.
const LegacyAlphabet = "0123456789ACDEFGHJKLMNPQRTUVWXYZ"

var ErrInvalidCharacter = errors.New("invalid characters in code")

const (
	dammBase = 32
	// Reduction for the quasigroup doubling step: x^5 = x^2 + 1 over GF(2),
	// with the overflow bit folded into the same xor (32 + 5).
	dammMask = 37
)

// Damm32 computes Damm check digits over a 32-character alphabet.
// The quasigroup construction detects all single-character substitutions
// and all adjacent transpositions, which a positional weighted sum would
// not.
type Damm32 struct {
	alphabet string
	index    [256]int8
}

// NewDamm32 returns an engine for the given 32-character alphabet.
// Lookup is case-insensitive.
func NewDamm32(alphabet string) (*Damm32, error) {
	if len(alphabet) != dammBase {
		return nil, fmt.Errorf("alphabet must have %d characters, got %d", dammBase, len(alphabet))
	}
	d := &Damm32{alphabet: alphabet}
	for i := range d.index {
		d.index[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		c := alphabet[i]
		d.index[c] = int8(i)
		if c >= 'A' && c <= 'Z' {
			d.index[c+'a'-'A'] = int8(i)
		}
		if c >= 'a' && c <= 'z' {
			d.index[c-'a'+'A'] = int8(i)
		}
	}
	return d, nil
}

// MustNewDamm32 is NewDamm32 for the package-level alphabet constants.
func MustNewDamm32(alphabet string) *Damm32 {
	d, err := NewDamm32(alphabet)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Damm32) interim(word string) (int, error) {
	interim := 0
	for i := 0; i < len(word); i++ {
		v := d.index[word[i]]
		if v < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidCharacter, string(word[i]))
		}
		interim ^= int(v)
		interim *= 2
		if interim >= dammBase {
			interim ^= dammMask
		}
	}
	return interim, nil
}

// Calculate returns the check character for payload. Fails with
// ErrInvalidCharacter if payload contains characters outside the alphabet.
func (d *Damm32) Calculate(payload string) (byte, error) {
	interim, err := d.interim(payload)
	if err != nil {
		return 0, err
	}
	return d.alphabet[interim], nil
}

// Verify reports whether word (payload with its check character appended)
// passes the checksum. An out-of-alphabet character is reported as
// ErrInvalidCharacter, distinct from a plain mismatch.
func (d *Damm32) Verify(word string) (bool, error) {
	interim, err := d.interim(word)
	if err != nil {
		return false, err
	}
	return interim == 0, nil
}
