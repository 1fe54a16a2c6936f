package assetcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDamm32_AlphabetLength(t *testing.T) {
	_, err := NewDamm32("ABC")
	assert.Error(t, err)

	d, err := NewDamm32(DefaultAlphabet)
	assert.NoError(t, err)
	assert.NotNil(t, d)
}

func TestDamm32_VerifyKnownWords(t *testing.T) {
	d := MustNewDamm32(DefaultAlphabet)

	valid := []string{
		"INVDREXY2",
		"INVZI3T5X",
		"INVJRUNXQ",
		"INVJGKYT7",
		"INVNOZRDX",
		"INVIQB6AR",
		"INVMI55SK",
		"INVKUDLHR",
		"INVJ47G7V",
		"INVQ7A6VK",
		"INVASESEJ",
	}
	for _, word := range valid {
		ok, err := d.Verify(word)
		assert.NoError(t, err, word)
		assert.True(t, ok, word)
	}

	invalid := []string{
		"INVDREXYZ",
		"INVIZ3T5X",
		"INVMI5SSK",
		"INVASESEU",
	}
	for _, word := range invalid {
		ok, err := d.Verify(word)
		assert.NoError(t, err, word)
		assert.False(t, ok, word)
	}
}

func TestDamm32_CaseInsensitive(t *testing.T) {
	d := MustNewDamm32(DefaultAlphabet)

	ok, err := d.Verify("invdrexy2")
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestDamm32_InvalidCharacter(t *testing.T) {
	d := MustNewDamm32(DefaultAlphabet)

	// 1 is not part of the alphabet
	_, err := d.Verify("INV1QB6AR")
	assert.ErrorIs(t, err, ErrInvalidCharacter)

	_, err = d.Calculate("INV-ASE")
	assert.ErrorIs(t, err, ErrInvalidCharacter)
}

func TestDamm32_CalculateRoundTrip(t *testing.T) {
	d := MustNewDamm32(DefaultAlphabet)

	digit, err := d.Calculate("INVASESE")
	assert.NoError(t, err)
	assert.Equal(t, byte('J'), digit)

	ok, err := d.Verify("INVASESE" + string(digit))
	assert.NoError(t, err)
	assert.True(t, ok)
}

// Every single-character substitution and every adjacent transposition of
// a valid word must fail verification.
func TestDamm32_DetectionProperties(t *testing.T) {
	d := MustNewDamm32(DefaultAlphabet)
	word := "INVASESEJ"

	for i := 0; i < len(word); i++ {
		for j := 0; j < len(DefaultAlphabet); j++ {
			sub := DefaultAlphabet[j]
			if sub == word[i] {
				continue
			}
			mutated := word[:i] + string(sub) + word[i+1:]
			ok, err := d.Verify(mutated)
			assert.NoError(t, err)
			assert.False(t, ok, "substitution at %d undetected: %s", i, mutated)
		}
	}

	for i := 0; i+1 < len(word); i++ {
		if word[i] == word[i+1] {
			continue
		}
		b := []byte(word)
		b[i], b[i+1] = b[i+1], b[i]
		swapped := string(b)
		ok, err := d.Verify(swapped)
		assert.NoError(t, err)
		assert.False(t, ok, "transposition at %d undetected: %s", i, swapped)
	}
}

func TestDamm32_LegacyAlphabet(t *testing.T) {
	d := MustNewDamm32(LegacyAlphabet)

	digit, err := d.Calculate("0001")
	assert.NoError(t, err)
	assert.True(t, strings.ContainsRune(LegacyAlphabet, rune(digit)))

	ok, err := d.Verify("0001" + string(digit))
	assert.NoError(t, err)
	assert.True(t, ok)

	// B is excluded from the legacy alphabet
	_, err = d.Verify("000B")
	assert.ErrorIs(t, err, ErrInvalidCharacter)
}
