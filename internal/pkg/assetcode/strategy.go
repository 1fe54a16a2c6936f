package assetcode

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

var (
	ErrInvalidFormat     = errors.New("invalid asset code format")
	ErrInvalidCheckDigit = errors.New("invalid asset code check digit")
	ErrInvalidPrefix     = errors.New("invalid asset code prefix")
)

// CodeType is the closed set of asset code formats.
type CodeType string

const (
	CodeTypeArbitrary CodeType = "A"
	CodeTypeDamm32    CodeType = "D"
	CodeTypeLegacy    CodeType = "L"
)

// Config carries the deployment-level code settings. It is passed to the
// registry constructor so differently-configured registries can coexist.
type Config struct {
	// DefaultPrefix is the 3-character prefix used when generating codes.
	DefaultPrefix string
	// Prefixes is the allow-list of prefixes accepted during validation.
	Prefixes []string
	// LegacyTag is the two-letter tag of the retired import-only format.
	LegacyTag string
}

// Strategy validates and optionally generates codes of one format.
type Strategy interface {
	Name() string
	// Validate returns nil if code is well formed for this strategy.
	Validate(code string) error
	// Generate synthesizes a fresh code, or returns false if the format
	// has no generation capability.
	Generate() (string, bool)
}

// Registry maps code types to their strategies.
type Registry struct {
	strategies map[CodeType]Strategy
}

func NewRegistry(cfg Config) *Registry {
	if cfg.DefaultPrefix == "" {
		cfg.DefaultPrefix = "INV"
	}
	if len(cfg.Prefixes) == 0 {
		cfg.Prefixes = []string{cfg.DefaultPrefix}
	}
	if cfg.LegacyTag == "" {
		cfg.LegacyTag = "SR"
	}

	prefixes := make(map[string]struct{}, len(cfg.Prefixes))
	for _, p := range cfg.Prefixes {
		prefixes[strings.ToUpper(p)] = struct{}{}
	}

	return &Registry{strategies: map[CodeType]Strategy{
		CodeTypeArbitrary: arbitraryStrategy{},
		CodeTypeDamm32: &damm32Strategy{
			engine:        MustNewDamm32(DefaultAlphabet),
			defaultPrefix: strings.ToUpper(cfg.DefaultPrefix),
			prefixes:      prefixes,
		},
		CodeTypeLegacy: &legacyStrategy{
			engine: MustNewDamm32(LegacyAlphabet),
			tag:    strings.ToUpper(cfg.LegacyTag),
		},
	}}
}

// Get returns the strategy for a code type.
func (r *Registry) Get(t CodeType) (Strategy, bool) {
	s, ok := r.strategies[t]
	return s, ok
}

// arbitraryStrategy accepts any non-empty string and cannot generate.
type arbitraryStrategy struct{}

func (arbitraryStrategy) Name() string { return "Arbitrary String" }

func (arbitraryStrategy) Validate(code string) error {
	if len(code) == 0 {
		return fmt.Errorf("%w: code must be at least one character", ErrInvalidFormat)
	}
	return nil
}

func (arbitraryStrategy) Generate() (string, bool) { return "", false }

// damm32Strategy handles checksummed codes of the form XXX-XXX-XXX: a
// 3-character prefix, a 5-character body and a trailing check character.
type damm32Strategy struct {
	engine        *Damm32
	defaultPrefix string
	prefixes      map[string]struct{}
}

var damm32CodeRegexp = regexp.MustCompile(`^([A-Za-z0-9]{3})-([A-Za-z0-9]{3})-([A-Za-z0-9]{3})$`)

func (s *damm32Strategy) Name() string { return "Damm 32" }

func (s *damm32Strategy) Validate(code string) error {
	m := damm32CodeRegexp.FindStringSubmatch(code)
	if m == nil {
		return fmt.Errorf("%w: %s", ErrInvalidFormat, code)
	}
	word := strings.ToUpper(m[1] + m[2] + m[3])

	ok, err := s.engine.Verify(word)
	if err != nil {
		return err
	}
	if !ok {
		expected, _ := s.engine.Calculate(word[:8])
		return fmt.Errorf("%w: expected %c", ErrInvalidCheckDigit, expected)
	}

	if _, allowed := s.prefixes[word[:3]]; !allowed {
		return fmt.Errorf("%w: %s", ErrInvalidPrefix, word[:3])
	}
	return nil
}

// Generate always uses the default prefix, so generated codes cannot fall
// foul of the prefix allow-list.
func (s *damm32Strategy) Generate() (string, bool) {
	var sb strings.Builder
	sb.WriteString(s.defaultPrefix)
	for range 5 {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(DefaultAlphabet))))
		if err != nil {
			return "", false
		}
		sb.WriteByte(DefaultAlphabet[n.Int64()])
	}
	payload := sb.String()

	digit, err := s.engine.Calculate(payload)
	if err != nil {
		return "", false
	}
	code := payload + string(digit)
	return code[:3] + "-" + code[3:6] + "-" + code[6:9], true
}

// legacyStrategy validates the retired two-letter-tag format: tag, a 4 to
// 6 character body and a trailing check character, over a distinct
// alphabet. The format is import-only and has no generation capability.
type legacyStrategy struct {
	engine *Damm32
	tag    string
}

func (s *legacyStrategy) Name() string { return "Legacy Import" }

func (s *legacyStrategy) Validate(code string) error {
	if len(code) < 2 || !strings.EqualFold(code[:2], s.tag) {
		return fmt.Errorf("%w: missing %s tag", ErrInvalidFormat, s.tag)
	}
	body := code[2:]
	if len(body) < 5 || len(body) > 7 {
		return fmt.Errorf("%w: %s", ErrInvalidFormat, code)
	}

	ok, err := s.engine.Verify(strings.ToUpper(body))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w", ErrInvalidCheckDigit)
	}
	return nil
}

func (s *legacyStrategy) Generate() (string, bool) { return "", false }
