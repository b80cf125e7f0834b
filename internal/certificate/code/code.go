// Package code generates and validates the public certificate codes printed
// on issued documents, and derives the integrity hash stored alongside them.
package code

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Prefix is the fixed institutional prefix of every validation code.
const Prefix = "UPE-CPA"

// codePattern is the exact public format: UPE-CPA-XXXXX-YYYY, uppercased.
var codePattern = regexp.MustCompile(`^UPE-CPA-[A-Z0-9]{5}-[A-Z0-9]{4}$`)

// Generator produces validation codes. Codes are collision-resistant but not
// globally unique by construction; the issuing caller relies on the store's
// uniqueness constraint at write time.
type Generator struct {
	now    func() time.Time
	random io.Reader
}

// Option configures the Generator.
type Option func(*Generator)

// WithClock injects the time source. Used by tests to pin the time fragment.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithRandom injects the salt source. Used by tests for determinism.
func WithRandom(r io.Reader) Option {
	return func(g *Generator) {
		g.random = r
	}
}

// NewGenerator creates a Generator backed by the system clock and crypto/rand.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		now:    time.Now,
		random: rand.Reader,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate composes UPE-CPA-{5 hash chars}-{4 base36 time chars}, uppercased.
// The five characters are the prefix of a SHA-256 over form id, user id, the
// millisecond timestamp in base 36 and a random salt.
func (g *Generator) Generate(formID, userID string) (string, error) {
	timestamp := strconv.FormatInt(g.now().UnixMilli(), 36)

	salt := make([]byte, 6)
	if _, err := io.ReadFull(g.random, salt); err != nil {
		return "", fmt.Errorf("read code salt: %w", err)
	}

	sum := sha256.Sum256([]byte(formID + userID + timestamp + hex.EncodeToString(salt)))
	hashFragment := hex.EncodeToString(sum[:])[:5]

	timeFragment := timestamp
	if len(timeFragment) > 4 {
		timeFragment = timeFragment[:4]
	}

	return strings.ToUpper(fmt.Sprintf("%s-%s-%s", Prefix, hashFragment, timeFragment)), nil
}

// IsValidFormat reports whether the code matches the public format. Input is
// accepted case-insensitively and normalized to uppercase before matching.
func IsValidFormat(code string) bool {
	return codePattern.MatchString(strings.ToUpper(code))
}

// Normalize uppercases a code for lookups. Codes are stored uppercased.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Hash derives the integrity digest stored on a certificate record.
//
// Canonical serialization, frozen since the first issued certificate:
// the four fields joined with "|" in the order userID, formID, validation
// code, issuance time as RFC 3339 with nanoseconds in UTC. Changing this
// would orphan the digests of already-issued certificates.
func Hash(userID, formID, validationCode string, issuedAt time.Time) string {
	canonical := strings.Join([]string{
		userID,
		formID,
		validationCode,
		issuedAt.UTC().Format(time.RFC3339Nano),
	}, "|")
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
