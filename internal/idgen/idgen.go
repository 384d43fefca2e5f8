// Package idgen provides the random token generators used for order
// numbers and payment UIDs. Generators are injected into services so tests
// can substitute deterministic sources; collision checks against the store
// stay with the caller.
package idgen

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	orderNumberCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	orderNumberSuffix  = 10
	orderNumberDate    = "20060102"
)

// Source yields random indices below n.
type Source interface {
	Intn(n int) int
}

// OrderNumberGenerator produces candidate order numbers. Uniqueness is the
// caller's responsibility (retry on collision).
type OrderNumberGenerator interface {
	Generate() string
}

// PaymentUIDGenerator produces candidate payment UIDs.
type PaymentUIDGenerator interface {
	Generate() string
}

type cryptoSource struct{}

func (cryptoSource) Intn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand failing means the platform RNG is broken; nothing
		// sensible to fall back to for token generation.
		panic(err)
	}
	return int(v.Int64())
}

// NewSource returns the default crypto/rand backed source.
func NewSource() Source {
	return cryptoSource{}
}

type orderNumberGenerator struct {
	src Source
	now func() time.Time
}

// NewOrderNumberGenerator builds the production generator: creation
// date stamp plus a random uppercase-alphanumeric suffix.
func NewOrderNumberGenerator(src Source) OrderNumberGenerator {
	return &orderNumberGenerator{src: src, now: time.Now}
}

// NewOrderNumberGeneratorAt is NewOrderNumberGenerator with an injected
// clock, for deterministic tests.
func NewOrderNumberGeneratorAt(src Source, now func() time.Time) OrderNumberGenerator {
	return &orderNumberGenerator{src: src, now: now}
}

func (g *orderNumberGenerator) Generate() string {
	var b strings.Builder
	b.Grow(len(orderNumberDate) + orderNumberSuffix)
	b.WriteString(g.now().Format(orderNumberDate))
	for i := 0; i < orderNumberSuffix; i++ {
		b.WriteByte(orderNumberCharset[g.src.Intn(len(orderNumberCharset))])
	}
	return b.String()
}

type paymentUIDGenerator struct{}

// NewPaymentUIDGenerator builds the production payment UID generator:
// a dashless UUIDv4.
func NewPaymentUIDGenerator() PaymentUIDGenerator {
	return paymentUIDGenerator{}
}

func (paymentUIDGenerator) Generate() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
