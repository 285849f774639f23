package orders

import (
	"context"
	"fmt"
	"regexp"
	"time"
)

const orderNumberPrefix = "ZNX"

var orderNumberPattern = regexp.MustCompile(`^ZNX\d{6}\d{3,}$`)

// Sequence hands out strictly increasing numbers per key. Implementations must
// be atomic across processes.
type Sequence interface {
	Next(ctx context.Context, key string) (int64, error)
}

// NumberGenerator builds order numbers of the form ZNX + YYMMDD + a daily
// sequence padded to three digits, e.g. ZNX261016001.
type NumberGenerator struct {
	seq Sequence
	now func() time.Time
}

func NewNumberGenerator(seq Sequence, now func() time.Time) *NumberGenerator {
	if now == nil {
		now = time.Now
	}
	return &NumberGenerator{seq: seq, now: now}
}

func (g *NumberGenerator) Next(ctx context.Context) (string, error) {
	day := g.now().Format("060102")
	n, err := g.seq.Next(ctx, "order:"+day)
	if err != nil {
		return "", fmt.Errorf("order number sequence: %w", err)
	}
	return fmt.Sprintf("%s%s%03d", orderNumberPrefix, day, n), nil
}

// ValidOrderNumber reports whether s has the order number shape.
func ValidOrderNumber(s string) bool {
	return orderNumberPattern.MatchString(s)
}
