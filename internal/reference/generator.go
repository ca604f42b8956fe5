package reference

import (
	"context"
	"crypto/rand"
	"io"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/invoicekit/internal/clock"
	"github.com/smallbiznis/invoicekit/internal/config"
	"go.uber.org/fx"
)

// Generator produces a human-facing document reference.
//
// Uniqueness is probabilistic (or sequence backed); the storage unique
// index is what actually enforces it.
type Generator interface {
	Generate(ctx context.Context) (string, error)
}

type Params struct {
	fx.In

	Config   *config.InvoiceConfigHolder
	Clock    clock.Clock
	Sequence Sequence  `optional:"true"`
	Entropy  io.Reader `optional:"true"`
}

type generator struct {
	cfg   *config.InvoiceConfigHolder
	clock clock.Clock
	seq   Sequence

	mu        sync.Mutex
	entropy   io.Reader
	monotonic *ulid.MonotonicEntropy
}

func NewGenerator(p Params) Generator {
	entropy := p.Entropy
	if entropy == nil {
		entropy = rand.Reader
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &generator{
		cfg:       p.Config,
		clock:     clk,
		seq:       p.Sequence,
		entropy:   entropy,
		monotonic: ulid.Monotonic(entropy, 0),
	}
}

func (g *generator) Generate(ctx context.Context) (string, error) {
	now := g.clock.Now()
	src := Sources{
		Rand: g.randString,
		ULID: func() (string, error) {
			g.mu.Lock()
			defer g.mu.Unlock()
			id, err := ulid.New(ulid.Timestamp(now), g.monotonic)
			if err != nil {
				return "", err
			}
			return id.String(), nil
		},
	}
	if g.seq != nil {
		src.Seq = func() (int64, error) { return g.seq.Next(ctx) }
	}
	return Format(g.cfg.Get().Reference.Template, now, src)
}

func (g *generator) randString(n int) (string, error) {
	buf := make([]byte, n)
	g.mu.Lock()
	_, err := io.ReadFull(g.entropy, buf)
	g.mu.Unlock()
	if err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = crockford[b&31]
	}
	return string(buf), nil
}
