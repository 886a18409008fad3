// Package idgen mints the business identifiers used across the
// service: order numbers, transit ids, item barcodes, service codes
// and customer ids. Order numbers are the only kind backed by a
// persistent per-branch counter; everything else derives from
// timestamps or randomness.
package idgen

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"regexp"
	"strconv"
	"time"

	"fzclean/internal/branch"
	"fzclean/internal/metrics"
)

// CounterStore persists the per-branch, per-year order sequence. A
// missing counter reads as (0, 'A') so the first generated number is
// 0001A. Implementations may be backed by memory, SQLite or Postgres.
type CounterStore interface {
	GetSequence(ctx context.Context, branchCode string, year int) (seq int, suffix byte, err error)
	SetSequence(ctx context.Context, branchCode string, year int, seq int, suffix byte) error
}

// Identifier is a minted id. Degraded marks values produced by the
// timestamp fallback while the counter store was unreachable; callers
// still get a well-formed id.
type Identifier struct {
	Value    string `json:"value"`
	Degraded bool   `json:"degraded,omitempty"`
}

// ErrSequenceExhausted is returned when a branch/year counter has
// consumed suffixes A through Z, i.e. 259974 order numbers.
var ErrSequenceExhausted = errors.New("idgen: sequence exhausted for branch year")

const maxSeq = 9999

// Generator mints identifiers. The zero value is unusable; use New.
type Generator struct {
	counters CounterStore
}

// New returns a Generator. counters may be nil, in which case every
// order number takes the degraded timestamp path.
func New(counters CounterStore) *Generator {
	return &Generator{counters: counters}
}

// OrderNumber mints the next order number for a franchise in the form
// FZC-{year}{branch}{seq}{suffix}, e.g. FZC-2025POL0001A. The sequence
// advances atomically per call; when it passes 9999 it resets to 1 and
// the suffix letter advances. Counter failures degrade to a timestamp
// pseudo-sequence instead of failing the order.
func (g *Generator) OrderNumber(ctx context.Context, franchiseID string) Identifier {
	br := branch.ByID(franchiseID)
	year := time.Now().UTC().Year()
	if g.counters != nil {
		seq, suffix, err := g.nextSequence(ctx, br.BranchCode, year)
		if err == nil {
			metrics.IDsGenerated.WithLabelValues("order", "counter").Inc()
			return Identifier{Value: formatOrderNumber(year, br.BranchCode, seq, suffix)}
		}
		log.Printf("idgen: counter unavailable branch=%s year=%d err=%v, using timestamp fallback", br.BranchCode, year, err)
	}
	metrics.IDsGenerated.WithLabelValues("order", "timestamp").Inc()
	metrics.SequenceFallbacks.Inc()
	return Identifier{Value: fallbackOrderNumber(year, br.BranchCode), Degraded: true}
}

// OrderNumberSync is the synchronous variant for callers without a
// counter store round trip, e.g. seed data. Always degraded.
func (g *Generator) OrderNumberSync(franchiseID string) Identifier {
	br := branch.ByID(franchiseID)
	year := time.Now().UTC().Year()
	metrics.IDsGenerated.WithLabelValues("order", "timestamp").Inc()
	return Identifier{Value: fallbackOrderNumber(year, br.BranchCode), Degraded: true}
}

func (g *Generator) nextSequence(ctx context.Context, code string, year int) (int, byte, error) {
	seq, suffix, err := g.counters.GetSequence(ctx, code, year)
	if err != nil {
		return 0, 0, err
	}
	if seq < 0 {
		seq = 0
	}
	if suffix == 0 {
		suffix = 'A'
	}
	seq++
	if seq > maxSeq {
		seq = 1
		suffix++
		if suffix > 'Z' {
			return 0, 0, ErrSequenceExhausted
		}
	}
	if err := g.counters.SetSequence(ctx, code, year, seq, suffix); err != nil {
		return 0, 0, err
	}
	return seq, suffix, nil
}

func formatOrderNumber(year int, code string, seq int, suffix byte) string {
	return fmt.Sprintf("FZC-%d%s%04d%c", year, code, seq, suffix)
}

func fallbackOrderNumber(year int, code string) string {
	seq := int(time.Now().UnixMilli()%int64(maxSeq)) + 1
	return formatOrderNumber(year, code, seq, 'A')
}

// TransitID mints a batch transfer id in the form
// TRN-{year}{branch}{seq}{letter}-{F|S}. The trailing marker encodes
// direction: F toward the factory, S back to the store. Sequence and
// letter derive from the clock, no persistent state.
func (g *Generator) TransitID(franchiseID, direction string) string {
	br := branch.ByID(franchiseID)
	now := time.Now().UTC()
	seq := now.UnixMilli() % 999
	letter := byte('A' + now.Unix()%26)
	marker := "S"
	if direction == "to_factory" {
		marker = "F"
	}
	metrics.IDsGenerated.WithLabelValues("transit", "timestamp").Inc()
	return fmt.Sprintf("TRN-%d%s%03d%c-%s", now.Year(), br.BranchCode, seq, letter, marker)
}

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ItemBarcode mints a per-item barcode from the parent order number, a
// 1-based item index and a short random tail.
func (g *Generator) ItemBarcode(orderNumber string, index int) string {
	tail := make([]byte, 4)
	for i := range tail {
		tail[i] = base36[rand.IntN(len(base36))]
	}
	metrics.IDsGenerated.WithLabelValues("barcode", "random").Inc()
	return fmt.Sprintf("%s-%02d-%s", orderNumber, index, tail)
}

// ServiceCode mints a branch-scoped code for a catalog service.
func (g *Generator) ServiceCode(franchiseID string) string {
	br := branch.ByID(franchiseID)
	metrics.IDsGenerated.WithLabelValues("service", "random").Inc()
	return fmt.Sprintf("SRV-%s%04d", br.BranchCode, rand.IntN(10000))
}

// CustomerID mints a branch-scoped customer id from the current clock.
func (g *Generator) CustomerID(franchiseID string) string {
	br := branch.ByID(franchiseID)
	metrics.IDsGenerated.WithLabelValues("customer", "timestamp").Inc()
	return fmt.Sprintf("CUST-%s%d", br.BranchCode, time.Now().UnixMilli())
}

// TransitParts is the decoded form of a transit id.
type TransitParts struct {
	Year       int    `json:"year"`
	BranchCode string `json:"branchCode"`
	Sequence   int    `json:"sequence"`
	Letter     string `json:"letter"`
	Direction  string `json:"direction"`
}

var transitRe = regexp.MustCompile(`^TRN-(\d{4})([A-Z]{3})(\d{3})([A-Z])-([FS])$`)

// ParseTransitID decodes a transit id back into its parts. The branch
// code is validated against the registry.
func ParseTransitID(id string) (TransitParts, error) {
	m := transitRe.FindStringSubmatch(id)
	if m == nil {
		return TransitParts{}, fmt.Errorf("idgen: malformed transit id %q", id)
	}
	if _, ok := branch.ByCode(m[2]); !ok {
		return TransitParts{}, fmt.Errorf("idgen: unknown branch code %q", m[2])
	}
	year, _ := strconv.Atoi(m[1])
	seq, _ := strconv.Atoi(m[3])
	dir := "to_store"
	if m[5] == "F" {
		dir = "to_factory"
	}
	return TransitParts{Year: year, BranchCode: m[2], Sequence: seq, Letter: m[4], Direction: dir}, nil
}
