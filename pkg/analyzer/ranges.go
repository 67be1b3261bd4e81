package analyzer

import (
	"math/big"
	"sort"
)

// endpoint is one end of an interval. A nil value is infinite.
type endpoint struct {
	v    *big.Rat
	open bool
}

// interval is a set of rationals between lo and hi.
type interval struct {
	lo, hi endpoint
}

func point(v *big.Rat) interval {
	return interval{lo: endpoint{v: v}, hi: endpoint{v: v}}
}

func below(v *big.Rat, inclusive bool) interval {
	return interval{hi: endpoint{v: v, open: !inclusive}}
}

func above(v *big.Rat, inclusive bool) interval {
	return interval{lo: endpoint{v: v, open: !inclusive}}
}

func between(lo, hi *big.Rat) interval {
	return interval{lo: endpoint{v: lo}, hi: endpoint{v: hi}}
}

// empty reports whether the interval contains no value.
func (iv interval) empty() bool {
	if iv.lo.v == nil || iv.hi.v == nil {
		return false
	}
	switch iv.lo.v.Cmp(iv.hi.v) {
	case 1:
		return true
	case 0:
		return iv.lo.open || iv.hi.open
	default:
		return false
	}
}

// encloses reports whether every value of other is in iv.
func (iv interval) encloses(other interval) bool {
	return cmpLower(iv.lo, other.lo) <= 0 && cmpUpper(iv.hi, other.hi) >= 0
}

// intersects reports whether iv and other share a value.
func (iv interval) intersects(other interval) bool {
	lo := iv.lo
	if cmpLower(other.lo, lo) > 0 {
		lo = other.lo
	}
	hi := iv.hi
	if cmpUpper(other.hi, hi) < 0 {
		hi = other.hi
	}
	return !interval{lo: lo, hi: hi}.empty()
}

// cmpLower orders lower endpoints: -inf first, and a closed end before an open one at the same value.
func cmpLower(a, b endpoint) int {
	switch {
	case a.v == nil && b.v == nil:
		return 0
	case a.v == nil:
		return -1
	case b.v == nil:
		return 1
	}
	if c := a.v.Cmp(b.v); c != 0 {
		return c
	}
	switch {
	case a.open == b.open:
		return 0
	case a.open:
		return 1
	default:
		return -1
	}
}

// cmpUpper orders upper endpoints: +inf last, and an open end before a closed one at the same value.
func cmpUpper(a, b endpoint) int {
	switch {
	case a.v == nil && b.v == nil:
		return 0
	case a.v == nil:
		return 1
	case b.v == nil:
		return -1
	}
	if c := a.v.Cmp(b.v); c != 0 {
		return c
	}
	switch {
	case a.open == b.open:
		return 0
	case a.open:
		return -1
	default:
		return 1
	}
}

type foldedSpan struct {
	span interval
	pos  position
}

// coveredBy returns the rule to blame when the union of folded spans covers
// target: the earliest single span enclosing it, or else the earliest span
// that touches it. It returns nil when target is not covered.
func coveredBy(folded []foldedSpan, target interval) *position {
	for i := range folded {
		if folded[i].span.encloses(target) {
			return &folded[i].pos
		}
	}
	if !unionCovers(folded, target) {
		return nil
	}
	for i := range folded {
		if folded[i].span.intersects(target) {
			return &folded[i].pos
		}
	}
	return nil
}

// unionCovers merges the folded spans in order of their lower end and checks
// that they leave no gap inside target.
func unionCovers(folded []foldedSpan, target interval) bool {
	spans := make([]interval, 0, len(folded))
	for _, f := range folded {
		if f.span.intersects(target) {
			spans = append(spans, f.span)
		}
	}
	sort.SliceStable(spans, func(i, j int) bool {
		return cmpLower(spans[i].lo, spans[j].lo) < 0
	})

	// need is the lower end of the part of target not yet covered.
	need := target.lo
	for _, s := range spans {
		if !reaches(s.lo, need) {
			return false
		}
		if cmpUpper(s.hi, target.hi) >= 0 {
			return true
		}
		if next := (endpoint{v: s.hi.v, open: !s.hi.open}); cmpLower(next, need) > 0 {
			need = next
		}
	}
	return false
}

// reaches reports whether a span starting at lo leaves no gap before need.
func reaches(lo, need endpoint) bool {
	return cmpLower(lo, need) <= 0
}
