// Package pagination sanitizes caller-supplied paging hints and projects them
// onto Backlog's offset/count query parameters.
package pagination

import (
	"math"

	"backlogmcp/server/pkg/backlogapi"
)

// Request is the loosely-typed pagination object accepted by list tools.
// Values are untrusted: negative, fractional, NaN and infinite inputs are
// all possible.
type Request struct {
	Offset *float64
	Limit  *float64
}

// Params holds sanitized paging values. A nil field is not applied.
type Params struct {
	Offset *int
	Limit  *int
}

// Normalize floors and clamps each finite field: offset to >= 0, limit to >= 1.
// Values above math.MaxInt32 are capped there, the widest integer Backlog
// accepts for offset and count. Non-finite fields are dropped. A nil request
// yields nil.
func Normalize(req *Request) *Params {
	if req == nil {
		return nil
	}
	return &Params{
		Offset: clamp(req.Offset, 0),
		Limit:  clamp(req.Limit, 1),
	}
}

func clamp(v *float64, lo float64) *int {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	f := math.Max(lo, math.Floor(*v))
	if f > math.MaxInt32 {
		f = math.MaxInt32
	}
	n := int(f)
	return &n
}

// Query returns the wire parameters, or nil when nothing survived
// normalization. Backlog names the page size "count".
func (p *Params) Query() *backlogapi.Page {
	if p == nil || (p.Offset == nil && p.Limit == nil) {
		return nil
	}
	return &backlogapi.Page{Offset: p.Offset, Count: p.Limit}
}

// NextOffset reports offset+limit when exactly limit items came back and nil
// otherwise. Equality is only a hint that more items may exist, so callers
// must treat the value as advisory.
func NextOffset(p *Params, returned int) *int {
	if p == nil || p.Limit == nil || returned != *p.Limit {
		return nil
	}
	offset := 0
	if p.Offset != nil {
		offset = *p.Offset
	}
	next := offset + *p.Limit
	return &next
}
