package sigdiff

import (
	"context"
	"math/rand"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/bio-sigdiff/encoding/sig5"
	"github.com/grailbio/bio-sigdiff/interval"
)

func errPayloadShape(path string) error {
	return errors.E("signal payload does not match metadata extent:", path)
}

// Record is one selected input read: immutable position metadata plus
// lazily fetched signal.  The payload is loaded at most once, on first
// access; a failed load is memoized too, so a broken file surfaces the same
// error at every later access instead of being retried.
type Record struct {
	sig5.Meta

	payload    *sig5.Payload
	payloadErr error
	fetched    bool
}

// Contains returns whether the record's interval covers pos.
func (r *Record) Contains(pos interval.PosType) bool {
	return r.Span().Contains(pos)
}

// Payload returns the record's normalized signal, fetching it on first call.
func (r *Record) Payload(ctx context.Context) (*sig5.Payload, error) {
	if !r.fetched {
		r.payload, r.payloadErr = sig5.ReadPayload(ctx, r.Path, r.Acid)
		if r.payloadErr == nil && r.payload.NumEvents() != r.NumEvents {
			r.payload = nil
			r.payloadErr = errPayloadShape(r.Path)
		}
		r.fetched = true
	}
	return r.payload, r.payloadErr
}

// SignalAt returns the signal fragment covering one genomic position.  With
// resample > 0 the fragment is replaced by resample values drawn uniformly
// with replacement from it, using rng; draws are independent per record.
func (r *Record) SignalAt(ctx context.Context, pos interval.PosType, resample int, rng *rand.Rand) ([]float64, error) {
	p, err := r.Payload(ctx)
	if err != nil {
		return nil, err
	}
	frag := p.At(int(pos - r.Start))
	if resample <= 0 || resample == len(frag) || len(frag) == 0 {
		return frag, nil
	}
	out := make([]float64, resample)
	for i := range out {
		out[i] = frag[rng.Intn(len(frag))]
	}
	return out, nil
}
