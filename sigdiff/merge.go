package sigdiff

// samplePair is a pair of same-position Samples, one from each dataset.
type samplePair struct {
	x, y *Sample
}

// merger joins two strictly position-increasing Sample streams on equal
// position.  Each pull advances the lagging stream, so upstream aggregation
// is driven lazily and never runs ahead of consumption.
type merger struct {
	xs, ys  sampleIter
	started bool
	x, y    *Sample
}

func newMerger(xs, ys sampleIter) *merger {
	return &merger{xs: xs, ys: ys}
}

// Next returns the next position-aligned pair, or (nil, nil) when either
// stream is exhausted.
func (m *merger) Next() (*samplePair, error) {
	var err error
	if !m.started {
		m.started = true
		if m.x, err = m.xs.Next(); err != nil {
			return nil, err
		}
		if m.y, err = m.ys.Next(); err != nil {
			return nil, err
		}
	}
	for m.x != nil && m.y != nil {
		switch {
		case m.x.Pos > m.y.Pos:
			if m.y, err = m.ys.Next(); err != nil {
				return nil, err
			}
		case m.y.Pos > m.x.Pos:
			if m.x, err = m.xs.Next(); err != nil {
				return nil, err
			}
		default:
			pair := &samplePair{x: m.x, y: m.y}
			if m.x, err = m.xs.Next(); err != nil {
				return nil, err
			}
			if m.y, err = m.ys.Next(); err != nil {
				return nil, err
			}
			return pair, nil
		}
	}
	return nil, nil
}
