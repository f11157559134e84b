package sigdiff

import (
	"context"
	"math/rand"
	"regexp"
	"time"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// Run compares the two datasets and writes the annotated bedMethyl output to
// outPath.  It returns an error for invalid configuration, unusable inputs,
// datasets with no overlapping positions, or any mid-stream failure; in the
// failure cases no (new) output file is left behind.
func Run(ctx context.Context, dataset1, dataset2, outPath string, opts Opts) error {
	chromRe, distFn, err := opts.validate()
	if err != nil {
		return err
	}

	// The smaller dataset is indexed first; the larger one is then pruned
	// against it file by file, keeping peak memory proportional to the
	// smaller side.
	xsPath, ysPath := orderPathsBySize(dataset1, dataset2)

	// Files entirely outside the user's position bounds are dropped at load
	// time.  The bounds are widened by one window size so that smoothing
	// still sees complete neighborhoods at the edges.
	minPos, maxPos := 0, 0
	if opts.FromPos > 0 {
		minPos = opts.FromPos - opts.WindowSize
	}
	if opts.ToPos > 0 {
		maxPos = opts.ToPos + opts.WindowSize
	}

	filter := &recordFilter{
		acid:      opts.Acid,
		forceAcid: opts.ForceAcid,
		strand:    opts.Strand,
		chromRe:   chromRe,
		minPos:    minPos,
		maxPos:    maxPos,
	}
	xs, _, err := loadRecords(ctx, xsPath, filter, nil)
	if err != nil {
		return err
	}
	if len(xs) == 0 {
		return errors.E("no valid signal files in", xsPath)
	}
	sortByPruneOrder(xs)
	xsIndex := indexOf(xs)

	// The second dataset inherits the first's locked-in attributes, so the
	// two sides are guaranteed comparable.
	yFilter := &recordFilter{
		acid:      string(xs[0].Acid),
		forceAcid: opts.ForceAcid,
		strand:    xs[0].Strand,
		chromRe:   regexp.MustCompile("^" + regexp.QuoteMeta(xs[0].Chrom) + "$"),
		minPos:    minPos,
		maxPos:    maxPos,
	}
	ys, ysSelected, err := loadRecords(ctx, ysPath, yFilter, func(r *Record) bool {
		return xsIndex.OverlapsAny(r.Span())
	})
	if err != nil {
		return err
	}
	if len(ys) == 0 {
		if ysSelected == 0 {
			return errors.E("no valid signal files in", ysPath)
		}
		return errors.E("no selected files from", xsPath, "overlap those in", ysPath)
	}

	// Pruning the second dataset can strand files in the first whose only
	// overlaps were discarded, so the first dataset is pruned in turn.
	sortByPruneOrder(ys)
	xs = pruneByOverlap(xs, indexOf(ys))
	if len(xs) == 0 {
		return errors.E("no selected files from", xsPath, "overlap those in", ysPath)
	}
	log.Printf("comparing %d and %d signal files on %s%s", len(xs), len(ys), xs[0].Chrom, xs[0].Strand)

	chrom, strand := xs[0].Chrom, xs[0].Strand

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	pairs := newMerger(
		newAggregator(ctx, xs, &opts, rng),
		newAggregator(ctx, ys, &opts, rng))
	var results posDistIter = newDistancer(pairs, distFn, opts.Parallelism)
	if !opts.NoDistanceSum {
		results = newSmoother(results, opts.WindowSize)
	}

	nLines, err := writeOutput(outPath, chrom, strand, results, opts.FromPos, opts.ToPos)
	if err != nil {
		return err
	}
	if nLines == 0 {
		log.Printf("no positions passed the coverage and overlap filters; output %s is empty", outPath)
		return nil
	}
	log.Printf("wrote %d positions to %s", nLines, outPath)

	if opts.NoLabel {
		return nil
	}
	return LabelOutput(outPath)
}
