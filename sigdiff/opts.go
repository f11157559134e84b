package sigdiff

import (
	"regexp"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/bio-sigdiff/encoding/sig5"
)

// Opts bundles the configuration surface of a comparison run.
type Opts struct {
	// Acid restricts input to "dna" or "rna" reads; "autodetect" locks onto
	// whatever the first selected file is.
	Acid string
	// ForceAcid reads files with an unrecorded acid as Acid instead of
	// skipping them.  Requires an explicit Acid.
	ForceAcid bool
	// Chromosome, when nonempty, is a regexp that selected files' chromosome
	// names must match.
	Chromosome string
	// Strand restricts input to "+" or "-" reads; empty locks onto the first
	// selected file's strand.
	Strand string
	// FromPos / ToPos bound the reported positions, 1-based inclusive.
	// Zero means unbounded.
	FromPos int
	ToPos   int
	// MinCoverage is the minimum number of reads that must cover a position
	// for it to be compared.  At least 1.
	MinCoverage int
	// Resample, when positive, resamples every per-read fragment to this many
	// values (drawn uniformly with replacement) before concatenation.
	// 0 disables resampling.
	Resample int
	// WindowSize is the sliding window width of the smoothing pass.  Odd,
	// greater than 1.
	WindowSize int
	// NoDistanceSum disables the smoothing pass, reporting raw per-position
	// distances.
	NoDistanceSum bool
	// NoLabel skips the clustering post-pass that appends pos/neg labels to
	// the output.
	NoLabel bool
	// Seed seeds the resampling random source.  0 means seed from the clock.
	Seed int64
	// Parallelism is the number of goroutines computing distances; values
	// below 2 select the serial path.
	Parallelism int
	// Distance selects the two-sample statistic: "ks" or "kuiper".
	Distance string
}

// DefaultOpts mirrors the defaults of the command line tool.
var DefaultOpts = Opts{
	Acid:        "autodetect",
	MinCoverage: 5,
	Resample:    15,
	WindowSize:  5,
	Distance:    "ks",
}

// validate checks opts for sanity and compiles the derived pieces.
func (o *Opts) validate() (*regexp.Regexp, DistanceFunc, error) {
	if o.Acid != string(sig5.DNA) && o.Acid != string(sig5.RNA) && o.Acid != "autodetect" {
		return nil, nil, errors.E("acid must be one of: dna, rna, autodetect")
	}
	if o.ForceAcid && o.Acid == "autodetect" {
		return nil, nil, errors.E("cannot force-acid without specifying an acid")
	}
	if o.Strand != "" && o.Strand != "+" && o.Strand != "-" {
		return nil, nil, errors.E("strand must be one of: '+' or '-'")
	}
	if o.FromPos < 0 || o.ToPos < 0 {
		return nil, nil, errors.E("position bounds must be at least 0")
	}
	if o.FromPos != 0 && o.ToPos != 0 && o.FromPos > o.ToPos {
		return nil, nil, errors.E("from-position must not exceed to-position")
	}
	if o.MinCoverage < 1 {
		return nil, nil, errors.E("min-coverage must be at least 1")
	}
	if o.Resample < 0 {
		return nil, nil, errors.E("resample size must be at least 0")
	}
	if o.WindowSize < 3 || o.WindowSize%2 == 0 {
		return nil, nil, errors.E("window size must be odd and greater than 1")
	}
	var chromRe *regexp.Regexp
	if o.Chromosome != "" {
		var err error
		if chromRe, err = regexp.Compile(o.Chromosome); err != nil {
			return nil, nil, errors.E(err, "chromosome regexp must be valid")
		}
	}
	var dist DistanceFunc
	switch o.Distance {
	case "", "ks":
		dist = KolmogorovSmirnov
	case "kuiper":
		dist = Kuiper
	default:
		return nil, nil, errors.E("distance must be one of: ks, kuiper")
	}
	return chromRe, dist, nil
}
