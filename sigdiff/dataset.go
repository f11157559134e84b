package sigdiff

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/bio-sigdiff/encoding/sig5"
	"github.com/grailbio/bio-sigdiff/interval"
	"v.io/x/lib/vlog"
)

var sig5NameRe = regexp.MustCompile(`(?i)\.sig5(\.gz)?$`)

// recordFilter holds the per-dataset selection criteria.  The lock* fields
// start empty and latch onto the first selected file, so one run never mixes
// acids, chromosomes or strands.
type recordFilter struct {
	acid      string // "dna", "rna" or "autodetect"
	forceAcid bool
	strand    string
	chromRe   *regexp.Regexp
	// minPos / maxPos bound the admitted position range, 1-based inclusive;
	// 0 means unbounded.  Files entirely outside the range are skipped before
	// their payload is ever fetched.
	minPos int
	maxPos int

	lockAcid   sig5.Acid
	lockChrom  string
	lockStrand string
}

// admit decides whether m passes the filter, updating the latched values as
// a side effect.
func (f *recordFilter) admit(m *sig5.Meta) bool {
	if m.Acid == sig5.AcidUnknown {
		if !f.forceAcid {
			vlog.VI(1).Infof("skipped %s: unknown acid and no forced acid", m.Path)
			return false
		}
		m.Acid = sig5.Acid(f.acid)
	}
	if f.acid != "autodetect" && f.acid != string(m.Acid) {
		vlog.VI(1).Infof("skipped %s: not of acid %s", m.Path, f.acid)
		return false
	}
	if f.strand != "" && f.strand != m.Strand {
		vlog.VI(1).Infof("skipped %s: not of strand %s", m.Path, f.strand)
		return false
	}
	if f.chromRe != nil && !f.chromRe.MatchString(m.Chrom) {
		vlog.VI(1).Infof("skipped %s: chromosome %s does not match filter", m.Path, m.Chrom)
		return false
	}
	// The file covers 1-based positions Start+1 .. End().
	if f.maxPos != 0 && int(m.Start)+1 > f.maxPos {
		vlog.VI(1).Infof("skipped %s: starts past position %d", m.Path, f.maxPos)
		return false
	}
	if f.minPos != 0 && int(m.End()) < f.minPos {
		vlog.VI(1).Infof("skipped %s: ends before position %d", m.Path, f.minPos)
		return false
	}
	if f.lockAcid == "" {
		f.lockAcid = m.Acid
	} else if f.lockAcid != m.Acid {
		vlog.VI(1).Infof("skipped %s: incompatible acid %s", m.Path, m.Acid)
		return false
	}
	if f.lockChrom == "" {
		f.lockChrom = m.Chrom
	} else if f.lockChrom != m.Chrom {
		vlog.VI(1).Infof("skipped %s: incompatible chromosome %s", m.Path, m.Chrom)
		return false
	}
	if f.lockStrand == "" {
		f.lockStrand = m.Strand
	} else if f.lockStrand != m.Strand {
		vlog.VI(1).Infof("skipped %s: incompatible strand %s", m.Path, m.Strand)
		return false
	}
	return true
}

// listSig5 returns the sorted sig5 file paths under root; root may itself be
// a single file.
func listSig5(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}
	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && sig5NameRe.MatchString(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// loadRecords parses metadata for every sig5 file under root, applies the
// filter, and returns the selected records.  Unparseable files are skipped
// and counted, not fatal.  keep, when non-nil, is an extra predicate applied
// after the filter (used to discard records with no hope of overlap while
// streaming the second dataset).
func loadRecords(ctx context.Context, root string, f *recordFilter, keep func(*Record) bool) ([]*Record, int, error) {
	paths, err := listSig5(root)
	if err != nil {
		return nil, 0, err
	}
	var recs []*Record
	selected := 0
	for _, path := range paths {
		m, err := sig5.ReadMeta(ctx, path)
		if err != nil {
			vlog.VI(1).Infof("skipped %s: %v", path, err)
			continue
		}
		if !f.admit(&m) {
			continue
		}
		selected++
		r := &Record{Meta: m}
		if keep != nil && !keep(r) {
			continue
		}
		recs = append(recs, r)
	}
	return recs, selected, nil
}

// sortByPruneOrder sorts records by (Start ascending, End descending), the
// order the overlap index requires.
func sortByPruneOrder(recs []*Record) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Start != recs[j].Start {
			return recs[i].Start < recs[j].Start
		}
		return recs[i].End() > recs[j].End()
	})
}

// indexOf builds an overlap index over records already in prune order.
func indexOf(recs []*Record) interval.Index {
	spans := make([]interval.Span, len(recs))
	for i, r := range recs {
		spans[i] = r.Span()
	}
	return interval.Index(spans)
}

// pruneByOverlap returns the records overlapping at least one span of idx,
// preserving order.
func pruneByOverlap(recs []*Record, idx interval.Index) []*Record {
	kept := recs[:0]
	for _, r := range recs {
		if idx.OverlapsAny(r.Span()) {
			kept = append(kept, r)
		}
	}
	return kept
}

// sizeAtPath returns the recursive byte size of the file tree at path,
// falling back to a stable hash of the path when sizes cannot be determined.
// The pipeline only needs a deterministic ordering of the two datasets; the
// hash keeps runs reproducible on filesystems that hide size information.
func sizeAtPath(path string) uint64 {
	var total uint64
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += uint64(info.Size())
		return nil
	})
	if err != nil || total == 0 {
		return seahash.Sum64([]byte(path))
	}
	return total
}

// orderPathsBySize returns the two paths smaller-first.
func orderPathsBySize(a, b string) (string, string) {
	if sizeAtPath(a) <= sizeAtPath(b) {
		return a, b
	}
	return b, a
}
