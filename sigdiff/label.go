package sigdiff

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
)

const distCol = 11 // 0-based index of the distance column

// LabelOutput reads a finished output file, partitions its distance scores
// into two clusters, and rewrites the file with a trailing "pos"/"neg"
// column: "pos" for the cluster containing the maximum score.  An empty
// output is left untouched with a warning; callers treat that as success.
// The rewrite goes through a temporary file and a rename, like the original
// write.
func LabelOutput(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "labeling: reading output")
	}
	var lines [][]string
	for _, line := range strings.Split(string(data), "\n") {
		if fields := strings.Fields(line); len(fields) > 0 {
			lines = append(lines, fields)
		}
	}
	if len(lines) == 0 {
		log.Printf("output file %s is empty, no clustering performed", path)
		return nil
	}

	scores := make([]float64, len(lines))
	for i, fields := range lines {
		if len(fields) <= distCol {
			return errors.Errorf("labeling: line %d has %d columns, want at least %d",
				i+1, len(fields), distCol+1)
		}
		if scores[i], err = strconv.ParseFloat(fields[distCol], 64); err != nil {
			return errors.Wrapf(err, "labeling: line %d has bad distance %q", i+1, fields[distCol])
		}
	}

	labels := cluster2(scores)
	// The cluster holding the maximum score is the positive one.
	maxIdx := 0
	for i, s := range scores {
		if s > scores[maxIdx] {
			maxIdx = i
		}
	}
	posLabel := labels[maxIdx]

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp")
	if err != nil {
		return errors.Wrap(err, "labeling")
	}
	tmpPath := tmp.Name()
	bw := bufio.NewWriter(tmp)
	for i, fields := range lines {
		name := "neg"
		if labels[i] == posLabel {
			name = "pos"
		}
		if _, err = bw.WriteString(strings.Join(append(fields, name), "\t") + "\n"); err != nil {
			break
		}
	}
	if err == nil {
		err = bw.Flush()
	}
	if cerr := tmp.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, "labeling: writing")
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return errors.Wrap(err, "labeling")
	}
	return nil
}

// cluster2 assigns each score a cluster id in {0, 1}.  For a single
// dimension and two clusters the optimal k-means partition is a contiguous
// split of the sorted values, so the exact optimum is found by scanning every
// split point and minimizing the total within-cluster sum of squared
// deviations via prefix sums.
func cluster2(scores []float64) []int {
	n := len(scores)
	labels := make([]int, n)
	if n < 2 {
		return labels
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return scores[order[i]] < scores[order[j]] })

	// prefix[i] = sum of the i smallest scores; prefix2 the squares.
	prefix := make([]float64, n+1)
	prefix2 := make([]float64, n+1)
	for i, idx := range order {
		prefix[i+1] = prefix[i] + scores[idx]
		prefix2[i+1] = prefix2[i] + scores[idx]*scores[idx]
	}
	sse := func(lo, hi int) float64 { // [lo, hi), sorted order
		k := float64(hi - lo)
		sum := prefix[hi] - prefix[lo]
		sum2 := prefix2[hi] - prefix2[lo]
		return sum2 - sum*sum/k
	}
	bestSplit, bestCost := 1, sse(0, 1)+sse(1, n)
	for k := 2; k < n; k++ {
		if cost := sse(0, k) + sse(k, n); cost < bestCost {
			bestSplit, bestCost = k, cost
		}
	}
	for rank, idx := range order {
		if rank >= bestSplit {
			labels[idx] = 1
		}
	}
	return labels
}
