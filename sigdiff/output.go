package sigdiff

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"

	"github.com/grailbio/base/tsv"
)

// writeOutput streams results into a bedMethyl-style file at path, one line
// per retained position.  Columns 1-11 follow the bedMethyl layout (unused
// columns hold "_"); column 12 carries the distance with 5 decimal places.
// Output is written to a temporary file in the destination directory and
// renamed into place only when the whole stream has been consumed without
// error, so a mid-stream failure never leaves a truncated output behind.
// The user's 1-based inclusive position bounds are enforced here, after
// smoothing.
func writeOutput(path, chrom, strand string, results posDistIter, fromPos, toPos int) (nLines int, err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp")
	if err != nil {
		return 0, err
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			_ = tmp.Close()
		}
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	bw := bufio.NewWriter(tmp)
	tsvw := tsv.NewWriter(bw)
	for {
		pd, err2 := results.Next()
		if err2 != nil {
			return 0, err2
		}
		if pd == nil {
			break
		}
		pos1 := int(pd.Pos) + 1
		if fromPos != 0 && pos1 < fromPos {
			continue
		}
		if toPos != 0 && pos1 > toPos {
			continue
		}
		tsvw.WriteString(chrom)            // col 1, reference chromosome
		tsvw.WriteUint32(uint32(pos1))     // col 2, position from (1-based)
		tsvw.WriteUint32(uint32(pos1 + 1)) // col 3, position to
		tsvw.WriteString("_")              // col 4, name of item
		tsvw.WriteString("_")              // col 5, score
		tsvw.WriteString(strand)           // col 6, strand
		tsvw.WriteString("_")              // col 7, thick display start
		tsvw.WriteString("_")              // col 8, thick display end
		tsvw.WriteString("_")              // col 9, color value
		tsvw.WriteUint32(uint32(pd.Coverage))
		tsvw.WriteString("_") // col 11, percent modified
		tsvw.WriteString(strconv.FormatFloat(pd.Dist, 'f', 5, 64))
		if err = tsvw.EndLine(); err != nil {
			return 0, err
		}
		nLines++
	}
	if err = tsvw.Flush(); err != nil {
		return 0, err
	}
	if err = bw.Flush(); err != nil {
		return 0, err
	}
	if err = tmp.Close(); err != nil {
		tmp = nil
		return 0, err
	}
	tmp = nil
	if err = os.Rename(tmpPath, path); err != nil {
		return 0, err
	}
	return nLines, nil
}
