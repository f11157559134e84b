// Package sig5 contains code for parsing sig5 signal containers.  A sig5
// file holds the normalized raw signal of one sequenced molecule, aligned to
// a genomic interval.  The format is line-oriented text, optionally gzipped
// (.sig5.gz):
//
//	#sig5	1
//	<chrom>	<strand>	<acid>	<start>	<shift>	<scale>
//	<len_0> <len_1> ... <len_{n-1}>
//	<v_0> <v_1> ... <v_{m-1}>
//
// Line 3 lists how many signal points were measured at each of the n genomic
// positions starting at <start>; line 4 holds the raw signal itself, with
// m equal to the sum of the lengths.  Values are stored in sequencing order:
// for RNA the signal is read 3'->5', so the payload is reversed on load
// before (v - shift) / scale normalization.  The acid column is "dna", "rna"
// or "?" when the producing tool could not tell.
package sig5

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/bio-sigdiff/interval"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// Acid distinguishes DNA from RNA reads.
type Acid string

const (
	// DNA marks a DNA read.
	DNA Acid = "dna"
	// RNA marks an RNA read; its payload is stored reversed.
	RNA Acid = "rna"
	// AcidUnknown marks a read whose producing tool recorded neither.
	AcidUnknown Acid = "?"
)

// Valid returns whether a is one of the three recognized values.
func (a Acid) Valid() bool {
	return a == DNA || a == RNA || a == AcidUnknown
}

// Meta is the cheap-to-parse portion of a sig5 file: everything needed to
// decide whether and in what order to process it, but no signal data.
type Meta struct {
	Path      string
	Chrom     string
	Strand    string
	Acid      Acid
	Start     interval.PosType
	Shift     float64
	Scale     float64
	NumEvents int
}

// Span returns the half-open genomic interval the read is aligned to.
func (m *Meta) Span() interval.Span {
	return interval.Span{Start: m.Start, End: m.Start + interval.PosType(m.NumEvents)}
}

// End returns the position one past the last covered position.
func (m *Meta) End() interval.PosType { return m.Span().End }

// Payload is the per-position signal of one read, normalized and indexed for
// random access by event.
type Payload struct {
	values  []float64
	offsets []int // len(offsets) == NumEvents + 1
}

// NewPayload builds a Payload from already-normalized values and the
// per-event lengths.  It is exported for tools and tests that synthesize
// signal data.
func NewPayload(values []float64, lengths []int) (*Payload, error) {
	offsets := make([]int, len(lengths)+1)
	for i, n := range lengths {
		if n < 0 {
			return nil, errors.Errorf("negative event length %d", n)
		}
		offsets[i+1] = offsets[i] + n
	}
	if offsets[len(lengths)] != len(values) {
		return nil, errors.Errorf("event lengths sum to %d, but %d signal values present",
			offsets[len(lengths)], len(values))
	}
	return &Payload{values: values, offsets: offsets}, nil
}

// NumEvents returns the number of genomic positions covered.
func (p *Payload) NumEvents() int { return len(p.offsets) - 1 }

// At returns the signal fragment of the i'th covered position.  The returned
// slice aliases the payload and must not be modified.
func (p *Payload) At(i int) []float64 {
	return p.values[p.offsets[i]:p.offsets[i+1]]
}

// open returns a line reader over path, transparently decompressing gzip.
// The returned closer closes the underlying file.
func open(ctx context.Context, path string) (*bufio.Reader, func() error, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	reader := io.Reader(in.Reader(ctx))
	if fileio.DetermineType(path) == fileio.Gzip {
		if reader, err = gzip.NewReader(reader); err != nil {
			_ = in.Close(ctx)
			return nil, nil, errors.Wrapf(err, "%s: bad gzip stream", path)
		}
	}
	return bufio.NewReaderSize(reader, 1<<20), func() error { return in.Close(ctx) }, nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err == io.EOF && len(line) > 0 {
		err = nil
	}
	return strings.TrimSuffix(line, "\n"), err
}

// parseHeader consumes the first two lines and returns the metadata they
// describe.
func parseHeader(r *bufio.Reader, path string) (Meta, error) {
	m := Meta{Path: path}
	magic, err := readLine(r)
	if err != nil {
		return m, errors.Wrapf(err, "%s: missing sig5 header", path)
	}
	fields := strings.Split(magic, "\t")
	if len(fields) != 2 || fields[0] != "#sig5" {
		return m, errors.Errorf("%s: not a sig5 file", path)
	}
	if fields[1] != "1" {
		return m, errors.Errorf("%s: unsupported sig5 version %q", path, fields[1])
	}

	line, err := readLine(r)
	if err != nil {
		return m, errors.Wrapf(err, "%s: missing metadata line", path)
	}
	fields = strings.Split(line, "\t")
	if len(fields) != 6 {
		return m, errors.Errorf("%s: metadata line has %d columns, want 6", path, len(fields))
	}
	m.Chrom = fields[0]
	m.Strand = fields[1]
	if m.Strand != "+" && m.Strand != "-" {
		return m, errors.Errorf("%s: bad strand %q", path, m.Strand)
	}
	m.Acid = Acid(fields[2])
	if !m.Acid.Valid() {
		return m, errors.Errorf("%s: bad acid %q", path, fields[2])
	}
	start, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil || start < 0 || start > interval.PosTypeMax {
		return m, errors.Errorf("%s: bad start position %q", path, fields[3])
	}
	m.Start = interval.PosType(start)
	if m.Shift, err = strconv.ParseFloat(fields[4], 64); err != nil {
		return m, errors.Errorf("%s: bad shift %q", path, fields[4])
	}
	if m.Scale, err = strconv.ParseFloat(fields[5], 64); err != nil || m.Scale == 0 {
		return m, errors.Errorf("%s: bad scale %q", path, fields[5])
	}
	return m, nil
}

func parseLengths(line, path string) ([]int, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, errors.Errorf("%s: empty event length line", path)
	}
	lengths := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return nil, errors.Errorf("%s: bad event length %q", path, f)
		}
		lengths[i] = n
	}
	return lengths, nil
}

// ReadMeta parses the header and event-length lines of the file at path,
// without touching the signal itself.  Position extent is derived from the
// number of event lengths.
func ReadMeta(ctx context.Context, path string) (Meta, error) {
	r, closer, err := open(ctx, path)
	if err != nil {
		return Meta{}, err
	}
	defer closer() // nolint: errcheck
	m, err := parseHeader(r, path)
	if err != nil {
		return m, err
	}
	line, err := readLine(r)
	if err != nil {
		return m, errors.Wrapf(err, "%s: missing event length line", path)
	}
	lengths, err := parseLengths(line, path)
	if err != nil {
		return m, err
	}
	m.NumEvents = len(lengths)
	return m, nil
}

// ReadPayload parses the whole file at path and returns its normalized
// signal.  acid determines whether the payload is reversed before
// normalization; pass the effective acid (a forced override may differ from
// the one stored in the file).
func ReadPayload(ctx context.Context, path string, acid Acid) (*Payload, error) {
	r, closer, err := open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer closer() // nolint: errcheck
	m, err := parseHeader(r, path)
	if err != nil {
		return nil, err
	}
	line, err := readLine(r)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: missing event length line", path)
	}
	lengths, err := parseLengths(line, path)
	if err != nil {
		return nil, err
	}
	line, err = readLine(r)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: missing signal line", path)
	}
	fields := strings.Fields(line)
	values := make([]float64, len(fields))
	for i, f := range fields {
		if values[i], err = strconv.ParseFloat(f, 64); err != nil {
			return nil, errors.Errorf("%s: bad signal value %q", path, f)
		}
	}
	if acid == RNA {
		for i, j := 0, len(values)-1; i < j; i, j = i+1, j-1 {
			values[i], values[j] = values[j], values[i]
		}
	}
	for i := range values {
		values[i] = (values[i] - m.Shift) / m.Scale
	}
	return NewPayload(values, lengths)
}

// Write serializes one read in sig5 format.  values are raw (unnormalized,
// sequencing order): Write is the inverse of ReadPayload up to normalization.
func Write(w io.Writer, m Meta, lengths []int, values []float64) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("#sig5\t1\n"); err != nil {
		return err
	}
	meta := strings.Join([]string{
		m.Chrom,
		m.Strand,
		string(m.Acid),
		strconv.FormatInt(int64(m.Start), 10),
		strconv.FormatFloat(m.Shift, 'g', -1, 64),
		strconv.FormatFloat(m.Scale, 'g', -1, 64),
	}, "\t")
	if _, err := bw.WriteString(meta + "\n"); err != nil {
		return err
	}
	for i, n := range lengths {
		if i > 0 {
			if err := bw.WriteByte(' '); err != nil {
				return err
			}
		}
		if _, err := bw.WriteString(strconv.Itoa(n)); err != nil {
			return err
		}
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	for i, v := range values {
		if i > 0 {
			if err := bw.WriteByte(' '); err != nil {
				return err
			}
		}
		if _, err := bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64)); err != nil {
			return err
		}
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	return bw.Flush()
}
