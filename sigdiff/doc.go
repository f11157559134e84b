// Package sigdiff compares two collections of position-aligned raw signal
// reads and scores, for every genomic position covered by both, how
// differently the two collections' signals are distributed there.  It is the
// core of the bio-sigdiff tool, used to detect localized signal anomalies
// such as chemical modifications by contrasting a sample dataset against a
// reference.
//
// The pipeline is a chain of lazy pull-based stages, all consuming and
// producing strictly position-ascending streams:
//
//	record loading -> mutual overlap pruning -> per-position aggregation (x2)
//	  -> pair merging -> two-sample distance -> window smoothing -> output
//
// followed by a clustering post-pass that labels each output line as
// positive or negative.
package sigdiff
