/*Package interval implements overlap queries on sets of half-open genomic
  intervals, in a manner optimized for pruning two signal datasets down to
  their mutually comparable subsets.
  (Note that overlapping intervals are tracked separately, not merged; every
  query identifies a concrete member of the indexed set.)
  It assumes every position fits in a PosType, which is currently defined as
  int32 since that's what the upstream alignment formats are limited to.
*/
package interval
