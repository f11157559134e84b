// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/bio-sigdiff/sigdiff"
)

var (
	acid          = flag.String("acid", sigdiff.DefaultOpts.Acid, "Filter by acid, 'dna' or 'rna'; 'autodetect' locks onto the first file")
	chromosome    = flag.String("chromosome", sigdiff.DefaultOpts.Chromosome, "Filter by chromosome regexp")
	distance      = flag.String("distance", sigdiff.DefaultOpts.Distance, "Two-sample distance statistic; 'ks' and 'kuiper' supported")
	forceAcid     = flag.Bool("force-acid", sigdiff.DefaultOpts.ForceAcid, "Read files with an unrecorded acid as the -acid value instead of skipping them")
	fromPos       = flag.Int("from", sigdiff.DefaultOpts.FromPos, "Filter by minimum position, 1-based inclusive; 0 = unbounded")
	minCoverage   = flag.Int("min-coverage", sigdiff.DefaultOpts.MinCoverage, "Minimum number of reads covering a position on each side")
	noDistanceSum = flag.Bool("no-distance-sum", sigdiff.DefaultOpts.NoDistanceSum, "Don't sum neighbour position distances")
	noLabel       = flag.Bool("no-label", sigdiff.DefaultOpts.NoLabel, "Don't cluster the output into pos/neg labels")
	parallelism   = flag.Int("parallelism", sigdiff.DefaultOpts.Parallelism, "Number of goroutines computing distances; values below 2 run serially")
	resample      = flag.Int("resample", sigdiff.DefaultOpts.Resample, "Signal resample size; 0 to disable")
	seed          = flag.Int64("seed", sigdiff.DefaultOpts.Seed, "Random seed for resampling, for reproducibility; 0 seeds from the clock")
	strand        = flag.String("strand", sigdiff.DefaultOpts.Strand, "Filter by strand, '+' or '-'")
	toPos         = flag.Int("to", sigdiff.DefaultOpts.ToPos, "Filter by maximum position, 1-based inclusive; 0 = unbounded")
	window        = flag.Int("window", sigdiff.DefaultOpts.WindowSize, "Sliding window size for distance summing; odd, >1")
)

func bioSigdiffUsage() {
	fmt.Printf("Usage: %s [OPTIONS] dataset1 dataset2 output-bed\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = bioSigdiffUsage
	shutdown := grail.Init()
	defer shutdown()

	allArgs := flag.Args()
	nPositionalArgs := flag.NArg()
	positionalArgs := allArgs[len(allArgs)-nPositionalArgs:]
	if nPositionalArgs != 3 {
		if nPositionalArgs < 3 {
			log.Fatalf("Missing positional arguments (dataset1, dataset2 and output-bed required); please check flag syntax: '%s'", strings.Join(positionalArgs, " "))
		} else {
			log.Fatalf("Too many positional arguments (only dataset1, dataset2 and output-bed expected); please check flag syntax: '%s'", strings.Join(positionalArgs, " "))
		}
	}
	for _, p := range positionalArgs[:2] {
		if _, err := os.Stat(p); err != nil {
			log.Fatalf("no such path exists: %s", p)
		}
	}

	ctx := vcontext.Background()
	opts := sigdiff.Opts{
		Acid:          *acid,
		ForceAcid:     *forceAcid,
		Chromosome:    *chromosome,
		Strand:        *strand,
		FromPos:       *fromPos,
		ToPos:         *toPos,
		MinCoverage:   *minCoverage,
		Resample:      *resample,
		WindowSize:    *window,
		NoDistanceSum: *noDistanceSum,
		NoLabel:       *noLabel,
		Seed:          *seed,
		Parallelism:   *parallelism,
		Distance:      *distance,
	}
	if err := sigdiff.Run(ctx, positionalArgs[0], positionalArgs[1], positionalArgs[2], opts); err != nil {
		log.Fatalf("bio-sigdiff: %v", err)
	}
}
