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

/*
Given two directories (or single files) of sig5 signal containers, bio-sigdiff
compares the raw signal distributions of the two datasets position by position
and writes an annotated bedMethyl file: one line per position covered by both
datasets, carrying a smoothed two-sample distance statistic and a pos/neg
cluster label.  Contrasting a sample dataset against an unmodified reference
this way highlights positions whose signal is locally anomalous, e.g. due to
chemical modification.

Sample usage:
bio-sigdiff \
    -min-coverage 5 \
    -resample 15 \
    sample-dataset/ reference-dataset/ out.bed

Use -seed to make resampling reproducible, -no-distance-sum to report raw
per-position distances, and -no-label to skip the clustering post-pass.
*/
package main
