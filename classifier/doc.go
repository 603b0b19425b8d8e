// Package classifier defines a minimal abstraction for k-nearest-neighbor
// classifiers that are fitted on a labeled training set and predict one label
// per query row. Implementations in this module include a brute-force
// reference, a row-parallel variant and a compact float32 variant; all of them
// share the same neighbor selection and vote rules, so their outputs are
// directly comparable.
package classifier
