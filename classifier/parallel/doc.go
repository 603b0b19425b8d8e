// Package parallel provides a row-parallel k-NN classifier. Query rows are
// split into contiguous chunks classified by a bounded pool of goroutines;
// each worker owns its candidate set, so the output is identical to the
// brute-force reference for the same inputs.
//
// Fit and Predict may be called from multiple goroutines: Fit waits for
// in-flight predictions and predictions proceed concurrently with each other.
package parallel
