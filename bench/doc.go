// Package bench measures classifiers: accuracy against known labels, time of
// repeated fit+predict runs, and equivalence of two implementations' outputs.
package bench
