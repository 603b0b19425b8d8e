// Package bruteforce provides the reference k-NN classifier: Fit copies the
// training set and Predict scans every training row for every query row,
// keeping the k nearest by Euclidean distance and voting on their labels.
// Its output defines the expected result for every other implementation.
package bruteforce
