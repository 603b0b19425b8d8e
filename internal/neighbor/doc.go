// Package neighbor holds the k-NN kernel shared by all classifier
// implementations: the copied training table, the bounded candidate set with
// running-maximum eviction, the plurality vote, and the Euclidean distance
// functions.
package neighbor
