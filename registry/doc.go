// Package registry caches fitted classifiers per dataset and neighbor count.
//
// Classifiers are built lazily from a dataset.Loader on first use; concurrent
// callers asking for the same (dataset, k) wait for a single build. The cache
// is bounded by an LRU. Writes to the samples table invalidate cached entries
// through the knn_invalidate SQL function fired by triggers installed with
// InstallTriggers.
package registry
