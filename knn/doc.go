// Package knn implements a SQLite virtual table that classifies query rows
// against labeled samples stored in the knn_samples table.
//
// Features:
//   - WHERE dataset_id = ? lists the training samples of a dataset
//   - WHERE dataset_id = ? AND label MATCH ? predicts one label per query row
//   - AND k = ? overrides the neighbor count declared for the table
//   - MATCH accepts a float64 BLOB, a JSON array (or array of arrays), a CSV
//     list with ';' or newline separated rows, or a base64 encoded BLOB
//   - Fitted classifiers are cached per dataset and invalidated by triggers
//
// Usage:
//
//	CREATE VIRTUAL TABLE iris USING knn(label, k=5, impl=parallel, workers=4);
//	SELECT label FROM iris WHERE dataset_id = 'iris' AND label MATCH '[5.1,3.5,1.4,0.2]';
package knn
