// Package dataset defines the labeled-sample API and SQLite-backed utilities
// used to feed classifiers in this project. It includes:
//   - Sample model with Store and Loader interfaces
//   - SQLiteStore: durable storage of samples grouped by dataset id
//   - Schema helpers to create the samples table
//   - Feature encoding (BLOB) and a CSV reader with label encoding
package dataset
