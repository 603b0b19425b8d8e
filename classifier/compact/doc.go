// Package compact provides a k-NN classifier that stores training features as
// float32, halving the memory of the reference implementation. Distances are
// computed with the github.com/viant/vec float32 kernels.
//
// Results equal the brute-force reference whenever the features are exactly
// representable in float32 and float32 rounding preserves distance order.
package compact
