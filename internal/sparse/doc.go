// Package sparse provides minimal sparse vector and matrix types for
// hashed feature representations.
//
// Link and page features are hashed into a fixed high-dimensional space
// (hundreds of thousands of columns), so dense per-row storage is not an
// option. This package stores only the non-zero entries of each row and
// supports the handful of operations the value function needs: dot products
// against dense weight vectors, scaled accumulation into dense weight
// vectors, concatenation, and row stacking.
package sparse
