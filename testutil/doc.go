// Package testutil provides seeded vector generators and ground-truth helpers
// for tests.
//
//	rng := testutil.NewRNG(42)
//	data := rng.UniformVectors(1000, 128)
//	truth := testutil.BruteForceSearch(data, data[0], 10)
package testutil
