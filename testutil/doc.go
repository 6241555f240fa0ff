// Package testutil provides deterministic random data and point view
// fixtures for tests and benchmarks.
package testutil
