// Package mock provides test doubles for the ai interfaces. The default
// behaviors are deterministic, so tests get stable vectors and completions
// without a live model server.
package mock
