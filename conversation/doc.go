// Package conversation manages per-session message histories under a fixed
// token budget. When an append would push a session over budget, older
// messages are folded into a single synthetic summary; if even that is not
// enough, the history collapses to the system message and the last exchange.
// The budget holds after every append.
package conversation
