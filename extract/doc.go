// Package extract converts raw document bytes into ordered plain-text pages
// plus best-effort metadata. Extraction is polymorphic over the declared file
// type; unsupported or corrupt input yields a typed failure, never partial
// garbage, and callers must treat any non-success as terminal for that
// document's processing attempt.
package extract
