// Package sanitizer normalizes free-text input before validation and storage.
//
// All functions are idempotent. Invalid input never produces an error; it
// collapses to an empty value that validation then rejects if required.
//
// Normalization includes:
//   - Single-line text (titles, names): trim, collapse every whitespace run to one space
//   - Multi-line text (descriptions, messages): trim, collapse horizontal whitespace, keep line breaks
//   - Phones: E.164 when a Brazilian or Portuguese reading parses, otherwise trimmed
//   - URLs: trim, lowercase scheme and host, drop a trailing slash
//   - Slices: normalize each entry, drop empties and duplicates, keep first-seen order
package sanitizer
