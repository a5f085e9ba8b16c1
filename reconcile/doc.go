// Package reconcile turns free-form model replies into structured feedback.
//
// A reply moves through RawReceived, Cleaned, Parsed and Validated before it
// is Finalized; any step can end in Failed. Cleaning strips code fences and
// repairs the usual generation mistakes (trailing commas, half-quoted keys,
// prose around the JSON). Parsing accepts either an array of objects or a
// single object. Validation guarantees the strengths, weaknesses and
// improvement_tips lists exist and hold strings. The result always has the
// requested number of records: short replies are padded with PartialRecord,
// long ones truncated, and unusable ones replaced by FallbackRecord.
//
// Reconciler adds the model call on top, retrying errors and empty replies
// with exponential backoff before giving up to fallback records.
package reconcile
