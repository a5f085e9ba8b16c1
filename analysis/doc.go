// Package analysis scores batches of interview question/response pairs and
// collects model feedback for them.
//
// An Analyzer runs in two phases:
//   - Each item is validated and scored on a worker pool. Items that fail
//     validation or scoring become error records and never reach the model.
//   - The surviving items are sent to the model in a single prompt and the
//     reply is reconciled into one feedback record per survivor.
//
// Results are merged back by position, so the output always has the same
// length and order as the input no matter how many items were filtered out.
package analysis
