// Package chunking splits documents into bounded word windows, the unit of
// retrieval and gap analysis.
package chunking
