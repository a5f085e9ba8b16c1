package search

import "github.com/poiesic/critique/core"

// RetrievalMonitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps and results.
type RetrievalMonitor interface {
	Start(target string, chunkCount int)
	AfterFullQuerySearch(results []core.SearchResult)
	AfterKeywordExtraction(keywords []string)
	AfterKeywordSearch(keyword string, results []core.SearchResult)
	DuplicateDropped(result core.SearchResult)
	Finish(results []core.SearchResult)
}

// noopMonitor is a no-op implementation of RetrievalMonitor
type noopMonitor struct{}

var _ RetrievalMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ int)                              {}
func (n *noopMonitor) AfterFullQuerySearch(_ []core.SearchResult)         {}
func (n *noopMonitor) AfterKeywordExtraction(_ []string)                  {}
func (n *noopMonitor) AfterKeywordSearch(_ string, _ []core.SearchResult) {}
func (n *noopMonitor) DuplicateDropped(_ core.SearchResult)               {}
func (n *noopMonitor) Finish(_ []core.SearchResult)                       {}
