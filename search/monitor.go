package search

import "github.com/poiesic/newswire/core"

// SearchMonitor observes the stages of a search.
type SearchMonitor interface {
	Start(entity, query string)
	AfterSemanticSearch(matches []core.SimilarityMatch)
	VerbatimHit(article *core.Article)
	Finish(results []*Result)
}

type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_, _ string)                            {}
func (n *noopMonitor) AfterSemanticSearch(_ []core.SimilarityMatch) {}
func (n *noopMonitor) VerbatimHit(_ *core.Article)                  {}
func (n *noopMonitor) Finish(_ []*Result)                           {}
