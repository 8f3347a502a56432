package rank

import "github.com/poiesic/bubbl/core"

// Monitor provides hooks to observe the ranking pipeline.
// Implement this interface to track intermediate steps and results.
type Monitor interface {
	Start(actor string)
	AfterReferenceCollect(bubbles []*core.Bubble)
	AfterCandidateCollect(bubbles []*core.Bubble)
	AfterGrouping(groups *AuthorGroups)
	AfterSummaries(summaries map[string]string)
	AfterEmbeddings(vectors map[string][]float32)
	Finish(ranked []core.RankedAuthor)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                          {}
func (n *noopMonitor) AfterReferenceCollect(_ []*core.Bubble)  {}
func (n *noopMonitor) AfterCandidateCollect(_ []*core.Bubble)  {}
func (n *noopMonitor) AfterGrouping(_ *AuthorGroups)           {}
func (n *noopMonitor) AfterSummaries(_ map[string]string)      {}
func (n *noopMonitor) AfterEmbeddings(_ map[string][]float32)  {}
func (n *noopMonitor) Finish(_ []core.RankedAuthor)            {}
