package models

// StrategyKind names one of the retrieval algorithms the engine can run.
type StrategyKind string

const (
	StrategySimple         StrategyKind = "simple"
	StrategyMultiStage     StrategyKind = "multi_stage"
	StrategyKnowledgeGraph StrategyKind = "knowledge_graph"
	StrategyMultimodal     StrategyKind = "multimodal"
	StrategyExpertDomain   StrategyKind = "expert_domain"
)

// ValidStrategyKind reports whether the value is one of the known kinds.
func ValidStrategyKind(kind StrategyKind) bool {
	switch kind {
	case StrategySimple, StrategyMultiStage, StrategyKnowledgeGraph,
		StrategyMultimodal, StrategyExpertDomain:
		return true
	}
	return false
}

// StrategyParameters carries per-strategy tuning from the selector.
// Zero values mean "use the configured default".
type StrategyParameters struct {
	Stages        int      `json:"stages,omitempty"`
	GraphDepth    int      `json:"graph_depth,omitempty"`
	DomainFocus   string   `json:"domain_focus,omitempty"`
	ModalityTypes []string `json:"modality_types,omitempty"`
}

// RetrievalStrategy is the selector's decision for a single request.
type RetrievalStrategy struct {
	Kind       StrategyKind       `json:"kind"`
	Confidence float64            `json:"confidence"`
	Reasoning  string             `json:"reasoning"`
	Parameters StrategyParameters `json:"parameters"`
}

// FallbackStrategy is the deterministic default used whenever the
// selector's oracle call fails or returns something unparsable.
func FallbackStrategy() *RetrievalStrategy {
	return &RetrievalStrategy{
		Kind:       StrategySimple,
		Confidence: 0.5,
		Reasoning:  "fallback",
	}
}
