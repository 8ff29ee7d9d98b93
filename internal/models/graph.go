package models

// GraphRelationship is a single weighted edge from one graph entity to
// another. Target holds the related entity's ID.
type GraphRelationship struct {
	Target   string  `json:"target"`
	Relation string  `json:"relation"`
	Strength float64 `json:"strength"`
}

// GraphEntity is a node in the knowledge graph. The graph is populated by
// an external collaborator; the retrieval engine only reads and traverses
// it.
type GraphEntity struct {
	ID             string              `json:"id" badgerhold:"key"`
	Name           string              `json:"name"`
	NormalizedName string              `json:"normalized_name" badgerholdIndex:"NormalizedName"`
	Type           string              `json:"type,omitempty"`
	Properties     map[string]string   `json:"properties,omitempty"`
	Relationships  []GraphRelationship `json:"relationships,omitempty"`
}
