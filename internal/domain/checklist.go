package domain

// Point is the smallest checklist item that receives a score and supporting evidence.
type Point struct {
	ID                  string `json:"id" yaml:"id"`
	Text                string `json:"text" yaml:"text"`
	EvidenceExpectation string `json:"evidenceExpectation" yaml:"evidence"`
}

type Element struct {
	ID          string  `json:"id" yaml:"id"`
	Title       string  `json:"title" yaml:"title"`
	Description string  `json:"description" yaml:"description"`
	Points      []Point `json:"points" yaml:"points"`
}

type Standard struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	ShortTitle  string    `json:"shortTitle" yaml:"shortTitle"`
	Description string    `json:"description" yaml:"description"`
	Elements    []Element `json:"elements" yaml:"elements"`
}
