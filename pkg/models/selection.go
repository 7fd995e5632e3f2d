package models

// SelectionStatus describes the quality of a selection run's outcome.
type SelectionStatus string

const (
	// SelectionOptimal means the solver proved the selected subset optimal.
	SelectionOptimal SelectionStatus = "optimal"
	// SelectionIncumbent means the solver stopped early (deadline or node
	// cap) and the result is the best feasible subset found, not proven
	// optimal. Usable, but flagged.
	SelectionIncumbent SelectionStatus = "incumbent"
)

// SelectionResult is the terminal artifact of a run: the chosen response
// groups and the achieved objective value. Immutable once produced.
type SelectionResult struct {
	RunID     string          `json:"run_id"`
	Selected  []GroupKey      `json:"-"`
	Labels    []string        `json:"selected"`
	Objective float64         `json:"objective"`
	Status    SelectionStatus `json:"status"`
}

// NewSelectionResult builds a result with keys in canonical order and their
// artifact labels precomputed.
func NewSelectionResult(runID string, selected []GroupKey, objective float64, status SelectionStatus) *SelectionResult {
	SortKeys(selected)
	labels := make([]string, len(selected))
	for i, k := range selected {
		labels[i] = k.Label()
	}
	return &SelectionResult{
		RunID:     runID,
		Selected:  selected,
		Labels:    labels,
		Objective: objective,
		Status:    status,
	}
}
