package retrieval

import (
	"fmt"
	"strings"
)

// NoInfoMarker is the context block used when retrieval finds nothing
// relevant. The prompt instructs the model to acknowledge the gap instead of
// inventing hospital facts.
const NoInfoMarker = "No relevant hospital information was found for this question."

// contextHeader opens every non-empty context block.
const contextHeader = "RELEVANT HOSPITAL INFORMATION:"

// DefaultContextBudget caps the assembled context block, in characters.
const DefaultContextBudget = 4000

// ContextAssembler renders retrieval results into the context block handed
// to the answer prompt.
type ContextAssembler struct {
	budget int
}

// NewContextAssembler creates an assembler with the given character budget.
// Zero or negative selects the default.
func NewContextAssembler(budget int) *ContextAssembler {
	if budget <= 0 {
		budget = DefaultContextBudget
	}
	return &ContextAssembler{budget: budget}
}

// Assemble renders the results in descending relevance order, admitting
// whole entries until the next one would overflow the budget. No admitted
// entry is ever cut mid-text. Empty results, or a budget too small for even
// the first entry, produce the no-information marker.
func (a *ContextAssembler) Assemble(results []Result) string {
	if len(results) == 0 {
		return NoInfoMarker
	}

	var sb strings.Builder
	sb.WriteString(contextHeader)
	sb.WriteString("\n")

	admitted := 0
	for _, res := range results {
		segment := fmt.Sprintf("\n%d. [%s] | %s | (score: %.3f)\n%s\n",
			admitted+1,
			strings.ToUpper(string(res.Entry.Kind)),
			res.Entry.Name,
			res.Score,
			res.Entry.Text,
		)
		if sb.Len()+len(segment) > a.budget {
			break
		}
		sb.WriteString(segment)
		admitted++
	}

	if admitted == 0 {
		return NoInfoMarker
	}
	return sb.String()
}
