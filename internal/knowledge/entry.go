package knowledge

import "fmt"

// Kind classifies a knowledge base entry.
type Kind string

const (
	KindGeneral    Kind = "general"    // Hospital-wide information (location, contacts, services).
	KindDepartment Kind = "department" // A clinical department and its offering.
	KindDoctor     Kind = "doctor"     // An individual doctor profile.
	KindProcedure  Kind = "procedure"  // A medical procedure or treatment.
)

// Entry is one indexed unit of hospital knowledge. Entries are immutable
// after the index build; the query path only ever reads them.
type Entry struct {
	ID       string            `json:"id"`
	Kind     Kind              `json:"kind"`
	Name     string            `json:"name"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Vector   []float32         `json:"vector,omitempty"`
}

// Validate reports whether the entry is complete enough to be indexed.
func (e *Entry) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("entry has no id")
	}
	switch e.Kind {
	case KindGeneral, KindDepartment, KindDoctor, KindProcedure:
	default:
		return fmt.Errorf("entry '%s' has unknown kind '%s'", e.ID, e.Kind)
	}
	if e.Text == "" {
		return fmt.Errorf("entry '%s' has no text", e.ID)
	}
	return nil
}
