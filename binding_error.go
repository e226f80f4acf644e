package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// BindingIssue represents a single streaming failure of a live binding.
// It implements error and unwraps to the underlying cause so callers can use
// errors.Is/As.
type BindingIssue struct {
	Path  string // chain the failure occurred on (e.g., Person.Address.City)
	Stage string // binding direction or stage that failed
	Err   error  // underlying error
}

func (e BindingIssue) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Path, e.Err, e.Stage)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Err)
}

func (e BindingIssue) Unwrap() error { return e.Err }

// MarshalJSON exports BindingIssue as an object with path, stage, and
// message fields.
func (e BindingIssue) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(struct {
		Path    string `json:"path"`
		Stage   string `json:"stage,omitempty"`
		Message string `json:"message"`
	}{
		Path:    e.Path,
		Stage:   e.Stage,
		Message: msg,
	})
}

// BindingError accumulates BindingIssue entries: the error channel of a live
// binding. A single bad value is recorded here instead of tearing the
// binding down. It implements error and unwraps to errors.Join of the
// underlying causes so errors.Is/As continue to work for callers.
type BindingError struct {
	mu     sync.Mutex
	issues []BindingIssue
}

// Add appends a BindingIssue.
func (be *BindingError) Add(issue BindingIssue) {
	if be == nil {
		return
	}
	be.mu.Lock()
	be.issues = append(be.issues, issue)
	be.mu.Unlock()
}

// Len returns the number of accumulated issues.
func (be *BindingError) Len() int {
	if be == nil {
		return 0
	}
	be.mu.Lock()
	n := len(be.issues)
	be.mu.Unlock()
	return n
}

// Empty reports whether there are no issues.
func (be *BindingError) Empty() bool { return be.Len() == 0 }

// Issues returns a copy of the accumulated issues.
func (be *BindingError) Issues() []BindingIssue {
	if be == nil {
		return nil
	}
	be.mu.Lock()
	defer be.mu.Unlock()
	out := make([]BindingIssue, len(be.issues))
	copy(out, be.issues)
	return out
}

// Error returns a human-readable, multi-line description of all issues.
func (be *BindingError) Error() string {
	if be == nil {
		return ""
	}
	be.mu.Lock()
	defer be.mu.Unlock()
	switch len(be.issues) {
	case 0:
		return ""
	case 1:
		return be.issues[0].Error()
	default:
		var b strings.Builder
		b.WriteString("binding failed (\n")
		for i, issue := range be.issues {
			b.WriteString("  ")
			b.WriteString(issue.Error())
			if i < len(be.issues)-1 {
				b.WriteString("\n")
			}
		}
		b.WriteString("\n)")
		return b.String()
	}
}

// Unwrap joins underlying causes so errors.Is/As keep working on the
// combined error.
func (be *BindingError) Unwrap() error {
	if be == nil {
		return nil
	}
	be.mu.Lock()
	defer be.mu.Unlock()
	errs := make([]error, 0, len(be.issues))
	for _, issue := range be.issues {
		if issue.Err != nil {
			errs = append(errs, issue.Err)
		}
	}
	return errors.Join(errs...)
}

// ForPath returns all issues recorded for a given chain path.
func (be *BindingError) ForPath(path string) []BindingIssue {
	if be == nil {
		return nil
	}
	be.mu.Lock()
	defer be.mu.Unlock()
	var out []BindingIssue
	for _, issue := range be.issues {
		if issue.Path == path {
			out = append(out, issue)
		}
	}
	return out
}

// MarshalJSON exports BindingError as a map of chain path -> list of error
// messages.
func (be *BindingError) MarshalJSON() ([]byte, error) {
	if be == nil {
		return []byte("null"), nil
	}
	be.mu.Lock()
	defer be.mu.Unlock()
	by := make(map[string][]string, len(be.issues))
	for _, issue := range be.issues {
		msg := ""
		if issue.Err != nil {
			msg = issue.Err.Error()
		}
		by[issue.Path] = append(by[issue.Path], msg)
	}
	return json.Marshal(by)
}
