// Package check validates a planned storage configuration against a
// set of constraints. Checks never fail hard: every finding is
// collected into a report and the caller decides what to do with it.
package check

// Report collects the findings of one checker run.
type Report struct {
	Info     []string
	Errors   []string
	Warnings []string
}

// Valid reports whether the configuration passed, i.e. no errors
// were found. Warnings do not invalidate a configuration.
func (r *Report) Valid() bool {
	return len(r.Errors) == 0
}

func (r *Report) AddInfo(msg string) {
	r.Info = append(r.Info, msg)
}

func (r *Report) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

func (r *Report) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Merge appends the findings of another report.
func (r *Report) Merge(other *Report) {
	r.Info = append(r.Info, other.Info...)
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}
