package policy

import (
	"time"
)

// Severity represents the severity level of a policy violation.
type Severity string

const (
	// SeverityInfo is for informational notes.
	SeverityInfo Severity = "info"

	// SeverityWarning is for issues that should be reviewed.
	SeverityWarning Severity = "warning"

	// SeverityError blocks a lint run.
	SeverityError Severity = "error"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError:
		return true
	}
	return false
}

// Rank orders severities from least to most severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityInfo:
		return 0
	case SeverityWarning:
		return 1
	case SeverityError:
		return 2
	}
	return -1
}

// Policy is a Rego module whose deny set reports authoring problems in a
// resolved site configuration.
type Policy struct {
	// Name is the unique name of the policy.
	Name string `json:"name"`

	// Description provides a human-readable description.
	Description string `json:"description"`

	// Rego contains the Rego policy code.
	Rego string `json:"rego"`

	// Severity is the default severity for violations.
	Severity Severity `json:"severity"`

	// Enabled indicates if the policy is active.
	Enabled bool `json:"enabled"`

	// Tags are labels for organizing policies.
	Tags []string `json:"tags,omitempty"`

	// Source is the file the policy was loaded from. Empty for built-ins.
	Source string `json:"source,omitempty"`
}

// Violation is a single deny result.
type Violation struct {
	// Policy is the name of the policy that was violated.
	Policy string `json:"policy"`

	// Path locates the offending value ("theme.socialLinks[0].link").
	Path string `json:"path,omitempty"`

	// Message is a human-readable violation message.
	Message string `json:"message"`

	// Severity is the violation severity level.
	Severity Severity `json:"severity"`
}

// Result is the outcome of evaluating every enabled policy.
type Result struct {
	// Allowed is false when any violation has error severity.
	Allowed bool `json:"allowed"`

	// Violations lists all policy violations, most severe first.
	Violations []Violation `json:"violations,omitempty"`

	// Failures lists policies that could not be evaluated.
	Failures []string `json:"failures,omitempty"`

	// EvaluatedPolicies lists the names of policies that were evaluated.
	EvaluatedPolicies []string `json:"evaluated_policies"`

	// EvaluatedAt is when the policies were evaluated.
	EvaluatedAt time.Time `json:"evaluated_at"`

	// Duration is how long the evaluation took.
	Duration time.Duration `json:"duration"`
}

// Summary counts violations by severity.
func (r *Result) Summary() map[Severity]int {
	counts := map[Severity]int{
		SeverityInfo:    0,
		SeverityWarning: 0,
		SeverityError:   0,
	}
	for _, v := range r.Violations {
		counts[v.Severity]++
	}
	return counts
}

// Input is the document policies are evaluated against. The site is the
// resolved configuration in its JSON form.
type Input struct {
	Site    map[string]interface{} `json:"site"`
	Context *Context               `json:"context"`
}

// Context describes the lint run.
type Context struct {
	// ConfigFile is the configuration file being linted, if any.
	ConfigFile string `json:"config_file,omitempty"`

	// Environment is a free-form label such as "ci".
	Environment string `json:"environment,omitempty"`

	// Timestamp is when the evaluation is occurring.
	Timestamp time.Time `json:"timestamp"`
}

// PolicyBundle is a JSON file holding several policies.
type PolicyBundle struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Policies    []Policy `json:"policies"`
}
