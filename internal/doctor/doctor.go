package doctor

import "github.com/charmbracelet/log"

// Report collects the results of a doctor run.
type Report struct {
	Results []*CheckResult
	Fixed   []string
}

// Count returns the number of results with status s.
func (r *Report) Count(s CheckStatus) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// HasErrors reports whether any check failed.
func (r *Report) HasErrors() bool {
	return r.Count(StatusError) > 0
}

// Doctor runs a list of checks in order.
type Doctor struct {
	checks []Check
	logger *log.Logger
}

// NewDoctor creates a Doctor with no checks registered.
func NewDoctor(logger *log.Logger) *Doctor {
	if logger == nil {
		logger = log.Default()
	}
	return &Doctor{logger: logger}
}

// Register appends checks.
func (d *Doctor) Register(checks ...Check) {
	d.checks = append(d.checks, checks...)
}

// Run executes every check.
func (d *Doctor) Run(ctx *CheckContext) *Report {
	report := &Report{}
	for _, c := range d.checks {
		res := c.Run(ctx)
		d.logger.Debug("check finished", "check", c.Name(), "status", res.Status)
		report.Results = append(report.Results, res)
	}
	return report
}

// Fix executes every check and, for failing checks that can fix, attempts
// the repair and runs the check again.
func (d *Doctor) Fix(ctx *CheckContext) *Report {
	report := &Report{}
	for _, c := range d.checks {
		res := c.Run(ctx)
		if res.Status != StatusOK && c.CanFix() {
			if err := c.Fix(ctx); err != nil {
				d.logger.Warn("fix failed", "check", c.Name(), "err", err)
			} else {
				report.Fixed = append(report.Fixed, c.Name())
				res = c.Run(ctx)
			}
		}
		report.Results = append(report.Results, res)
	}
	return report
}

// DefaultChecks returns the workshop preflight checks.
func DefaultChecks() []Check {
	return []Check{
		NewRosterCheck(),
		NewAdminPasswordCheck(),
		NewOutputDirCheck(),
		NewCredentialTableCheck(),
		NewDatasetDirCheck(),
		NewStorageSecretCheck(),
	}
}
