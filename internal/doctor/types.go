// Package doctor runs preflight checks against the workshop layout before a
// session: inputs present, output writable, storage credentials set.
package doctor

import (
	"errors"

	"github.com/dataworkshop/hubkit/internal/config"
	"github.com/spf13/afero"
)

// ErrCannotFix is returned by Fix on checks that have no automatic repair.
var ErrCannotFix = errors.New("check cannot be fixed automatically")

// CheckStatus is the outcome of a single check.
type CheckStatus int

const (
	StatusOK CheckStatus = iota
	StatusWarning
	StatusError
)

// String returns the lowercase status name.
func (s CheckStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarning:
		return "warning"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// CheckContext carries what a check may inspect.
type CheckContext struct {
	Config *config.Config
	Fs     afero.Fs
}

// CheckResult is what a check reports.
type CheckResult struct {
	Name    string
	Status  CheckStatus
	Message string
	Details []string
	FixHint string
}

// Check is a single preflight check.
type Check interface {
	Name() string
	Description() string
	Run(ctx *CheckContext) *CheckResult
	CanFix() bool
	Fix(ctx *CheckContext) error
}

// BaseCheck supplies the name and description of a check that cannot fix.
type BaseCheck struct {
	CheckName        string
	CheckDescription string
}

func (b *BaseCheck) Name() string        { return b.CheckName }
func (b *BaseCheck) Description() string { return b.CheckDescription }
func (b *BaseCheck) CanFix() bool        { return false }

// Fix always returns ErrCannotFix.
func (b *BaseCheck) Fix(*CheckContext) error { return ErrCannotFix }

// FixableCheck is embedded by checks that implement Fix.
type FixableCheck struct {
	BaseCheck
}

func (f *FixableCheck) CanFix() bool { return true }
