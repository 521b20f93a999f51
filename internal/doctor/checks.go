package doctor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dataworkshop/hubkit/internal/config"
	"github.com/dataworkshop/hubkit/internal/user"
	"github.com/spf13/afero"
)

// RosterCheck verifies the students file exists and lists at least one name.
type RosterCheck struct {
	BaseCheck
}

// NewRosterCheck creates a new roster check.
func NewRosterCheck() *RosterCheck {
	return &RosterCheck{
		BaseCheck: BaseCheck{
			CheckName:        "roster",
			CheckDescription: "Verify the student roster exists and is not empty",
		},
	}
}

// Run reads the roster.
func (c *RosterCheck) Run(ctx *CheckContext) *CheckResult {
	path := ctx.Config.Users.Students
	names, err := user.ReadRoster(ctx.Fs, path)
	switch {
	case errors.Is(err, user.ErrRosterNotFound):
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusError,
			Message: "Roster not found: " + path,
			FixHint: "Create it with one display name per line",
		}
	case errors.Is(err, user.ErrRosterEmpty):
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusError,
			Message: "Roster has no names: " + path,
			Details: []string{"Blank lines and lines starting with # are ignored"},
		}
	case err != nil:
		return &CheckResult{Name: c.Name(), Status: StatusError, Message: err.Error()}
	}

	return &CheckResult{
		Name:    c.Name(),
		Status:  StatusOK,
		Message: fmt.Sprintf("%d names in %s", len(names), path),
	}
}

// AdminPasswordCheck verifies the shared admin password file is usable.
type AdminPasswordCheck struct {
	BaseCheck
}

// NewAdminPasswordCheck creates a new admin password check.
func NewAdminPasswordCheck() *AdminPasswordCheck {
	return &AdminPasswordCheck{
		BaseCheck: BaseCheck{
			CheckName:        "admin-password",
			CheckDescription: "Verify the admin password file exists and is not blank",
		},
	}
}

// Run reads the password file.
func (c *AdminPasswordCheck) Run(ctx *CheckContext) *CheckResult {
	path := ctx.Config.Users.AdminPasswordFile
	if _, err := user.ReadAdminPassword(ctx.Fs, path); err != nil {
		res := &CheckResult{Name: c.Name(), Status: StatusError, Message: err.Error()}
		if errors.Is(err, user.ErrAdminPasswordNotFound) {
			res.FixHint = "Write the shared admin password to " + path
		}
		return res
	}

	res := &CheckResult{Name: c.Name(), Status: StatusOK, Message: "Admin password set"}
	if info, err := ctx.Fs.Stat(path); err == nil && info.Mode().Perm()&0o077 != 0 {
		res.Status = StatusWarning
		res.Message = fmt.Sprintf("Admin password file is readable by others (%s)", info.Mode().Perm())
		res.FixHint = "chmod 600 " + path
	}
	return res
}

// OutputDirCheck verifies the credential output directory is writable.
type OutputDirCheck struct {
	FixableCheck
}

// NewOutputDirCheck creates a new output directory check.
func NewOutputDirCheck() *OutputDirCheck {
	return &OutputDirCheck{
		FixableCheck: FixableCheck{
			BaseCheck: BaseCheck{
				CheckName:        "output-dir",
				CheckDescription: "Verify the credential output directory is writable",
			},
		},
	}
}

// Run probes the directory with a temporary file.
func (c *OutputDirCheck) Run(ctx *CheckContext) *CheckResult {
	dir := ctx.Config.Users.Dir
	info, err := ctx.Fs.Stat(dir)
	if os.IsNotExist(err) {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusWarning,
			Message: "Output directory does not exist: " + dir,
			FixHint: "Run 'hubkit doctor --fix' or let 'hubkit credentials' create it",
		}
	}
	if err != nil {
		return &CheckResult{Name: c.Name(), Status: StatusError, Message: err.Error()}
	}
	if !info.IsDir() {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusError,
			Message: "Output path is not a directory: " + dir,
		}
	}

	f, err := afero.TempFile(ctx.Fs, dir, ".hubkit-probe-*")
	if err != nil {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusError,
			Message: "Output directory is not writable: " + dir,
			Details: []string{err.Error()},
		}
	}
	name := f.Name()
	_ = f.Close()
	_ = ctx.Fs.Remove(name)

	return &CheckResult{Name: c.Name(), Status: StatusOK, Message: "Output directory is writable"}
}

// Fix creates the output directory.
func (c *OutputDirCheck) Fix(ctx *CheckContext) error {
	return ctx.Fs.MkdirAll(ctx.Config.Users.Dir, 0755)
}

// CredentialTableCheck reports on the last generated users.csv.
type CredentialTableCheck struct {
	BaseCheck
}

// NewCredentialTableCheck creates a new credential table check.
func NewCredentialTableCheck() *CredentialTableCheck {
	return &CredentialTableCheck{
		BaseCheck: BaseCheck{
			CheckName:        "credentials",
			CheckDescription: "Verify credentials have been generated",
		},
	}
}

// Run parses users.csv and compares it against the allowlist.
func (c *CredentialTableCheck) Run(ctx *CheckContext) *CheckResult {
	path := filepath.Join(ctx.Config.Users.Dir, user.UsersFileName)
	if exists, _ := afero.Exists(ctx.Fs, path); !exists {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusWarning,
			Message: "No credentials generated yet",
			FixHint: "Run 'hubkit credentials'",
		}
	}

	creds, err := user.ReadCredentialTable(ctx.Fs, path)
	if err != nil {
		return &CheckResult{Name: c.Name(), Status: StatusError, Message: err.Error()}
	}

	admins := 0
	for _, cr := range creds {
		if cr.Admin {
			admins++
		}
	}
	res := &CheckResult{
		Name:    c.Name(),
		Status:  StatusOK,
		Message: fmt.Sprintf("%d accounts (%d admin)", len(creds), admins),
	}

	allowPath := filepath.Join(ctx.Config.Users.Dir, user.AllowlistFileName)
	allowed, err := user.ReadLines(ctx.Fs, allowPath)
	if err != nil {
		res.Status = StatusWarning
		res.Details = append(res.Details, "allowlist missing: "+allowPath)
		res.FixHint = "Run 'hubkit credentials' to regenerate the lists"
		return res
	}
	if want := user.SortedUnique(user.Usernames(creds)); len(allowed) != len(want) {
		res.Status = StatusWarning
		res.Details = append(res.Details,
			fmt.Sprintf("allowlist has %d users, users.csv has %d", len(allowed), len(want)))
		res.FixHint = "Run 'hubkit credentials' to regenerate the lists"
	}
	if admins == 0 {
		res.Status = StatusWarning
		res.Details = append(res.Details, "no admin account in users.csv")
	}
	return res
}

// DatasetDirCheck verifies the upload source directory exists.
type DatasetDirCheck struct {
	BaseCheck
}

// NewDatasetDirCheck creates a new dataset directory check.
func NewDatasetDirCheck() *DatasetDirCheck {
	return &DatasetDirCheck{
		BaseCheck: BaseCheck{
			CheckName:        "dataset",
			CheckDescription: "Verify the dataset directory exists",
		},
	}
}

// Run counts the regular files that bootstrap would upload.
func (c *DatasetDirCheck) Run(ctx *CheckContext) *CheckResult {
	dir := ctx.Config.Storage.Dir
	entries, err := afero.ReadDir(ctx.Fs, dir)
	if err != nil {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusError,
			Message: "Dataset directory not found: " + dir,
			FixHint: "Place the CSV files under " + dir,
		}
	}

	files := 0
	for _, e := range entries {
		if e.Mode().IsRegular() {
			files++
		}
	}
	if files == 0 {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusWarning,
			Message: "Dataset directory is empty: " + dir,
		}
	}
	return &CheckResult{
		Name:    c.Name(),
		Status:  StatusOK,
		Message: fmt.Sprintf("%d files to upload from %s", files, dir),
	}
}

// StorageSecretCheck verifies the object store secret is configured.
type StorageSecretCheck struct {
	BaseCheck
}

// NewStorageSecretCheck creates a new storage secret check.
func NewStorageSecretCheck() *StorageSecretCheck {
	return &StorageSecretCheck{
		BaseCheck: BaseCheck{
			CheckName:        "storage-secret",
			CheckDescription: "Verify the object store secret key is set",
		},
	}
}

// Run checks the configured secret.
func (c *StorageSecretCheck) Run(ctx *CheckContext) *CheckResult {
	if err := ctx.Config.Storage.RequireSecret(); err != nil {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusError,
			Message: err.Error(),
			FixHint: "Export " + config.EnvStoragePassword + " or add it to .env",
		}
	}
	return &CheckResult{
		Name:    c.Name(),
		Status:  StatusOK,
		Message: "Object store credentials set for " + ctx.Config.Storage.AccessKey,
	}
}
