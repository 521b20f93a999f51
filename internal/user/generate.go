package user

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

var (
	// ErrRosterNotFound indicates the roster file does not exist.
	ErrRosterNotFound = errors.New("roster not found")

	// ErrRosterEmpty indicates the roster has no names.
	ErrRosterEmpty = errors.New("roster has no names")

	// ErrAdminPasswordNotFound indicates the admin password file does not exist.
	ErrAdminPasswordNotFound = errors.New("admin password file not found")

	// ErrAdminPasswordEmpty indicates the admin password file is blank.
	ErrAdminPasswordEmpty = errors.New("admin password file is empty")

	// ErrOutputLocked indicates another run holds the output directory.
	ErrOutputLocked = errors.New("output directory is locked by another run")
)

// GenerateOptions describes one credential generation run.
type GenerateOptions struct {
	// RosterPath is the students file, one display name per line.
	RosterPath string

	// Admins are admin display names; they are allocated before the roster.
	Admins []string

	// AdminPasswordFile holds the shared admin password.
	AdminPasswordFile string

	// OutDir receives users.csv, its timestamped backup and the lists.
	OutDir string

	// Reserved usernames are never handed out.
	Reserved []string

	// PasswordLength defaults to DefaultPasswordLength.
	PasswordLength int
}

// Generator turns a roster into credential artifacts.
type Generator struct {
	fs       afero.Fs
	now      func() time.Time
	password func(int) (string, error)
	logger   *log.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithFs sets the filesystem. Locking only applies to the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(g *Generator) {
		g.fs = fs
	}
}

// WithClock sets the time source used for the backup file name.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithPasswordFunc replaces the random password source.
func WithPasswordFunc(fn func(int) (string, error)) Option {
	return func(g *Generator) {
		g.password = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(g *Generator) {
		g.logger = l
	}
}

// NewGenerator creates a Generator writing to the OS filesystem by default.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		fs:       afero.NewOsFs(),
		now:      time.Now,
		password: RandomPassword,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Build reads the inputs and allocates credentials without writing anything.
func (g *Generator) Build(opts GenerateOptions) ([]Credential, error) {
	names, err := ReadRoster(g.fs, opts.RosterPath)
	if err != nil {
		return nil, err
	}

	adminPassword, err := ReadAdminPassword(g.fs, opts.AdminPasswordFile)
	if err != nil {
		return nil, err
	}

	length := opts.PasswordLength
	if length == 0 {
		length = DefaultPasswordLength
	}

	admins := cleanNames(opts.Admins)
	adminSet := make(map[string]bool, len(admins))
	for _, a := range admins {
		adminSet[a] = true
	}

	all := make([]string, 0, len(admins)+len(names))
	all = append(all, admins...)
	all = append(all, names...)

	usernames := NewAllocator(opts.Reserved...).AllocateAll(all)

	creds := make([]Credential, len(all))
	for i, name := range all {
		c := Credential{
			Name:     name,
			Username: usernames[i],
			Admin:    adminSet[name],
		}
		if c.Admin {
			c.Password = adminPassword
		} else {
			pw, err := g.password(length)
			if err != nil {
				return nil, fmt.Errorf("generating password for %s: %w", c.Username, err)
			}
			c.Password = pw
		}
		creds[i] = c
	}

	return creds, nil
}

// cleanNames trims names and drops blank ones.
func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Generate builds credentials and writes users.csv, the timestamped backup,
// allowlist.txt and admins.txt to OutDir. Writes are not transactional; a
// failure partway leaves the files written so far in place.
func (g *Generator) Generate(opts GenerateOptions) (*Result, error) {
	if err := g.fs.MkdirAll(opts.OutDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	unlock, err := g.lock(opts.OutDir)
	if err != nil {
		return nil, err
	}
	defer unlock()

	creds, err := g.Build(opts)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:       uuid.NewString(),
		Credentials: creds,
	}
	logger := g.logger.With("run", res.RunID)

	backup := filepath.Join(opts.OutDir, "users-"+g.now().Format(backupLayout)+".csv")
	for _, path := range []string{filepath.Join(opts.OutDir, UsersFileName), backup} {
		if err := writeCredentialTable(g.fs, path, creds); err != nil {
			return res, err
		}
		res.Files = append(res.Files, path)
		logger.Debug("wrote credential table", "path", path, "rows", len(creds))
	}

	var admins []string
	for _, c := range creds {
		if c.Admin {
			admins = append(admins, c.Username)
		}
	}

	lists := []struct {
		name  string
		users []string
	}{
		{AllowlistFileName, Usernames(creds)},
		{AdminsFileName, admins},
	}
	for _, l := range lists {
		path := filepath.Join(opts.OutDir, l.name)
		if err := writeUserList(g.fs, path, l.users); err != nil {
			return res, err
		}
		res.Files = append(res.Files, path)
		logger.Debug("wrote user list", "path", path)
	}

	logger.Info("generated credentials", "users", len(creds), "admins", len(admins))
	return res, nil
}

// lock takes an exclusive flock on the output directory. Non-OS filesystems
// have nothing to lock against.
func (g *Generator) lock(dir string) (func(), error) {
	if _, ok := g.fs.(*afero.OsFs); !ok {
		return func() {}, nil
	}

	fl := flock.New(filepath.Join(dir, LockFileName))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking output directory: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrOutputLocked, dir)
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			g.logger.Warn("releasing output lock", "err", err)
		}
	}, nil
}
