package hub

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dataworkshop/hubkit/internal/config"
	"github.com/dataworkshop/hubkit/internal/user"
	"github.com/spf13/afero"
)

// LoadOptions locates the credential generator outputs.
type LoadOptions struct {
	Fs afero.Fs

	// UsersDir holds allowlist.txt and admins.txt.
	UsersDir string
}

// Load builds Settings from cfg and the allow/admin lists in UsersDir.
// Missing list files are skipped. An empty allow-list leaves AllowedUsers
// unset so the authenticator's own policy applies.
func Load(cfg config.Hub, opts LoadOptions) (*Settings, error) {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	s := &Settings{
		BindURL:       cfg.BindURL,
		Authenticator: cfg.Authenticator,
		Spawner:       cfg.Spawner,
		DefaultURL:    cfg.DefaultURL,
		HTTPTimeout:   cfg.HTTPTimeout,
		StartTimeout:  cfg.StartTimeout,
	}
	s.SpawnerClass, _ = SpawnerClassFor(cfg.Spawner)

	allowed, err := readOptionalList(fs, filepath.Join(opts.UsersDir, user.AllowlistFileName))
	if err != nil {
		return nil, err
	}
	if len(allowed) > 0 {
		s.AllowedUsers = user.SortedUnique(allowed)
	}

	admins, err := readOptionalList(fs, filepath.Join(opts.UsersDir, user.AdminsFileName))
	if err != nil {
		return nil, err
	}
	admins = append(admins, cfg.ExtraAdmins...)
	if len(admins) > 0 {
		s.AdminUsers = user.SortedUnique(admins)
	}

	if cfg.Spawner == SpawnerDocker {
		d, err := dockerSettings(cfg.Docker)
		if err != nil {
			return nil, err
		}
		s.Docker = d
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func dockerSettings(cfg config.Docker) (*DockerSettings, error) {
	root := cfg.HostProjectRoot
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving host project root: %w", err)
		}
		root = wd
	}

	return &DockerSettings{
		Image:         cfg.Image,
		Network:       cfg.Network,
		UseInternalIP: cfg.UseInternalIP,
		HubConnectIP:  cfg.HubConnectIP,
		Remove:        cfg.Remove,
		Volumes: []Volume{
			{Source: "work-{username}", Bind: cfg.WorkMount, Mode: "rw"},
			{Source: filepath.Join(root, "dataset"), Bind: cfg.DatasetMount, Mode: "ro"},
		},
	}, nil
}

func readOptionalList(fs afero.Fs, path string) ([]string, error) {
	lines, err := user.ReadLines(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return lines, nil
}
