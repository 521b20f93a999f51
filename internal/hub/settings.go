// Package hub models the JupyterHub settings of the workshop and renders them
// for the Hub process to load at startup.
package hub

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Spawner backends.
const (
	SpawnerLocal  = "local"
	SpawnerDocker = "docker"
)

// Spawner classes for each backend.
var spawnerClasses = map[string]string{
	SpawnerLocal:  "jupyterhub.spawner.LocalProcessSpawner",
	SpawnerDocker: "dockerspawner.DockerSpawner",
}

// Authenticators recognized by the rendered config.
var Authenticators = []string{
	"jupyterhub.auth.PAMAuthenticator",
	"jupyterhub.auth.DummyAuthenticator",
	"nativeauthenticator.NativeAuthenticator",
}

// ErrDockerSettings indicates the docker spawner is selected without its
// required settings.
var ErrDockerSettings = errors.New("docker spawner settings incomplete")

// Settings is the set of Hub options hubkit manages.
type Settings struct {
	BindURL       string   `yaml:"bind_url" validate:"required"`
	Authenticator string   `yaml:"authenticator_class" validate:"required,oneof=jupyterhub.auth.PAMAuthenticator jupyterhub.auth.DummyAuthenticator nativeauthenticator.NativeAuthenticator"`
	AllowedUsers  []string `yaml:"allowed_users,omitempty" validate:"dive,required"`
	AdminUsers    []string `yaml:"admin_users,omitempty" validate:"dive,required"`
	Spawner       string   `yaml:"spawner" validate:"oneof=local docker"`
	SpawnerClass  string   `yaml:"spawner_class"`
	DefaultURL    string   `yaml:"default_url,omitempty"`

	// Timeouts in seconds, raised for first-run image pulls.
	HTTPTimeout  int `yaml:"http_timeout" validate:"min=1"`
	StartTimeout int `yaml:"start_timeout" validate:"min=1"`

	Docker *DockerSettings `yaml:"docker,omitempty" validate:"-"`
}

// DockerSettings configures per-user containers.
type DockerSettings struct {
	Image         string   `yaml:"image" validate:"required"`
	Network       string   `yaml:"network_name" validate:"required"`
	UseInternalIP bool     `yaml:"use_internal_ip"`
	HubConnectIP  string   `yaml:"hub_connect_ip" validate:"required"`
	Remove        bool     `yaml:"remove"`
	Volumes       []Volume `yaml:"volumes" validate:"dive"`
}

// Volume maps a named volume or host path into the user container.
// Source may contain the {username} placeholder expanded by the spawner.
type Volume struct {
	Source string `yaml:"source" validate:"required"`
	Bind   string `yaml:"bind" validate:"required,startswith=/"`
	Mode   string `yaml:"mode" validate:"oneof=rw ro"`
}

// Validate checks s against the recognized options.
func (s *Settings) Validate() error {
	v := validator.New()
	if err := v.Struct(s); err != nil {
		return fmt.Errorf("invalid hub settings: %w", err)
	}
	if s.Spawner != SpawnerDocker {
		return nil
	}
	if s.Docker == nil {
		return ErrDockerSettings
	}
	if err := v.Struct(s.Docker); err != nil {
		return fmt.Errorf("%w: %w", ErrDockerSettings, err)
	}
	return nil
}

// SpawnerClassFor returns the spawner class of a backend name.
func SpawnerClassFor(backend string) (string, bool) {
	cls, ok := spawnerClasses[backend]
	return cls, ok
}
