// Package config loads the workshop configuration: defaults, an optional
// hubkit.toml file, a .env file and environment overrides, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// EnvConfigPath points at the config file when --config is not given.
const EnvConfigPath = "HUBKIT_CONFIG"

// DefaultConfigFile is looked up in the working directory.
const DefaultConfigFile = "hubkit.toml"

// Environment variables read by ApplyEnv.
const (
	EnvAdminUsers      = "JUPYTERHUB_ADMIN_USERS"
	EnvSpawnImage      = "JUPYTER_SPAWN_IMAGE"
	EnvNetworkName     = "DOCKER_NETWORK_NAME"
	EnvHostProjectRoot = "HOST_PROJECT_ROOT"
	EnvStorageEndpoint = "MINIO_ENDPOINT"
	EnvStorageUser     = "MINIO_ROOT_USER"
	EnvStoragePassword = "MINIO_ROOT_PASSWORD"
	EnvSparkHome       = "SPARK_HOME"
)

// ErrMissingSecret indicates the storage secret key is not configured.
var ErrMissingSecret = errors.New(EnvStoragePassword + " environment variable not set")

// Config is the whole workshop configuration.
type Config struct {
	Users   Users   `toml:"users"`
	Hub     Hub     `toml:"hub"`
	Jars    Jars    `toml:"jars"`
	Storage Storage `toml:"storage"`
}

// Users configures credential generation.
type Users struct {
	// Dir receives users.csv, allowlist.txt and admins.txt.
	Dir string `toml:"dir" validate:"required"`

	// Students is the roster file.
	Students string `toml:"students" validate:"required"`

	// AdminPasswordFile holds the shared admin password.
	AdminPasswordFile string `toml:"admin_password_file" validate:"required"`

	// Admins are admin display names.
	Admins []string `toml:"admins"`

	// Reserved usernames are never allocated.
	Reserved []string `toml:"reserved"`

	PasswordLength int `toml:"password_length" validate:"min=8,max=128"`
}

// Hub configures the rendered JupyterHub settings.
type Hub struct {
	BindURL       string `toml:"bind_url" validate:"required"`
	Authenticator string `toml:"authenticator" validate:"required"`
	Spawner       string `toml:"spawner" validate:"oneof=local docker"`
	DefaultURL    string `toml:"default_url"`
	HTTPTimeout   int    `toml:"http_timeout" validate:"min=1"`
	StartTimeout  int    `toml:"start_timeout" validate:"min=1"`

	// ExtraAdmins comes from JUPYTERHUB_ADMIN_USERS and is merged with
	// admins.txt.
	ExtraAdmins []string `toml:"-"`

	Docker Docker `toml:"docker"`
}

// Docker configures the per-user container spawner.
type Docker struct {
	Image           string `toml:"image"`
	Network         string `toml:"network"`
	HubConnectIP    string `toml:"hub_connect_ip"`
	UseInternalIP   bool   `toml:"use_internal_ip"`
	Remove          bool   `toml:"remove"`
	HostProjectRoot string `toml:"host_project_root"`
	WorkMount       string `toml:"work_mount"`
	DatasetMount    string `toml:"dataset_mount"`
}

// Jars configures the Spark S3 connector downloads.
type Jars struct {
	BaseURL       string `toml:"base_url" validate:"required,url"`
	HadoopVersion string `toml:"hadoop_version" validate:"required"`
	AWSSDKVersion string `toml:"aws_sdk_version" validate:"required"`
	SparkHome     string `toml:"spark_home"`
	Python        string `toml:"python" validate:"required"`
}

// Storage configures the object-store bootstrap.
type Storage struct {
	Endpoint  string        `toml:"endpoint" validate:"required,url"`
	AccessKey string        `toml:"access_key" validate:"required"`
	SecretKey string        `toml:"-"`
	Region    string        `toml:"region" validate:"required"`
	Bucket    string        `toml:"bucket" validate:"required"`
	Dir       string        `toml:"dir" validate:"required"`
	Prefix    string        `toml:"prefix"`
	Attempts  int           `toml:"attempts" validate:"min=1"`
	Delay     time.Duration `toml:"delay"`
}

// Default returns the configuration of the reference workshop layout.
func Default() *Config {
	return &Config{
		Users: Users{
			Dir:               filepath.Join("jupyterhub", "users"),
			Students:          filepath.Join("jupyterhub", "users", "students.txt"),
			AdminPasswordFile: filepath.Join("jupyterhub", "admin.password"),
			Admins:            []string{"admin"},
			PasswordLength:    16,
		},
		Hub: Hub{
			BindURL:       "http://:8000",
			Authenticator: "jupyterhub.auth.PAMAuthenticator",
			Spawner:       "docker",
			DefaultURL:    "/lab",
			HTTPTimeout:   120,
			StartTimeout:  180,
			Docker: Docker{
				Image:         "jupyter/pyspark-notebook:latest",
				Network:       "workshop-net",
				HubConnectIP:  "jupyterhub",
				UseInternalIP: true,
				Remove:        true,
				WorkMount:     "/home/jovyan/work",
				DatasetMount:  "/home/jovyan/datasets",
			},
		},
		Jars: Jars{
			BaseURL:       "https://repo1.maven.org/maven2",
			HadoopVersion: "3.4.0",
			AWSSDKVersion: "2.28.11",
			Python:        "python3",
		},
		Storage: Storage{
			Endpoint:  "http://localhost:9000",
			AccessKey: "admin",
			Region:    "us-east-1",
			Bucket:    "workshop-data",
			Dir:       filepath.Join("dataset", "csv"),
			Prefix:    "csv/",
			Attempts:  30,
			Delay:     2 * time.Second,
		},
	}
}

// Load returns defaults overlaid with the TOML file at path (if any) and the
// environment. An explicit path must exist; the implicit hubkit.toml and
// .env are optional.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfigPath)
		explicit = path != ""
	}
	if !explicit {
		path = DefaultConfigFile
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables on cfg. Empty values are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	set(&c.Hub.Docker.Image, EnvSpawnImage)
	set(&c.Hub.Docker.Network, EnvNetworkName)
	set(&c.Hub.Docker.HostProjectRoot, EnvHostProjectRoot)
	set(&c.Storage.Endpoint, EnvStorageEndpoint)
	set(&c.Storage.AccessKey, EnvStorageUser)
	set(&c.Jars.SparkHome, EnvSparkHome)

	// The secret is never read from the config file.
	c.Storage.SecretKey = getenv(EnvStoragePassword)

	c.Hub.ExtraAdmins = nil
	for _, u := range strings.Split(getenv(EnvAdminUsers), ",") {
		if u = strings.TrimSpace(u); u != "" {
			c.Hub.ExtraAdmins = append(c.Hub.ExtraAdmins, u)
		}
	}
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// RequireSecret returns ErrMissingSecret when no storage secret is set.
func (s Storage) RequireSecret() error {
	if s.SecretKey == "" {
		return ErrMissingSecret
	}
	return nil
}
