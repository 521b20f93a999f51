package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/dataworkshop/hubkit/internal/hub"
	"github.com/spf13/cobra"
)

var hubConfigCmd = &cobra.Command{
	Use:     "hub-config",
	GroupID: GroupSetup,
	Short:   "Render the JupyterHub configuration",
	Long: `Render jupyterhub_config.py from the workshop config and the lists written
by 'hubkit credentials'.

allowlist.txt becomes allowed_users and admins.txt plus
JUPYTERHUB_ADMIN_USERS become admin_users. Missing lists are skipped. With
the docker spawner, each user gets a persistent work-<username> volume and
the dataset directory mounted read-only.

Examples:
  hubkit hub-config > jupyterhub/jupyterhub_config.py
  hubkit hub-config --out jupyterhub/jupyterhub_config.py
  hubkit hub-config --format yaml`,
	Args: cobra.NoArgs,
	RunE: runHubConfig,
}

var (
	hubConfigOut      string
	hubConfigFormat   string
	hubConfigUsersDir string
)

func init() {
	hubConfigCmd.Flags().StringVarP(&hubConfigOut, "out", "o", "", "Write to file instead of stdout")
	hubConfigCmd.Flags().StringVar(&hubConfigFormat, "format", string(hub.FormatPython), "Output format: python, yaml")
	hubConfigCmd.Flags().StringVar(&hubConfigUsersDir, "users-dir", "", "Directory holding allowlist.txt and admins.txt (default [users].dir)")

	rootCmd.AddCommand(hubConfigCmd)
}

func runHubConfig(cmd *cobra.Command, _ []string) error {
	usersDir := cfg.Users.Dir
	if hubConfigUsersDir != "" {
		usersDir = hubConfigUsersDir
	}

	settings, err := hub.Load(cfg.Hub, hub.LoadOptions{UsersDir: usersDir})
	if err != nil {
		return err
	}
	logger.Debug("loaded hub settings",
		"allowed", len(settings.AllowedUsers), "admins", len(settings.AdminUsers), "spawner", settings.Spawner)

	var buf bytes.Buffer
	if err := hub.Render(&buf, settings, hub.Format(hubConfigFormat)); err != nil {
		return err
	}

	if hubConfigOut == "" {
		_, err := buf.WriteTo(cmd.OutOrStdout())
		return err
	}
	if err := writeFile(hubConfigOut, buf.Bytes()); err != nil {
		return err
	}
	logger.Info("wrote hub config", "path", hubConfigOut)
	return nil
}

// writeFile writes data to path and reports close errors.
func writeFile(path string, data []byte) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
