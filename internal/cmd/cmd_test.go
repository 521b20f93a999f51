package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dataworkshop/hubkit/internal/config"
	"github.com/dataworkshop/hubkit/internal/objstore"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags restores every flag to its default so that tests do not leak
// state through the package-level commands.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

type workshop struct {
	root   string
	config string
}

func newWorkshop(t *testing.T) *workshop {
	t.Helper()
	root := t.TempDir()
	w := &workshop{root: root, config: filepath.Join(root, "hubkit.toml")}

	w.write(t, "students.txt", "# cohort 1\nJane Smith\nBob Lee\nBill Lee\n")
	w.write(t, "admin.password", "s3cret\n")
	if err := os.MkdirAll(w.path("dataset"), 0755); err != nil {
		t.Fatal(err)
	}

	toml := fmt.Sprintf(`
[users]
dir = %q
students = %q
admin_password_file = %q

[hub]
spawner = "local"

[storage]
dir = %q
`, w.path("users"), w.path("students.txt"), w.path("admin.password"), w.path("dataset"))
	w.write(t, "hubkit.toml", toml)

	for _, key := range []string{
		config.EnvAdminUsers, config.EnvStoragePassword, config.EnvSparkHome,
		config.EnvConfigPath, config.EnvHostProjectRoot,
	} {
		t.Setenv(key, "")
	}
	t.Cleanup(func() {
		resetFlags(rootCmd)
		rootCmd.SetOut(nil)
	})
	return w
}

func (w *workshop) path(name string) string {
	return filepath.Join(w.root, name)
}

func (w *workshop) write(t *testing.T, name, content string) {
	t.Helper()
	if err := os.WriteFile(w.path(name), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func (w *workshop) run(t *testing.T, args ...string) (int, string) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	all := append([]string{"--config", w.config, "--log-level", "error"}, args...)
	code := execute(context.Background(), all)
	return code, out.String()
}

func TestCredentialsCommand(t *testing.T) {
	w := newWorkshop(t)

	code, out := w.run(t, "credentials")
	if code != 0 {
		t.Fatalf("exit code = %d, output:\n%s", code, out)
	}
	if !strings.Contains(out, "Generated 4 accounts (1 admin, 3 student)") {
		t.Errorf("unexpected output:\n%s", out)
	}

	allow, err := os.ReadFile(filepath.Join(w.path("users"), "allowlist.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(allow) != "admin\nblee\nblee1\njsmith\n" {
		t.Errorf("allowlist = %q", allow)
	}

	if _, err := os.Stat(filepath.Join(w.path("users"), "users.csv")); err != nil {
		t.Errorf("users.csv not written: %v", err)
	}
}

func TestCredentialsCommand_FlagsOverrideConfig(t *testing.T) {
	w := newWorkshop(t)
	w.write(t, "other.txt", "Cher\n")
	outDir := w.path("elsewhere")

	code, out := w.run(t, "credentials",
		"--students", w.path("other.txt"),
		"--outdir", outDir,
		"--admins", "root,Jane Smith",
		"--reserved", "root")
	if code != 0 {
		t.Fatalf("exit code = %d, output:\n%s", code, out)
	}

	admins, err := os.ReadFile(filepath.Join(outDir, "admins.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(admins) != "jsmith\nroot1\n" {
		t.Errorf("admins = %q", admins)
	}
}

func TestCredentialsCommand_AdminListWhitespace(t *testing.T) {
	w := newWorkshop(t)

	if code, out := w.run(t, "credentials", "--admins", "admin, Jane Smith,"); code != 0 {
		t.Fatalf("exit code = %d, output:\n%s", code, out)
	}

	admins, err := os.ReadFile(filepath.Join(w.path("users"), "admins.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(admins) != "admin\njsmith\njsmith1\n" {
		t.Errorf("admins = %q", admins)
	}

	table, err := os.ReadFile(filepath.Join(w.path("users"), "users.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(table), "\nJane Smith,jsmith1,s3cret,true\n") {
		t.Errorf("roster entry for an admin should share the admin password:\n%s", table)
	}
	for _, bad := range []string{"\n,user,", "\n\" Jane Smith\""} {
		if strings.Contains(string(table), bad) {
			t.Errorf("users.csv contains %q:\n%s", bad, table)
		}
	}
}

func TestCredentialsCommand_MissingPassword(t *testing.T) {
	w := newWorkshop(t)
	if err := os.Remove(w.path("admin.password")); err != nil {
		t.Fatal(err)
	}

	if code, _ := w.run(t, "credentials"); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if _, err := os.Stat(filepath.Join(w.path("users"), "users.csv")); !os.IsNotExist(err) {
		t.Error("users.csv should not be written")
	}
}

func TestCredentialsCommand_ShortPassword(t *testing.T) {
	w := newWorkshop(t)
	if code, _ := w.run(t, "credentials", "--password-length", "4"); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestHubConfigCommand(t *testing.T) {
	w := newWorkshop(t)
	t.Setenv(config.EnvAdminUsers, "instructor")

	if code, out := w.run(t, "credentials"); code != 0 {
		t.Fatalf("credentials failed:\n%s", out)
	}

	dest := w.path("jupyterhub_config.py")
	if code, out := w.run(t, "hub-config", "--out", dest); code != 0 {
		t.Fatalf("hub-config exit code = %d:\n%s", code, out)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	for _, want := range []string{
		`c.Authenticator.allowed_users = {"admin", "blee", "blee1", "jsmith"}`,
		`c.Authenticator.admin_users = {"admin", "instructor"}`,
		`c.JupyterHub.spawner_class = "jupyterhub.spawner.LocalProcessSpawner"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("config missing %q:\n%s", want, got)
		}
	}
}

func TestHubConfigCommand_BadFormat(t *testing.T) {
	w := newWorkshop(t)
	dest := w.path("jupyterhub_config.py")

	if code, _ := w.run(t, "hub-config", "--format", "xml", "--out", dest); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("output file should not be created when rendering fails")
	}
}

func TestBootstrapCommand_MissingSecret(t *testing.T) {
	w := newWorkshop(t)
	if code, _ := w.run(t, "bootstrap"); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestDoctorCommand(t *testing.T) {
	w := newWorkshop(t)
	t.Setenv(config.EnvStoragePassword, "minio-secret")
	w.write(t, "dataset/beers.csv", "id\n1\n")

	code, out := w.run(t, "doctor", "--fix")
	if code != 0 {
		t.Fatalf("exit code = %d, output:\n%s", code, out)
	}
	if !strings.Contains(out, "fixed output-dir") {
		t.Errorf("expected output dir fix:\n%s", out)
	}

	if err := os.Remove(w.path("students.txt")); err != nil {
		t.Fatal(err)
	}
	code, out = w.run(t, "doctor")
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(out, "Roster not found") {
		t.Errorf("expected roster error:\n%s", out)
	}
}

func TestVersionCommand(t *testing.T) {
	w := newWorkshop(t)
	prev := Version
	Version = "v1.2.3"
	t.Cleanup(func() { Version = prev })

	code, out := w.run(t, "version")
	if code != 0 || strings.TrimSpace(out) != "hubkit v1.2.3" {
		t.Errorf("version = %d %q", code, out)
	}
}

func TestExecute_BadConfig(t *testing.T) {
	w := newWorkshop(t)
	w.config = w.path("missing.toml")

	if code, _ := w.run(t, "credentials"); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestUsageHints(t *testing.T) {
	got := usageHints("http://minio:9000", bootstrapTestPlan())
	for _, want := range []string{
		"s3://workshop-data/csv/",
		"s3://workshop-data/csv/beers.csv",
		"endpoint_url='http://minio:9000'",
		"signature_version=UNSIGNED",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("hints missing %q:\n%s", want, got)
		}
	}
}

func TestBootstrapBanner(t *testing.T) {
	var out bytes.Buffer
	st := config.Default().Storage
	st.SecretKey = "minio-secret"
	printBootstrapBanner(&out, st, bootstrapTestPlan(), "3f2b9c1e-run")

	for _, want := range []string{
		"Endpoint:   " + st.Endpoint,
		"Access key: " + st.AccessKey,
		"Directory:  dataset/csv",
		"Run:        3f2b9c1e-run",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("banner missing %q:\n%s", want, out.String())
		}
	}
	if strings.Contains(out.String(), "minio-secret") {
		t.Error("banner must not print the secret key")
	}
}

func bootstrapTestPlan() objstore.Plan {
	return objstore.Plan{Bucket: "workshop-data", Dir: "dataset/csv", Prefix: "csv/"}
}
