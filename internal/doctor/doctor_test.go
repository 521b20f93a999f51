package doctor

import (
	"errors"
	"io"
	"os"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/dataworkshop/hubkit/internal/config"
	"github.com/spf13/afero"
)

func testContext(t *testing.T) *CheckContext {
	t.Helper()
	cfg := config.Default()
	cfg.Users.Dir = "/ws/users"
	cfg.Users.Students = "/ws/users/students.txt"
	cfg.Users.AdminPasswordFile = "/ws/admin.password"
	cfg.Storage.Dir = "/ws/dataset/csv"
	cfg.Storage.SecretKey = "minio-secret"
	return &CheckContext{Config: cfg, Fs: afero.NewMemMapFs()}
}

func write(t *testing.T, fs afero.Fs, path, content string, mode os.FileMode) {
	t.Helper()
	if err := afero.WriteFile(fs, path, []byte(content), mode); err != nil {
		t.Fatal(err)
	}
	if err := fs.Chmod(path, mode); err != nil {
		t.Fatal(err)
	}
}

func healthyContext(t *testing.T) *CheckContext {
	ctx := testContext(t)
	if err := ctx.Fs.MkdirAll("/ws/dataset/csv", 0755); err != nil {
		t.Fatal(err)
	}
	write(t, ctx.Fs, "/ws/users/students.txt", "Jane Smith\nBob Lee\n", 0644)
	write(t, ctx.Fs, "/ws/admin.password", "pw\n", 0600)
	write(t, ctx.Fs, "/ws/dataset/csv/beers.csv", "id\n1\n", 0644)
	write(t, ctx.Fs, "/ws/users/users.csv",
		"name,username,password,is_admin\nadmin,admin,pw,true\nJane Smith,jsmith,x,false\n", 0600)
	write(t, ctx.Fs, "/ws/users/allowlist.txt", "admin\njsmith\n", 0644)
	return ctx
}

func runOne(c Check, ctx *CheckContext) *CheckResult {
	return c.Run(ctx)
}

func TestDoctor_Healthy(t *testing.T) {
	ctx := healthyContext(t)
	d := NewDoctor(log.New(io.Discard))
	d.Register(DefaultChecks()...)

	report := d.Run(ctx)
	if len(report.Results) != len(DefaultChecks()) {
		t.Fatalf("results = %d, want %d", len(report.Results), len(DefaultChecks()))
	}
	for _, res := range report.Results {
		if res.Status != StatusOK {
			t.Errorf("%s: %s (%s)", res.Name, res.Status, res.Message)
		}
	}
	if report.HasErrors() {
		t.Error("healthy layout should have no errors")
	}
}

func TestRosterCheck(t *testing.T) {
	tests := []struct {
		name   string
		roster *string
		want   CheckStatus
	}{
		{"missing", nil, StatusError},
		{"only comments", strPtr("# none\n\n"), StatusError},
		{"ok", strPtr("Jane Smith\n"), StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(t)
			if tt.roster != nil {
				write(t, ctx.Fs, ctx.Config.Users.Students, *tt.roster, 0644)
			}
			if got := runOne(NewRosterCheck(), ctx).Status; got != tt.want {
				t.Errorf("status = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAdminPasswordCheck(t *testing.T) {
	ctx := testContext(t)
	c := NewAdminPasswordCheck()

	res := c.Run(ctx)
	if res.Status != StatusError || res.FixHint == "" {
		t.Errorf("missing file: %+v", res)
	}

	write(t, ctx.Fs, ctx.Config.Users.AdminPasswordFile, "  \n", 0600)
	if res := c.Run(ctx); res.Status != StatusError {
		t.Errorf("blank file: status = %s", res.Status)
	}

	write(t, ctx.Fs, ctx.Config.Users.AdminPasswordFile, "pw", 0644)
	if res := c.Run(ctx); res.Status != StatusWarning {
		t.Errorf("world-readable file: status = %s", res.Status)
	}

	write(t, ctx.Fs, ctx.Config.Users.AdminPasswordFile, "pw", 0600)
	if res := c.Run(ctx); res.Status != StatusOK {
		t.Errorf("private file: status = %s (%s)", res.Status, res.Message)
	}
}

func TestOutputDirCheck_Fix(t *testing.T) {
	ctx := testContext(t)
	c := NewOutputDirCheck()

	if res := c.Run(ctx); res.Status != StatusWarning {
		t.Fatalf("missing dir: status = %s", res.Status)
	}
	if !c.CanFix() {
		t.Fatal("output dir check should be fixable")
	}

	d := NewDoctor(log.New(io.Discard))
	d.Register(c)
	report := d.Fix(ctx)

	if len(report.Fixed) != 1 || report.Fixed[0] != "output-dir" {
		t.Errorf("fixed = %v", report.Fixed)
	}
	if report.Results[0].Status != StatusOK {
		t.Errorf("after fix: %s (%s)", report.Results[0].Status, report.Results[0].Message)
	}

	entries, _ := afero.ReadDir(ctx.Fs, ctx.Config.Users.Dir)
	if len(entries) != 0 {
		t.Errorf("probe file left behind: %d entries", len(entries))
	}
}

func TestOutputDirCheck_NotADirectory(t *testing.T) {
	ctx := testContext(t)
	write(t, ctx.Fs, ctx.Config.Users.Dir, "oops", 0644)

	if res := NewOutputDirCheck().Run(ctx); res.Status != StatusError {
		t.Errorf("status = %s, want error", res.Status)
	}
}

func TestCredentialTableCheck(t *testing.T) {
	ctx := testContext(t)
	c := NewCredentialTableCheck()

	if res := c.Run(ctx); res.Status != StatusWarning {
		t.Errorf("no table: status = %s", res.Status)
	}

	write(t, ctx.Fs, "/ws/users/users.csv",
		"name,username,password,is_admin\nadmin,admin,pw,true\nJane Smith,jsmith,x,false\n", 0600)
	if res := c.Run(ctx); res.Status != StatusWarning || len(res.Details) == 0 {
		t.Errorf("missing allowlist: %+v", res)
	}

	write(t, ctx.Fs, "/ws/users/allowlist.txt", "admin\n", 0644)
	if res := c.Run(ctx); res.Status != StatusWarning {
		t.Errorf("stale allowlist: status = %s", res.Status)
	}

	write(t, ctx.Fs, "/ws/users/allowlist.txt", "admin\njsmith\n", 0644)
	res := c.Run(ctx)
	if res.Status != StatusOK || res.Message != "2 accounts (1 admin)" {
		t.Errorf("consistent table: %+v", res)
	}

	write(t, ctx.Fs, "/ws/users/users.csv", "name,username,password,is_admin\nx,y,z,maybe\n", 0600)
	if res := c.Run(ctx); res.Status != StatusError {
		t.Errorf("corrupt table: status = %s", res.Status)
	}
}

func TestDatasetDirCheck(t *testing.T) {
	ctx := testContext(t)
	c := NewDatasetDirCheck()

	if res := c.Run(ctx); res.Status != StatusError {
		t.Errorf("missing: status = %s", res.Status)
	}

	if err := ctx.Fs.MkdirAll("/ws/dataset/csv/sub", 0755); err != nil {
		t.Fatal(err)
	}
	if res := c.Run(ctx); res.Status != StatusWarning {
		t.Errorf("only subdirectories: status = %s", res.Status)
	}

	write(t, ctx.Fs, "/ws/dataset/csv/a.csv", "a", 0644)
	if res := c.Run(ctx); res.Status != StatusOK {
		t.Errorf("one file: status = %s", res.Status)
	}
}

func TestStorageSecretCheck(t *testing.T) {
	ctx := testContext(t)
	c := NewStorageSecretCheck()

	if res := c.Run(ctx); res.Status != StatusOK {
		t.Errorf("secret set: status = %s", res.Status)
	}

	ctx.Config.Storage.SecretKey = ""
	res := c.Run(ctx)
	if res.Status != StatusError {
		t.Errorf("secret unset: status = %s", res.Status)
	}
}

func TestBaseCheck_Fix(t *testing.T) {
	c := NewRosterCheck()
	if c.CanFix() {
		t.Error("roster check should not be fixable")
	}
	if err := c.Fix(testContext(t)); !errors.Is(err, ErrCannotFix) {
		t.Errorf("Fix = %v, want ErrCannotFix", err)
	}
}

func TestReport_Count(t *testing.T) {
	r := &Report{Results: []*CheckResult{
		{Status: StatusOK}, {Status: StatusWarning}, {Status: StatusOK}, {Status: StatusError},
	}}
	if r.Count(StatusOK) != 2 || r.Count(StatusWarning) != 1 || !r.HasErrors() {
		t.Errorf("counts: ok=%d warn=%d err=%d", r.Count(StatusOK), r.Count(StatusWarning), r.Count(StatusError))
	}
}

func strPtr(s string) *string { return &s }
