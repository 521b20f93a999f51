package cmd

import (
	"fmt"

	"github.com/dataworkshop/hubkit/internal/style"
	"github.com/dataworkshop/hubkit/internal/user"
	"github.com/spf13/cobra"
)

var credentialsCmd = &cobra.Command{
	Use:     "credentials",
	GroupID: GroupSetup,
	Short:   "Generate student and admin logins from the roster",
	Long: `Generate one login per roster entry plus the admin accounts.

Usernames are the first initial followed by the last name, lowercased and
folded to ASCII ("Jane Smith" becomes "jsmith"). Collisions get a numeric
suffix in roster order. Students get a fresh random password on every run;
admins share the password from the admin password file.

Writes to the output directory:
  users.csv                 name,username,password,is_admin
  users-<timestamp>.csv     backup of this run's table
  allowlist.txt             every username, sorted
  admins.txt                admin usernames, sorted

Examples:
  hubkit credentials
  hubkit credentials --students roster.txt --outdir out/
  hubkit credentials --admins "admin,Jane Smith" --reserved root,jovyan`,
	Args: cobra.NoArgs,
	RunE: runCredentials,
}

var (
	credStudents     string
	credAdmins       []string
	credPasswordFile string
	credOutDir       string
	credReserved     []string
	credPasswordLen  int
)

func init() {
	credentialsCmd.Flags().StringVar(&credStudents, "students", "", "Roster file, one display name per line")
	credentialsCmd.Flags().StringSliceVar(&credAdmins, "admins", nil, "Admin display names (comma-separated)")
	credentialsCmd.Flags().StringVar(&credPasswordFile, "admin-password-file", "", "File holding the shared admin password")
	credentialsCmd.Flags().StringVar(&credOutDir, "outdir", "", "Output directory")
	credentialsCmd.Flags().StringSliceVar(&credReserved, "reserved", nil, "Usernames that must never be allocated")
	credentialsCmd.Flags().IntVar(&credPasswordLen, "password-length", 0, "Student password length")

	rootCmd.AddCommand(credentialsCmd)
}

func credentialOptions(cmd *cobra.Command) user.GenerateOptions {
	opts := user.GenerateOptions{
		RosterPath:        cfg.Users.Students,
		Admins:            cfg.Users.Admins,
		AdminPasswordFile: cfg.Users.AdminPasswordFile,
		OutDir:            cfg.Users.Dir,
		Reserved:          cfg.Users.Reserved,
		PasswordLength:    cfg.Users.PasswordLength,
	}

	flags := cmd.Flags()
	if flags.Changed("students") {
		opts.RosterPath = credStudents
	}
	if flags.Changed("admins") {
		opts.Admins = credAdmins
	}
	if flags.Changed("admin-password-file") {
		opts.AdminPasswordFile = credPasswordFile
	}
	if flags.Changed("outdir") {
		opts.OutDir = credOutDir
	}
	if flags.Changed("reserved") {
		opts.Reserved = credReserved
	}
	if flags.Changed("password-length") {
		opts.PasswordLength = credPasswordLen
	}
	return opts
}

func runCredentials(cmd *cobra.Command, _ []string) error {
	opts := credentialOptions(cmd)
	if opts.PasswordLength != 0 && opts.PasswordLength < 8 {
		return fmt.Errorf("--password-length must be at least 8, got %d", opts.PasswordLength)
	}

	res, err := user.NewGenerator(user.WithLogger(logger)).Generate(opts)
	if err != nil {
		return err
	}

	admins := 0
	for _, c := range res.Credentials {
		if c.Admin {
			admins++
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s Generated %d accounts (%d admin, %d student)\n",
		style.SuccessPrefix(), len(res.Credentials), admins, len(res.Credentials)-admins)
	fmt.Fprintln(out, "Wrote:")
	for _, f := range res.Files {
		fmt.Fprintf(out, "  %s\n", f)
	}
	fmt.Fprintln(out, style.Dim.Render("users.csv contains passwords; keep it out of version control."))
	return nil
}
