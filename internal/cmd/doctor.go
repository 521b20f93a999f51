package cmd

import (
	"fmt"
	"io"

	"github.com/dataworkshop/hubkit/internal/doctor"
	"github.com/dataworkshop/hubkit/internal/style"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:     "doctor",
	GroupID: GroupDiag,
	Short:   "Check the workshop layout before a session",
	Long: `Run preflight checks against the configured workshop layout:

  roster           students file exists and lists at least one name
  admin-password   shared admin password is set and private
  output-dir       credential output directory is writable
  credentials      users.csv and allowlist.txt agree
  dataset          dataset directory exists and has files
  storage-secret   MINIO_ROOT_PASSWORD is set

Exits 1 if any check reports an error. --fix creates missing directories.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

var (
	doctorFix     bool
	doctorVerbose bool
)

func init() {
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Attempt to fix problems automatically")
	doctorCmd.Flags().BoolVarP(&doctorVerbose, "verbose", "v", false, "Show details for passing checks")

	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	ctx := &doctor.CheckContext{Config: cfg, Fs: afero.NewOsFs()}

	d := doctor.NewDoctor(logger)
	d.Register(doctor.DefaultChecks()...)

	var report *doctor.Report
	if doctorFix {
		report = d.Fix(ctx)
	} else {
		report = d.Run(ctx)
	}

	printDoctorReport(cmd.OutOrStdout(), report, doctorVerbose)
	if report.HasErrors() {
		return NewSilentExit(1)
	}
	return nil
}

func printDoctorReport(out io.Writer, report *doctor.Report, verbose bool) {
	for _, res := range report.Results {
		var prefix string
		switch res.Status {
		case doctor.StatusOK:
			prefix = style.SuccessPrefix()
		case doctor.StatusWarning:
			prefix = style.WarningPrefix()
		default:
			prefix = style.ErrorPrefix()
		}
		fmt.Fprintf(out, "%s %-16s %s\n", prefix, res.Name, res.Message)

		if res.Status != doctor.StatusOK || verbose {
			for _, d := range res.Details {
				fmt.Fprintf(out, "    %s\n", style.Dim.Render(d))
			}
		}
		if res.FixHint != "" && res.Status != doctor.StatusOK {
			fmt.Fprintf(out, "    %s %s\n", style.ArrowPrefix(), res.FixHint)
		}
	}

	for _, name := range report.Fixed {
		fmt.Fprintf(out, "%s fixed %s\n", style.SuccessPrefix(), name)
	}

	fmt.Fprintf(out, "\n%d passed, %d warnings, %d errors\n",
		report.Count(doctor.StatusOK), report.Count(doctor.StatusWarning), report.Count(doctor.StatusError))
}
