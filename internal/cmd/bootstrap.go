package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/dataworkshop/hubkit/internal/config"
	"github.com/dataworkshop/hubkit/internal/objstore"
	"github.com/dataworkshop/hubkit/internal/style"
	"github.com/spf13/cobra"
)

var bootstrapCmd = &cobra.Command{
	Use:     "bootstrap",
	GroupID: GroupSetup,
	Short:   "Seed the object store with the workshop datasets",
	Long: `Wait for the S3-compatible object store, create the dataset bucket,
upload the dataset files and open the bucket for anonymous reads.

The store is polled until it answers or the attempt cap is reached. Files
are uploaded individually; a failed file is reported and the rest still
upload. Failing to set the public read policy is only a warning.

Requires MINIO_ROOT_PASSWORD (environment or .env).

Examples:
  hubkit bootstrap
  hubkit bootstrap --bucket workshop-data --dir dataset/csv --prefix csv/`,
	Args: cobra.NoArgs,
	RunE: runBootstrap,
}

var (
	bootstrapBucket string
	bootstrapDir    string
	bootstrapPrefix string
)

func init() {
	bootstrapCmd.Flags().StringVar(&bootstrapBucket, "bucket", "", "Bucket name (default [storage].bucket)")
	bootstrapCmd.Flags().StringVar(&bootstrapDir, "dir", "", "Directory to upload (default [storage].dir)")
	bootstrapCmd.Flags().StringVar(&bootstrapPrefix, "prefix", "", "Object key prefix (default [storage].prefix)")

	rootCmd.AddCommand(bootstrapCmd)
}

func bootstrapPlan(cmd *cobra.Command) objstore.Plan {
	plan := objstore.Plan{
		Bucket: cfg.Storage.Bucket,
		Dir:    cfg.Storage.Dir,
		Prefix: cfg.Storage.Prefix,
	}
	flags := cmd.Flags()
	if flags.Changed("bucket") {
		plan.Bucket = bootstrapBucket
	}
	if flags.Changed("dir") {
		plan.Dir = bootstrapDir
	}
	if flags.Changed("prefix") {
		plan.Prefix = bootstrapPrefix
	}
	return plan
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	st := cfg.Storage

	if err := st.RequireSecret(); err != nil {
		return err
	}

	plan := bootstrapPlan(cmd)
	out := cmd.OutOrStdout()

	client, err := objstore.NewClient(ctx, objstore.Endpoint{
		URL:       st.Endpoint,
		AccessKey: st.AccessKey,
		SecretKey: st.SecretKey,
		Region:    st.Region,
	})
	if err != nil {
		return err
	}

	b := objstore.New(client,
		objstore.WithAttempts(uint64(st.Attempts)),
		objstore.WithDelay(st.Delay),
		objstore.WithLogger(logger),
	)
	printBootstrapBanner(out, st, plan, b.RunID())

	report, err := b.Run(ctx, plan)
	if report == nil {
		return err
	}
	printBootstrapReport(out, st.Endpoint, plan, report, err)
	if err != nil {
		return NewSilentExit(1)
	}
	return nil
}

func printBootstrapBanner(out io.Writer, st config.Storage, plan objstore.Plan, runID string) {
	fmt.Fprintln(out, style.Rule())
	fmt.Fprintln(out, style.Bold.Render("Object store initialization"))
	fmt.Fprintln(out, style.Rule())
	fmt.Fprintf(out, "Endpoint:   %s\n", st.Endpoint)
	fmt.Fprintf(out, "Access key: %s\n", st.AccessKey)
	fmt.Fprintf(out, "Directory:  %s\n", plan.Dir)
	fmt.Fprintf(out, "Run:        %s\n", runID)
	fmt.Fprintln(out, style.Rule())
}

func printBootstrapReport(out io.Writer, endpoint string, plan objstore.Plan, report *objstore.Report, runErr error) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, style.Rule())

	if report.Created {
		fmt.Fprintf(out, "%s Created bucket '%s'\n", style.SuccessPrefix(), plan.Bucket)
	} else {
		fmt.Fprintf(out, "  Bucket '%s' already exists\n", plan.Bucket)
	}
	fmt.Fprintf(out, "  Uploaded %d/%d files\n", report.Upload.Uploaded, report.Upload.Total)
	for _, key := range report.Upload.Failed {
		fmt.Fprintf(out, "  %s %s\n", style.ErrorPrefix(), key)
	}
	if report.PolicyErr != nil {
		fmt.Fprintf(out, "  %s Could not set bucket policy: %v\n", style.WarningPrefix(), report.PolicyErr)
	} else {
		fmt.Fprintf(out, "  %s Public read policy set on '%s'\n", style.SuccessPrefix(), plan.Bucket)
	}

	if runErr != nil {
		fmt.Fprintf(out, "%s Initialization completed with errors: %v\n", style.WarningPrefix(), runErr)
		fmt.Fprintln(out, style.Rule())
		return
	}

	fmt.Fprintf(out, "%s Initialization completed\n", style.SuccessPrefix())
	fmt.Fprint(out, usageHints(endpoint, plan))
	fmt.Fprintln(out, style.Rule())
}

// usageHints shows how to read the bucket anonymously from a notebook.
func usageHints(endpoint string, plan objstore.Plan) string {
	prefix := strings.TrimSuffix(plan.Prefix, "/")
	sample := plan.Prefix + "beers.csv"

	var b strings.Builder
	fmt.Fprintf(&b, "\nAccess your data:\n")
	fmt.Fprintf(&b, "  S3 API: %s\n", endpoint)
	fmt.Fprintf(&b, "  Bucket: s3://%s/ (public read)\n", plan.Bucket)
	if prefix != "" {
		fmt.Fprintf(&b, "  Files:  s3://%s/%s/\n", plan.Bucket, prefix)
	}
	fmt.Fprintf(&b, "\nPython, no credentials needed:\n")
	fmt.Fprintf(&b, "  import pandas as pd\n")
	fmt.Fprintf(&b, "  df = pd.read_csv('s3://%s/%s',\n", plan.Bucket, sample)
	fmt.Fprintf(&b, "                   storage_options={'client_kwargs': {'endpoint_url': '%s'}})\n", endpoint)
	fmt.Fprintf(&b, "\nboto3, anonymous:\n")
	fmt.Fprintf(&b, "  import boto3\n")
	fmt.Fprintf(&b, "  from botocore import UNSIGNED\n")
	fmt.Fprintf(&b, "  from botocore.config import Config\n")
	fmt.Fprintf(&b, "  s3 = boto3.client('s3', endpoint_url='%s', config=Config(signature_version=UNSIGNED))\n", endpoint)
	fmt.Fprintf(&b, "  s3.download_file('%s', '%s', 'local.csv')\n", plan.Bucket, sample)
	return b.String()
}
