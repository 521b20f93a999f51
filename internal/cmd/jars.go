package cmd

import (
	"fmt"
	"time"

	"github.com/dataworkshop/hubkit/internal/jars"
	"github.com/dataworkshop/hubkit/internal/style"
	"github.com/spf13/cobra"
)

var jarsCmd = &cobra.Command{
	Use:     "jars",
	GroupID: GroupSetup,
	Short:   "Install the Hadoop S3 connector jars into Spark",
	Long: `Download hadoop-aws and the AWS SDK v2 bundle into Spark's jars directory.

The target is $SPARK_HOME/jars when SPARK_HOME is set, otherwise the jars
directory of the pyspark package importable by the configured python.
Downloads run in order and stop at the first failure.

Examples:
  hubkit jars
  hubkit jars --dir /usr/local/spark/jars
  hubkit jars --hadoop-version 3.4.1`,
	Args: cobra.NoArgs,
	RunE: runJars,
}

var (
	jarsDir           string
	jarsHadoopVersion string
	jarsAWSSDKVersion string
	jarsTimeout       time.Duration
)

func init() {
	jarsCmd.Flags().StringVar(&jarsDir, "dir", "", "Install into this directory instead of locating Spark")
	jarsCmd.Flags().StringVar(&jarsHadoopVersion, "hadoop-version", "", "hadoop-aws version (default [jars].hadoop_version)")
	jarsCmd.Flags().StringVar(&jarsAWSSDKVersion, "aws-sdk-version", "", "AWS SDK v2 bundle version (default [jars].aws_sdk_version)")
	jarsCmd.Flags().DurationVar(&jarsTimeout, "timeout", 5*time.Minute, "Timeout per download")

	rootCmd.AddCommand(jarsCmd)
}

func runJars(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	hadoop := cfg.Jars.HadoopVersion
	if jarsHadoopVersion != "" {
		hadoop = jarsHadoopVersion
	}
	awsSDK := cfg.Jars.AWSSDKVersion
	if jarsAWSSDKVersion != "" {
		awsSDK = jarsAWSSDKVersion
	}

	artifacts, err := jars.DefaultArtifacts(cfg.Jars.BaseURL, hadoop, awsSDK)
	if err != nil {
		return err
	}

	dir := jarsDir
	if dir == "" {
		dir, err = jars.LocateSparkJars(ctx, cfg.Jars.SparkHome, cfg.Jars.Python)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Downloading Hadoop AWS jars (AWS SDK v2) into %s\n", dir)

	fetcher := jars.NewFetcher(jars.WithLogger(logger), jars.WithTimeout(jarsTimeout))
	written, err := fetcher.Fetch(ctx, dir, artifacts)
	for _, path := range written {
		fmt.Fprintf(out, "  %s %s\n", style.SuccessPrefix(), path)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s Hadoop AWS jars installed\n", style.SuccessPrefix())
	return nil
}
