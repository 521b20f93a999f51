// Package jars downloads the Hadoop S3 connector and AWS SDK bundle into the
// Spark installation used by the notebook image.
package jars

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"
)

// ErrSparkNotFound indicates no Spark installation could be located.
var ErrSparkNotFound = errors.New("spark installation not found")

// Artifact is one file to download.
type Artifact struct {
	// Name is a short label used in logs.
	Name string

	// URL is the download location; its last path element is the file name.
	URL string
}

// FileName returns the base name of the artifact URL.
func (a Artifact) FileName() string {
	return path.Base(a.URL)
}

// DefaultArtifacts returns the hadoop-aws JAR and the AWS SDK v2 bundle and
// URL connection client matching the given versions.
func DefaultArtifacts(baseURL, hadoopVersion, awsSDKVersion string) ([]Artifact, error) {
	for label, v := range map[string]string{"hadoop": hadoopVersion, "aws sdk": awsSDKVersion} {
		if _, err := semver.StrictNewVersion(v); err != nil {
			return nil, fmt.Errorf("invalid %s version %q: %w", label, v, err)
		}
	}

	base := strings.TrimRight(baseURL, "/")
	return []Artifact{
		{
			Name: "hadoop-aws",
			URL:  fmt.Sprintf("%s/org/apache/hadoop/hadoop-aws/%s/hadoop-aws-%s.jar", base, hadoopVersion, hadoopVersion),
		},
		{
			Name: "aws-sdk-v2",
			URL:  fmt.Sprintf("%s/software/amazon/awssdk/bundle/%s/bundle-%s.jar", base, awsSDKVersion, awsSDKVersion),
		},
		{
			Name: "aws-url-connection",
			URL:  fmt.Sprintf("%s/software/amazon/awssdk/url-connection-client/%s/url-connection-client-%s.jar", base, awsSDKVersion, awsSDKVersion),
		},
	}, nil
}

// pysparkDirScript prints the directory of the installed pyspark package.
const pysparkDirScript = "import os, pyspark; print(os.path.dirname(pyspark.__file__))"

// LocateSparkJars returns the jars directory of the Spark installation:
// $SPARK_HOME/jars when sparkHome is set, else the jars directory of the
// pyspark package importable by python.
func LocateSparkJars(ctx context.Context, sparkHome, python string) (string, error) {
	if sparkHome != "" {
		return filepath.Join(sparkHome, "jars"), nil
	}

	out, err := exec.CommandContext(ctx, python, "-c", pysparkDirScript).Output()
	if err != nil {
		return "", fmt.Errorf("%w: %s could not import pyspark: %w", ErrSparkNotFound, python, err)
	}
	dir := strings.TrimSpace(string(out))
	if dir == "" {
		return "", fmt.Errorf("%w: empty pyspark location", ErrSparkNotFound)
	}
	return filepath.Join(dir, "jars"), nil
}

// partSuffix marks a download in progress.
const partSuffix = ".part"

// Fetcher downloads artifacts sequentially.
type Fetcher struct {
	client *resty.Client
	logger *log.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// WithTimeout bounds each download.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.client.SetTimeout(d)
	}
}

// NewFetcher creates a Fetcher. Downloads are not retried.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: resty.New().SetRetryCount(0),
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads each artifact into dir, in order. The first failure stops
// the run and is returned. Bodies are written to <name>.part and renamed once
// the server answered with a success status; an error body never lands under
// the jar name. An interrupted transfer leaves its .part file in place.
func (f *Fetcher) Fetch(ctx context.Context, dir string, artifacts []Artifact) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}

	var written []string
	for _, a := range artifacts {
		dest := filepath.Join(dir, a.FileName())
		f.logger.Info("downloading", "artifact", a.Name, "url", a.URL)

		part := dest + partSuffix
		resp, err := f.client.R().
			SetContext(ctx).
			SetOutput(part).
			Get(a.URL)
		if err != nil {
			return written, fmt.Errorf("downloading %s: %w", a.Name, err)
		}
		if resp.IsError() {
			_ = os.Remove(part)
			return written, fmt.Errorf("downloading %s: %s returned %s", a.Name, a.URL, resp.Status())
		}
		if err := os.Rename(part, dest); err != nil {
			return written, fmt.Errorf("installing %s: %w", a.FileName(), err)
		}

		written = append(written, dest)
		f.logger.Info("downloaded", "file", a.FileName(), "bytes", resp.Size())
	}
	return written, nil
}
