package objstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/charmbracelet/log"
	"github.com/dataworkshop/hubkit/internal/readiness"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	// ErrDirNotFound indicates the upload source directory is missing.
	ErrDirNotFound = errors.New("upload directory not found")

	// ErrUploadIncomplete indicates at least one file failed to upload.
	ErrUploadIncomplete = errors.New("not all files uploaded")
)

// runMetadataKey tags uploaded objects with the bootstrap run.
const runMetadataKey = "hubkit-run"

// Bootstrapper prepares the dataset bucket.
type Bootstrapper struct {
	api    API
	policy readiness.Policy
	logger *log.Logger
	runID  string
}

// Option configures a Bootstrapper.
type Option func(*Bootstrapper)

// WithAttempts sets the readiness attempt cap.
func WithAttempts(n uint64) Option {
	return func(b *Bootstrapper) {
		b.policy.Attempts = n
	}
}

// WithDelay sets the fixed pause between readiness probes.
func WithDelay(d time.Duration) Option {
	return func(b *Bootstrapper) {
		b.policy.Delay = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(b *Bootstrapper) {
		b.logger = l
	}
}

// New creates a Bootstrapper over api.
func New(api API, opts ...Option) *Bootstrapper {
	b := &Bootstrapper{
		api:    api,
		policy: readiness.DefaultPolicy(),
		logger: log.Default(),
		runID:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("run", b.runID)
	return b
}

// RunID identifies this bootstrap in logs and object metadata.
func (b *Bootstrapper) RunID() string {
	return b.runID
}

// WaitReady lists buckets until the store answers or the attempt cap is hit.
func (b *Bootstrapper) WaitReady(ctx context.Context) error {
	b.logger.Info("waiting for object store")

	policy := b.policy
	policy.OnFailure = func(attempt uint64, retrying bool, err error) {
		if retrying {
			b.logger.Info("object store not ready yet",
				"attempt", fmt.Sprintf("%d/%d", attempt, policy.Attempts),
				"wait", policy.Delay)
			return
		}
		b.logger.Error("object store unreachable", "attempts", attempt, "err", err)
	}

	err := readiness.Wait(ctx, policy, func(ctx context.Context) error {
		_, err := b.api.ListBuckets(ctx, &s3.ListBucketsInput{})
		return err
	})
	if err != nil {
		return err
	}

	b.logger.Info("object store is ready")
	return nil
}

// EnsureBucket creates bucket unless it already exists. It reports whether
// the bucket was created; an existing bucket is not an error.
func (b *Bootstrapper) EnsureBucket(ctx context.Context, bucket string) (bool, error) {
	_, err := b.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		b.logger.Info("bucket already exists", "bucket", bucket)
		return false, nil
	}
	if !IsNotFound(err) {
		return false, fmt.Errorf("checking bucket %s: %w", bucket, err)
	}

	if _, err := b.api.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)}); err != nil {
		return false, fmt.Errorf("creating bucket %s: %w", bucket, err)
	}
	b.logger.Info("created bucket", "bucket", bucket)
	return true, nil
}

// UploadReport counts the outcome of UploadDir.
type UploadReport struct {
	Uploaded int
	Total    int

	// Failed lists the object keys that could not be uploaded.
	Failed []string
}

// OK reports whether every file was uploaded.
func (r UploadReport) OK() bool {
	return r.Uploaded == r.Total
}

// UploadDir uploads the regular files directly inside dir (no recursion) to
// bucket under prefix, in name order. Individual failures are logged and
// skipped; the returned error wraps ErrUploadIncomplete if any file failed.
func (b *Bootstrapper) UploadDir(ctx context.Context, bucket, dir, prefix string) (UploadReport, error) {
	var report UploadReport

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return report, fmt.Errorf("%w: %s", ErrDirNotFound, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return report, fmt.Errorf("reading %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	report.Total = len(files)

	if len(files) == 0 {
		b.logger.Warn("no files to upload", "dir", dir)
		return report, nil
	}

	b.logger.Info("uploading files", "count", len(files), "dir", dir, "bucket", bucket)
	for _, name := range files {
		key := prefix + name
		size, err := b.uploadFile(ctx, bucket, key, filepath.Join(dir, name))
		if err != nil {
			b.logger.Error("upload failed", "key", key, "err", err)
			report.Failed = append(report.Failed, key)
			continue
		}
		report.Uploaded++
		b.logger.Info("uploaded", "key", key, "size", fmt.Sprintf("%.1f KB", float64(size)/1024))
	}

	b.logger.Info("upload finished", "uploaded", report.Uploaded, "total", report.Total)
	if !report.OK() {
		return report, fmt.Errorf("%w: %d/%d uploaded", ErrUploadIncomplete, report.Uploaded, report.Total)
	}
	return report, nil
}

func (b *Bootstrapper) uploadFile(ctx context.Context, bucket, key, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}

	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectFile(path); err == nil {
		contentType = mt.String()
	}

	_, err = b.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(contentType),
		Metadata:      map[string]string{runMetadataKey: b.runID},
	})
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

type policyStatement struct {
	Effect    string              `json:"Effect"`
	Principal map[string][]string `json:"Principal"`
	Action    []string            `json:"Action"`
	Resource  []string            `json:"Resource"`
}

type bucketPolicy struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

// PublicReadPolicy returns the anonymous read policy document for bucket.
func PublicReadPolicy(bucket string) (string, error) {
	anyone := map[string][]string{"AWS": {"*"}}
	doc := bucketPolicy{
		Version: "2012-10-17",
		Statement: []policyStatement{
			{
				Effect:    "Allow",
				Principal: anyone,
				Action:    []string{"s3:GetObject"},
				Resource:  []string{"arn:aws:s3:::" + bucket + "/*"},
			},
			{
				Effect:    "Allow",
				Principal: anyone,
				Action:    []string{"s3:ListBucket"},
				Resource:  []string{"arn:aws:s3:::" + bucket},
			},
		},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ApplyPublicRead opens bucket for anonymous list and get. It is best
// effort: failures are logged as warnings and returned for reporting only.
func (b *Bootstrapper) ApplyPublicRead(ctx context.Context, bucket string) error {
	policy, err := PublicReadPolicy(bucket)
	if err == nil {
		_, err = b.api.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
			Bucket: aws.String(bucket),
			Policy: aws.String(policy),
		})
	}
	if err != nil {
		b.logger.Warn("could not set bucket policy", "bucket", bucket, "err", err)
		return err
	}
	b.logger.Info("set public read policy", "bucket", bucket)
	return nil
}

// Plan describes a full bootstrap.
type Plan struct {
	Bucket string
	Dir    string
	Prefix string
}

// Report is the outcome of Run.
type Report struct {
	Created   bool
	Upload    UploadReport
	PolicyErr error
}

// Run waits for the store, ensures the bucket, uploads the directory and
// applies the public read policy. Readiness and bucket errors abort the run.
// Upload failures are reported after the policy step; policy failures never
// fail the run.
func (b *Bootstrapper) Run(ctx context.Context, plan Plan) (*Report, error) {
	if err := b.WaitReady(ctx); err != nil {
		return nil, err
	}

	created, err := b.EnsureBucket(ctx, plan.Bucket)
	if err != nil {
		return nil, err
	}
	report := &Report{Created: created}

	upload, uploadErr := b.UploadDir(ctx, plan.Bucket, plan.Dir, plan.Prefix)
	report.Upload = upload

	report.PolicyErr = b.ApplyPublicRead(ctx, plan.Bucket)

	return report, uploadErr
}
