package storage

import (
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

// ParseS3URL splits "s3://bucket/prefix" into its parts. The second
// return is empty when the URL names only a bucket.
func ParseS3URL(raw string) (bucket, prefix string, ok bool) {
	if !strings.HasPrefix(raw, "s3://") {
		return "", "", false
	}
	target := strings.TrimPrefix(raw, "s3://")
	parts := strings.SplitN(target, "/", 2)
	if parts[0] == "" {
		return "", "", false
	}
	bucket = parts[0]
	if len(parts) > 1 {
		prefix = strings.Trim(parts[1], "/")
	}
	return bucket, prefix, true
}

// Open resolves a destination string into a store plus the key prefix
// to write under. "s3://bucket/prefix" gets an S3 store with shared
// AWS config; anything else is treated as a local directory.
func Open(ctx context.Context, dest string) (BlobStore, string, error) {
	if strings.HasPrefix(dest, "s3://") {
		bucket, prefix, ok := ParseS3URL(dest)
		if !ok {
			return nil, "", fmt.Errorf("invalid s3 url %q", dest)
		}
		// Load shared config fresh so uploads pick up current credentials.
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load aws config: %w", err)
		}
		return NewS3Store(cfg, bucket), prefix, nil
	}
	return NewLocalStore(dest), "", nil
}
