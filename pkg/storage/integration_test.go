//go:build integration

package storage

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/localstack"
)

// TestS3Store_Integration uses Testcontainers to spin up LocalStack and
// drives the S3 backend against it. Hermetic: it brings its own cloud.
// Requires Docker.
func TestS3Store_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	// 1. Start LocalStack Container
	container, err := localstack.RunContainer(ctx,
		testcontainers.WithImage("localstack/localstack:3.0"),
	)
	if err != nil {
		t.Fatalf("Failed to start LocalStack: %v", err)
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	}()

	endpoint, err := container.PortEndpoint(ctx, "4566/tcp", "")
	if err != nil {
		t.Fatalf("Failed to get endpoint: %v", err)
	}

	// 2. Configure AWS SDK to talk to LocalStack
	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL:           "http://" + endpoint,
			SigningRegion: "us-east-1",
		}, nil
	})

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("us-east-1"),
		config.WithEndpointResolverWithOptions(customResolver),
		config.WithCredentialsProvider(aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     "test",
				SecretAccessKey: "test",
				SessionToken:    "test",
			}, nil
		})),
	)
	if err != nil {
		t.Fatalf("Failed to load SDK config: %v", err)
	}

	// LocalStack needs path-style addressing; virtual-host bucket
	// subdomains do not resolve against localhost.
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	bucket := "feederflow-studies"
	if _, err := client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	}); err != nil {
		t.Fatalf("Failed to create bucket: %v", err)
	}

	store := &S3Store{Client: client, Bucket: bucket}

	// 3. Round trip one study artifact
	payload := []byte(`{"network":"harbor-11kv","source_kv":11}`)
	if err := store.Put(ctx, "runs/run-1/study.json", payload); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := store.Get(ctx, "runs/run-1/study.json")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Round trip mismatch: got %s", got)
	}

	// 4. Overwrite in place
	payload2 := []byte(`{"network":"harbor-11kv","source_kv":33}`)
	if err := store.Put(ctx, "runs/run-1/study.json", payload2); err != nil {
		t.Fatalf("Overwrite failed: %v", err)
	}
	got, err = store.Get(ctx, "runs/run-1/study.json")
	if err != nil {
		t.Fatalf("Get after overwrite failed: %v", err)
	}
	if !bytes.Equal(got, payload2) {
		t.Errorf("Overwrite not visible: got %s", got)
	}

	// 5. List sees only the asked-for prefix
	if err := store.Put(ctx, "runs/run-1/nodes.csv", []byte("NodeID\n")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, "runs/run-2/study.json", payload); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	keys, err := store.List(ctx, "runs/run-1/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	sort.Strings(keys)
	want := []string{"runs/run-1/nodes.csv", "runs/run-1/study.json"}
	if len(keys) != len(want) {
		t.Fatalf("Expected %d keys, got %v", len(want), keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Key %d: expected %s, got %s", i, want[i], keys[i])
		}
	}

	// 6. Missing keys surface the sentinel, not a raw SDK error
	if _, err := store.Get(ctx, "runs/ghost/study.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
