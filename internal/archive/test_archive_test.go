package archive

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store, runID string) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, runID, "summary.json", []byte(`{"files":[]}`)))
	require.NoError(t, s.Put(ctx, runID, "/reports/ccn.xlsx", []byte("PK")))

	got, err := s.Get(ctx, runID, "summary.json")
	require.NoError(t, err)
	assert.Equal(t, `{"files":[]}`, string(got))

	_, err = s.Get(ctx, runID, "missing.json")
	assert.ErrorIs(t, err, ErrNotFound)

	paths, err := s.List(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, []string{"reports/ccn.xlsx", "summary.json"}, paths)

	assert.Error(t, s.Put(ctx, "", "x", nil))
	assert.Error(t, s.Put(ctx, runID, " ", nil))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(), "20261018T120000Z")
}

func TestNewRunID(t *testing.T) {
	at := time.Date(2026, 10, 18, 9, 30, 5, 0, time.FixedZone("JST", 9*3600))
	assert.Equal(t, "20261018T003005Z", NewRunID(at))
}

func TestObjectKeyAndContentType(t *testing.T) {
	assert.Equal(t, "runs/r1/summary.json", objectKey("/runs/", "r1", "/summary.json"))
	assert.Equal(t, "r1/a/b.txt", objectKey("", "r1", "a/b.txt"))
	assert.Equal(t, "application/json", contentType("summary.json"))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", contentType("x.XLSX"))
	assert.Equal(t, "application/octet-stream", contentType("blob"))
}

func TestNewS3StoreValidation(t *testing.T) {
	_, err := NewS3Store(S3Config{})
	assert.Error(t, err)
	_, err = NewS3Store(S3Config{Endpoint: "localhost:9000"})
	assert.Error(t, err)
	_, err = NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	assert.Error(t, err)

	s, err := NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "smellfix"})
	require.NoError(t, err)
	assert.Equal(t, "runs", s.prefix)
	assert.Equal(t, "us-east-1", s.region)

	assert.False(t, S3Config{}.Enabled())
	assert.True(t, S3Config{Endpoint: "x"}.Enabled())
}

// Runs against a live MinIO when SMELLFIX_TEST_S3_ENDPOINT is set.
func TestS3Store(t *testing.T) {
	endpoint := os.Getenv("SMELLFIX_TEST_S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("SMELLFIX_TEST_S3_ENDPOINT not set")
	}
	s, err := NewS3Store(S3Config{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("SMELLFIX_TEST_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("SMELLFIX_TEST_S3_SECRET_KEY"),
		Bucket:    "smellfix-test",
	})
	require.NoError(t, err)
	exerciseStore(t, s, NewRunID(time.Now()))
}
