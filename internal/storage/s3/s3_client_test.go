package s3

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"savemymoney/internal/port"
)

type recordedRequest struct {
	method string
	path   string
	body   []byte
	sse    string
}

func newTestArchive(t *testing.T, status int) (*Archive, *[]recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var reqs []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recordedRequest{r.Method, r.URL.Path, body, r.Header.Get("X-Amz-Server-Side-Encryption")})
		mu.Unlock()
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)

	awsCfg := aws.Config{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider("key", "secret", ""),
	}
	return newArchive(awsCfg, server.URL), &reqs
}

func TestArchive_Upload(t *testing.T) {
	archive, reqs := newTestArchive(t, http.StatusOK)

	out, err := archive.Upload(context.Background(), port.UploadInput{
		Bucket:      "receipts",
		Key:         "receipts/2024/03/15/a.jpg",
		Body:        bytes.NewReader([]byte("jpeg-bytes")),
		ContentType: "image/jpeg",
	})

	require.NoError(t, err)
	assert.Equal(t, `"abc"`, out.ETag)
	require.Len(t, *reqs, 1)
	got := (*reqs)[0]
	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "/receipts/receipts/2024/03/15/a.jpg", got.path)
	assert.Equal(t, "AES256", got.sse)
	assert.True(t, strings.Contains(string(got.body), "jpeg-bytes"))
}

func TestArchive_Delete(t *testing.T) {
	archive, reqs := newTestArchive(t, http.StatusNoContent)

	err := archive.Delete(context.Background(), "receipts", "receipts/a.jpg")

	require.NoError(t, err)
	require.Len(t, *reqs, 1)
	assert.Equal(t, http.MethodDelete, (*reqs)[0].method)
}

func TestArchive_UploadError(t *testing.T) {
	archive, _ := newTestArchive(t, http.StatusForbidden)

	_, err := archive.Upload(context.Background(), port.UploadInput{
		Bucket: "receipts", Key: "k", Body: bytes.NewReader([]byte("x")), ContentType: "image/png",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3 upload")
}
