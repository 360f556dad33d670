// File: internal/vlm/ollama_test.go
package vlm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, endpoint string) *OllamaClient {
	t.Helper()
	c, err := NewOllamaClient(endpoint, "test-vision-model", 5*time.Second, zaptest.NewLogger(t))
	require.NoError(t, err)
	return c
}

func TestNewOllamaClient_Failure(t *testing.T) {
	logger := zaptest.NewLogger(t)

	_, err := NewOllamaClient("", "m", time.Second, logger)
	assert.Error(t, err)

	_, err = NewOllamaClient("http://localhost:11434", "", time.Second, logger)
	assert.Error(t, err)

	_, err = NewOllamaClient("http://localhost:11434", "m", time.Second, nil)
	assert.Error(t, err)
}

func TestPropose_ConcatenatesStreamedChunks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-vision-model", req.Model)
		assert.True(t, req.Stream)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "Click the Save button.", req.Messages[1].Content)

		w.Write([]byte(`{"message":{"content":"{\"action\":\"click\","},"done":false}` + "\n"))
		w.Write([]byte(`{"message":{"content":"\"coords\":[50,50]}"},"done":true}` + "\n"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	resp, err := c.Propose(context.Background(), Request{
		Instruction: "Click the Save button.",
		System:      "You are a desktop UI agent.",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"action":"click","coords":[50,50]}`, resp.Raw)
	assert.GreaterOrEqual(t, resp.ElapsedMS, int64(0))
}

func TestPropose_AttachesImage(t *testing.T) {
	imgPath := filepath.Join(t.TempDir(), "screen.png")
	require.NoError(t, os.WriteFile(imgPath, []byte{0x89, 0x50, 0x4e, 0x47}, 0o644))

	var gotImages int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		atomic.StoreInt32(&gotImages, int32(len(req.Messages[1].Images)))
		w.Write([]byte(`{"message":{"content":"ok"},"done":true}` + "\n"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.Propose(context.Background(), Request{ImagePath: imgPath, Instruction: "x"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&gotImages))
}

func TestPropose_MissingImageFile(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1")
	_, err := c.Propose(context.Background(), Request{ImagePath: "/does/not/exist.png", Instruction: "x"})
	assert.ErrorContains(t, err, "failed to read image")
}

func TestPropose_ClientErrorIsPermanent(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.Propose(context.Background(), Request{Instruction: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "4xx must not be retried")
}

func TestPropose_ServerErrorRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"message":{"content":"recovered"},"done":true}` + "\n"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	resp, err := c.Propose(context.Background(), Request{Instruction: "x"})
	require.NoError(t, err)
	assert.Equal(t, "recovered", resp.Raw)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(2))
}

func TestPropose_StreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"out of memory"}` + "\n"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.Propose(context.Background(), Request{Instruction: "x"})
	assert.ErrorContains(t, err, "out of memory")
}

func TestReadStream_SkipsBlankLines(t *testing.T) {
	body := "\n" + `{"message":{"content":"a"},"done":false}` + "\n\n" +
		`{"message":{"content":"b"},"done":true}` + "\n"
	got, err := readStream(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, "ab", got)
}
