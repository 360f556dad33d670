// File: internal/vlm/ollama.go
package vlm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// OllamaClient talks to a local Ollama server hosting a vision-language
// model. Responses are streamed NDJSON chunks; the client concatenates them
// into one raw text and measures the full round trip.
type OllamaClient struct {
	endpoint   string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOllamaClient initializes the client. endpoint is the server base URL,
// e.g. http://localhost:11434.
func NewOllamaClient(endpoint, model string, timeout time.Duration, logger *zap.Logger) (*OllamaClient, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("ollama endpoint is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	return &OllamaClient{
		endpoint:   strings.TrimRight(endpoint, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("vlm.ollama"),
	}, nil
}

type chatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatChunk struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

// Propose asks the model for one atomic action. Transient network and 5xx
// failures are retried with exponential backoff; 4xx responses are
// permanent.
func (c *OllamaClient) Propose(ctx context.Context, req Request) (Response, error) {
	body, err := c.buildRequestBody(req)
	if err != nil {
		return Response{}, err
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 2 * time.Minute
	b.MaxInterval = 15 * time.Second

	start := time.Now()
	var raw string

	operation := func() error {
		httpReq, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/chat", bytes.NewReader(body))
		if reqErr != nil {
			return backoff.Permanent(fmt.Errorf("failed to create HTTP request: %w", reqErr))
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, doErr := c.httpClient.Do(httpReq)
		if doErr != nil {
			c.logger.Warn("Network error during model call, retrying...", zap.Error(doErr))
			return fmt.Errorf("failed to execute HTTP request: %w", doErr)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			apiErr := fmt.Errorf("model call failed with status %d: %s", resp.StatusCode, string(payload))
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return backoff.Permanent(apiErr)
			}
			c.logger.Warn("Server error during model call, retrying...", zap.Int("status", resp.StatusCode))
			return apiErr
		}

		streamed, streamErr := readStream(resp.Body)
		if streamErr != nil {
			// A malformed or failed stream is a model-side fault, not a
			// transient transport error.
			return backoff.Permanent(streamErr)
		}
		raw = streamed
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return Response{}, err
	}

	return Response{
		Raw:       strings.TrimSpace(raw),
		ElapsedMS: time.Since(start).Milliseconds(),
	}, nil
}

func (c *OllamaClient) buildRequestBody(req Request) ([]byte, error) {
	user := chatMessage{Role: "user", Content: req.Instruction}
	if req.ImagePath != "" {
		img, err := os.ReadFile(req.ImagePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read image %q: %w", req.ImagePath, err)
		}
		user.Images = []string{base64.StdEncoding.EncodeToString(img)}
	}

	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			user,
		},
		Stream: true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}
	return body, nil
}

// readStream concatenates the content of every streamed chunk.
func readStream(r io.Reader) (string, error) {
	var sb strings.Builder
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk chatChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			return "", fmt.Errorf("failed to decode stream chunk: %w", err)
		}
		if chunk.Error != "" {
			return "", fmt.Errorf("model stream error: %s", chunk.Error)
		}
		sb.WriteString(chunk.Message.Content)
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read model stream: %w", err)
	}
	return sb.String(), nil
}
