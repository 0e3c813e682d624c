package models

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strings"
	"time"

	"GoTrackerAI/app/utils/restclient"
)

const chatEndpoint = "/api/chat"

var _ Interface = &ChatClient{}

// ChatClient talks to an Ollama-compatible chat endpoint. The server may
// answer with a stream of concatenated JSON objects; the client joins the
// content of every fragment into one reply.
type ChatClient struct {
	restClient restclient.Interface
	model      string
}

func NewChatClient(baseURL, model string) *ChatClient {
	if baseURL == "" {
		baseURL = os.Getenv("LLM_BASE_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &ChatClient{
		restClient: restclient.NewRestClient(baseURL, nil),
		model:      model,
	}
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatFragment struct {
	Model   string  `json:"model"`
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}

func (c *ChatClient) Chat(ctx context.Context, messages []Message) (string, error) {
	payload := chatRequest{
		Model:    c.model,
		Messages: messages,
	}

	content, err := c.sendRequestAndParse(ctx, payload, 3)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		return "", errors.New("empty completion content")
	}
	return content, nil
}

func (c *ChatClient) sendRequestAndParse(ctx context.Context, payload chatRequest, maxRetries int) (string, error) {
	var err error
	var response []byte
	var status int

	for i := 0; i < maxRetries; i++ {
		select {
		case <-ctx.Done():
			log.Println("🚨 Completion request canceled before execution")
			return "", ctx.Err()
		default:
			if err != nil {
				time.Sleep(time.Duration(math.Pow(2, float64(i))) * 100 * time.Millisecond)
			}
			response, status, err = c.restClient.Post(ctx, chatEndpoint, payload, nil)
			if err != nil {
				log.Printf("⚠️ Completion attempt %d failed: %v", i, err)
				continue
			}
			if status != 200 {
				err = fmt.Errorf("completion http %d: %s", status, string(response))
				log.Printf("⚠️ Completion attempt %d failed: %v", i, err)
				continue
			}

			var content string
			if content, err = collectContent(response); err != nil {
				log.Printf("⚠️ Error parsing completion response: %v", err)
				continue
			}
			return content, nil
		}
	}

	return "", fmt.Errorf("completion failed after %d retries: %w", maxRetries, err)
}

// collectContent joins the message content across every JSON object in the
// body. Streaming responses arrive as one object per chunk.
func collectContent(body []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	var sb strings.Builder
	var decoded bool
	for {
		var fragment chatFragment
		if err := dec.Decode(&fragment); err != nil {
			if err == io.EOF {
				break
			}
			return "", fmt.Errorf("decode completion fragment: %w", err)
		}
		decoded = true
		sb.WriteString(fragment.Message.Content)
	}
	if !decoded {
		return "", errors.New("completion response carried no JSON objects")
	}
	return sb.String(), nil
}
