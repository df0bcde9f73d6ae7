package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type ChatConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// ChatGateway calls the LLM provider's chat-completions API for the
// table-side assistant.
type ChatGateway struct {
	config     ChatConfig
	httpClient *http.Client
}

func NewChatGateway(cfg ChatConfig) *ChatGateway {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	return &ChatGateway{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (cg *ChatGateway) Complete(turns []ChatTurn) (string, error) {
	payload := map[string]interface{}{
		"model":    cg.config.Model,
		"messages": turns,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequest("POST", cg.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cg.config.APIKey)

	resp, err := cg.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat gateway request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat gateway error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("chat gateway returned no choices")
	}
	return chatResp.Choices[0].Message.Content, nil
}
