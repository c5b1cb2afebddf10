package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// defaultHuggingFaceURL is the Inference API feature-extraction pipeline.
// The model name is appended to form the full request URL.
const defaultHuggingFaceURL = "https://api-inference.huggingface.co/pipeline/feature-extraction/"

// HuggingFaceModel is an embedding client backed by the Hugging Face
// Inference API. It serves the sentence-transformers family the knowledge
// base artifacts are built with.
type HuggingFaceModel struct {
	client  *http.Client
	model   string
	apiKey  string
	baseURL string
}

// NewHuggingFaceModel creates an Inference API client. An empty baseURL
// selects the public feature-extraction endpoint.
func NewHuggingFaceModel(apiKey, modelName, baseURL string) (*HuggingFaceModel, error) {
	if baseURL == "" {
		baseURL = defaultHuggingFaceURL
	}
	return &HuggingFaceModel{
		client:  &http.Client{},
		model:   modelName,
		apiKey:  apiKey,
		baseURL: baseURL,
	}, nil
}

// Embed generates the embedding vector for a single text.
func (m *HuggingFaceModel) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch generates embedding vectors for a batch of texts.
func (m *HuggingFaceModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	payload := map[string]interface{}{
		"inputs":  texts,
		"options": map[string]bool{"wait_for_model": true},
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", m.baseURL+m.model, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("inference api returned status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var embeddings [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&embeddings); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return embeddings, nil
}

var _ Model = (*HuggingFaceModel)(nil)
