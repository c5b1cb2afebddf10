package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHuggingFaceEmbedBatch(t *testing.T) {
	var gotPath, gotAuth string
	var gotPayload map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([][]float32{{0.1, 0.2}, {0.3, 0.4}})
	}))
	defer srv.Close()

	m, err := NewHuggingFaceModel("test-key", "sentence-transformers/all-mpnet-base-v2", srv.URL+"/")
	require.NoError(t, err)

	embeddings, err := m.EmbedBatch(context.Background(), []string{"cardiology", "orthopedics"})
	require.NoError(t, err)

	assert.Equal(t, "/sentence-transformers/all-mpnet-base-v2", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, []interface{}{"cardiology", "orthopedics"}, gotPayload["inputs"])

	require.Len(t, embeddings, 2)
	assert.Equal(t, []float32{0.1, 0.2}, embeddings[0])
	assert.Equal(t, []float32{0.3, 0.4}, embeddings[1])
}

func TestHuggingFaceEmbedSingle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([][]float32{{1, 2, 3}})
	}))
	defer srv.Close()

	m, err := NewHuggingFaceModel("key", "model", srv.URL+"/")
	require.NoError(t, err)

	vec, err := m.Embed(context.Background(), "where is the hospital located?")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, vec)
}

func TestHuggingFaceEmbedBatchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"model is overloaded"}`))
	}))
	defer srv.Close()

	m, err := NewHuggingFaceModel("key", "model", srv.URL+"/")
	require.NoError(t, err)

	_, err = m.EmbedBatch(context.Background(), []string{"anything"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
