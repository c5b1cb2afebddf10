package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// chatSource is one knowledge entry an answer drew on.
type chatSource struct {
	ID    string  `json:"id"`
	Kind  string  `json:"kind"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// chatAnswer mirrors the chat endpoint's response body.
type chatAnswer struct {
	Response  string       `json:"response"`
	SessionID string       `json:"session_id"`
	Sources   []chatSource `json:"sources"`
}

// The generous timeout covers a cold model provider on the first question.
var httpClient = &http.Client{Timeout: 120 * time.Second}

func ask(question, session string) (*chatAnswer, error) {
	payload := map[string]string{"question": question, "session_id": session}
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error creating JSON payload: %w", err)
	}

	resp, err := httpClient.Post(serverURL+"/api/v1/chat", "application/json", bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("cannot reach the assistant service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr["error"] != "" {
			return nil, fmt.Errorf("the assistant returned status %d: %s", resp.StatusCode, apiErr["error"])
		}
		return nil, fmt.Errorf("the assistant returned status %d", resp.StatusCode)
	}

	var answer chatAnswer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}
	return &answer, nil
}

func checkHealth() {
	resp, err := httpClient.Get(serverURL + "/health")
	if err != nil {
		log.Fatalf("Cannot connect to the assistant service: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Health check failed, status code: %d", resp.StatusCode)
	}

	var health struct {
		Status   string `json:"status"`
		Entries  int    `json:"entries"`
		Sessions int    `json:"sessions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		log.Fatalf("Error decoding response: %v", err)
	}
	fmt.Printf("Status: %s\nKnowledge entries: %d\nLive sessions: %d\n", health.Status, health.Entries, health.Sessions)
}

func clearSession(id string) {
	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/v1/chat/sessions/%s", serverURL, id), nil)
	if err != nil {
		log.Fatalf("Error creating request: %v", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		log.Fatalf("Error clearing session: %v", err)
	}
	defer resp.Body.Close()

	var result struct {
		SessionID string `json:"session_id"`
		Cleared   bool   `json:"cleared"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Fatalf("Error decoding response: %v", err)
	}
	if result.Cleared {
		fmt.Printf("Session %s cleared.\n", result.SessionID)
	} else {
		fmt.Printf("Session %s was not found.\n", result.SessionID)
	}
}
