package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeProvider struct {
	name    string
	content string
	err     error
	calls   int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(context.Context, Request) (string, error) {
	f.calls++
	return f.content, f.err
}

func TestChainFallsBack(t *testing.T) {
	broken := &fakeProvider{name: "broken", err: errors.New("rate limited")}
	working := &fakeProvider{name: "working", content: `{"question": "q"}`}

	chain := NewChain(broken, working)

	got, err := chain.Generate(context.Background(), Request{Language: "en", Difficulty: 2})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != working.content {
		t.Errorf("content = %q", got)
	}
	if broken.calls != 1 || working.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", broken.calls, working.calls)
	}
}

func TestChainSkipsNilProviders(t *testing.T) {
	working := &fakeProvider{name: "working", content: "x"}

	chain := NewChain(nil, working, nil)
	if chain.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", chain.Len())
	}

	if _, err := chain.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
}

func TestChainAllFailed(t *testing.T) {
	a := &fakeProvider{name: "a", err: errors.New("down")}
	b := &fakeProvider{name: "b", err: errors.New("also down")}

	_, err := NewChain(a, b).Generate(context.Background(), Request{})
	if !errors.Is(err, ErrAllProvidersFailed) {
		t.Fatalf("err = %v, want ErrAllProvidersFailed", err)
	}
}

func TestChainEmpty(t *testing.T) {
	_, err := NewChain(nil, nil).Generate(context.Background(), Request{})
	if !errors.Is(err, ErrNoProviders) {
		t.Fatalf("err = %v, want ErrNoProviders", err)
	}
}

func TestChatClient(t *testing.T) {
	const content = `{"question": "What is the capital of France?"}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "test-model" || len(req.Messages) != 2 {
			t.Errorf("request = %+v", req)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		})
	}))
	defer server.Close()

	client := NewChatClient(ChatConfig{
		Name:       "test",
		BaseURL:    server.URL,
		APIKey:     "test-key",
		Model:      "test-model",
		HTTPClient: server.Client(),
	})

	got, err := client.Generate(context.Background(), Request{Language: "en", Difficulty: 3})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != content {
		t.Errorf("content = %q", got)
	}
}

func TestChatClientHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewChatClient(ChatConfig{
		Name:       "test",
		BaseURL:    server.URL,
		APIKey:     "k",
		Model:      "m",
		HTTPClient: server.Client(),
	})

	if _, err := client.Generate(context.Background(), Request{}); err == nil {
		t.Fatal("expected an error for a non-200 response")
	}
}

func TestKeylessConstructorsReturnNil(t *testing.T) {
	if NewOpenAIClient("", "model", nil) != nil {
		t.Error("openai client without key should be nil")
	}
	if NewGroqClient("  ", "model", nil) != nil {
		t.Error("groq client without key should be nil")
	}
	if NewGeminiClient("", "model", nil) != nil {
		t.Error("gemini client without key should be nil")
	}
}
