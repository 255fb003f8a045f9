package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func newTestService(t *testing.T, serverURL string) *Service {
	t.Helper()
	dir := t.TempDir()
	writePromptFile(t, dir, "summarize.txt", "Summarize:\n{CONTENT}")
	writePromptFile(t, dir, "extract_concepts.txt", "Extract concepts:\n{CONTENT}")

	ps, err := NewPromptStore(dir, nil)
	if err != nil {
		t.Fatalf("NewPromptStore() error = %v", err)
	}
	t.Cleanup(func() { ps.Close() })

	client := New(Config{APIKey: "test-key", BaseURL: serverURL})
	return NewService(client, ps)
}

func TestService_Summarize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  a concise summary  "}}]}`))
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)
	got, err := svc.Summarize(context.Background(), "long document text", 100)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got != "a concise summary" {
		t.Errorf("Summarize() = %q, want %q", got, "a concise summary")
	}
}

func TestService_Summarize_Truncates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"0123456789"}}]}`))
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)
	got, err := svc.Summarize(context.Background(), "text", 5)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got != "01234" {
		t.Errorf("Summarize() = %q, want %q", got, "01234")
	}
}

func TestService_ExtractConcepts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		body := `{"choices":[{"message":{"content":"` +
			`{\"primary_concepts\":[{\"name\":\"graph databases\",\"summary\":\"store data as nodes and edges\"},\"indexing\"],` +
			`\"categories\":[\"databases\"],\"technical_terms\":[\"adjacency list\"]}` +
			`"}}]}`
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)
	got, err := svc.ExtractConcepts(context.Background(), "text about graph databases", ModeSinglePass)
	if err != nil {
		t.Fatalf("ExtractConcepts() error = %v", err)
	}

	if len(got.PrimaryConcepts) != 2 {
		t.Fatalf("PrimaryConcepts len = %d, want 2", len(got.PrimaryConcepts))
	}
	if got.PrimaryConcepts[0].Name != "graph databases" {
		t.Errorf("PrimaryConcepts[0].Name = %q", got.PrimaryConcepts[0].Name)
	}
	if got.PrimaryConcepts[1].Name != "indexing" {
		t.Errorf("PrimaryConcepts[1].Name (bare string form) = %q", got.PrimaryConcepts[1].Name)
	}
	if len(got.Categories) != 1 || got.Categories[0] != "databases" {
		t.Errorf("Categories = %v", got.Categories)
	}
}

func TestService_ExtractConcepts_WrappedInCodeFence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		body := "{\"choices\":[{\"message\":{\"content\":\"```json\\n{\\\"primary_concepts\\\":[],\\\"categories\\\":[]}\\n```\"}}]}"
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)
	got, err := svc.ExtractConcepts(context.Background(), "text", ModeChunk)
	if err != nil {
		t.Fatalf("ExtractConcepts() error = %v", err)
	}
	if got.PrimaryConcepts == nil && len(got.PrimaryConcepts) != 0 {
		t.Errorf("PrimaryConcepts = %v, want empty", got.PrimaryConcepts)
	}
}

func TestService_ExtractConcepts_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"not json at all"}}]}`))
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)
	_, err := svc.ExtractConcepts(context.Background(), "text", ModeChunk)
	if err == nil {
		t.Fatal("expected error for invalid JSON response, got nil")
	}
}

func TestDefaultPromptFiles_ExistAndRender(t *testing.T) {
	root := "../../prompts"
	if _, err := os.Stat(root); err != nil {
		t.Skipf("default prompts directory not present: %v", err)
	}

	ps, err := NewPromptStore(root, nil)
	if err != nil {
		t.Fatalf("NewPromptStore() error = %v", err)
	}
	defer ps.Close()

	for _, name := range []string{"summarize", "extract_concepts"} {
		rendered, err := ps.Render(name, "sample content")
		if err != nil {
			t.Fatalf("Render(%q) error = %v", name, err)
		}
		if !strings.Contains(rendered, "sample content") {
			t.Errorf("Render(%q) did not substitute content: %q", name, rendered)
		}
		if strings.Contains(rendered, "{CONTENT}") {
			t.Errorf("Render(%q) left placeholder unsubstituted", name)
		}
	}
}
