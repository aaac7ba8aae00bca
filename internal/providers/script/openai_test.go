package script

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestOpenAIGeneratorReturnsModelText(t *testing.T) {
	t.Parallel()
	gen, err := NewOpenAIGenerator(OpenAIOptions{
		APIKey: "dummy",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.URL.Path != "/v1/chat/completions" {
				t.Errorf("path = %q", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer dummy" {
				t.Errorf("Authorization = %q", got)
			}
			return jsonResponse(200, `{"choices":[{"message":{"content":"Black holes bend spacetime."}}]}`), nil
		})},
	})
	if err != nil {
		t.Fatalf("NewOpenAIGenerator returned error: %v", err)
	}
	res, err := gen.Generate(context.Background(), Request{Query: "black holes", PersonaName: "Morgan Freeman"})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if res.Text != "Black holes bend spacetime." {
		t.Fatalf("Text = %q", res.Text)
	}
	if res.Provider != openAIProviderName {
		t.Fatalf("Provider = %q, want %q", res.Provider, openAIProviderName)
	}
}

func TestOpenAIGeneratorFallsBackOnTransportError(t *testing.T) {
	t.Parallel()
	var capturedReason string
	gen, err := NewOpenAIGenerator(OpenAIOptions{
		APIKey: "dummy",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return nil, errors.New("boom")
		})},
		OnFallback: func(reason string, err error) {
			capturedReason = reason
		},
	})
	if err != nil {
		t.Fatalf("NewOpenAIGenerator returned error: %v", err)
	}
	res, err := gen.Generate(context.Background(), Request{Query: "black holes", PersonaName: "Morgan Freeman"})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if res.Provider != staticProviderName {
		t.Fatalf("Provider = %q, want %q", res.Provider, staticProviderName)
	}
	if capturedReason != "http_request" {
		t.Fatalf("fallback reason = %q, want %q", capturedReason, "http_request")
	}
	if !strings.Contains(res.Text, "Morgan Freeman") {
		t.Fatalf("fallback text should name the persona: %q", res.Text)
	}
}

func TestNewOpenAIGeneratorRequiresKey(t *testing.T) {
	t.Parallel()
	if _, err := NewOpenAIGenerator(OpenAIOptions{}); err == nil {
		t.Fatal("expected an error for a missing api key")
	}
}

func TestStaticGeneratorTitlesTopic(t *testing.T) {
	t.Parallel()
	res, err := NewStaticGenerator().Generate(context.Background(), Request{Query: "quantum entanglement", PersonaName: "Neil deGrasse Tyson"})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if !strings.HasPrefix(res.Text, "Quantum Entanglement.") {
		t.Fatalf("Text = %q, want title-cased opener", res.Text)
	}
}
