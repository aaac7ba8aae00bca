package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestPersonasHidesInternalFields(t *testing.T) {
	t.Parallel()
	app := newTestApp(newFakeJobRepo(), testPersonas(), &fakeEnqueuer{}, &fakeStore{})

	req := httptest.NewRequest("GET", "/api/personas", nil)
	rr := httptest.NewRecorder()
	app.Personas(rr, req)

	if rr.Code != 200 {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp []map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("personas = %d, want 1", len(resp))
	}
	p := resp[0]
	if p["id"] != "p1" || p["name"] != "Morgan Freeman" {
		t.Fatalf("unexpected persona payload: %#v", p)
	}
	if _, leaked := p["style_prompt"]; leaked {
		t.Fatal("style_prompt leaked to the public payload")
	}
	if _, leaked := p["voice_id"]; leaked {
		t.Fatal("voice_id leaked to the public payload")
	}
}
