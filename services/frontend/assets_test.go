package frontend

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStaticHandlerServesAssets(t *testing.T) {
	srv := httptest.NewServer(http.StripPrefix("/static/", StaticHandler()))
	defer srv.Close()

	for _, name := range []string{"styles.css", "rsvp.js"} {
		resp, err := http.Get(srv.URL + "/static/" + name)
		if err != nil {
			t.Fatalf("get %s: %v", name, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", name, resp.StatusCode)
		}
	}
}

func TestRSVPScriptDropsMalformedStoredEntries(t *testing.T) {
	srv := httptest.NewServer(http.StripPrefix("/static/", StaticHandler()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/static/rsvp.js")
	if err != nil {
		t.Fatalf("get script: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read script: %v", err)
	}
	script := string(body)

	for _, want := range []string{
		"parsed.filter(validSubmission)",
		`typeof s.id === "number"`,
		`typeof s.children === "number"`,
		`typeof s.timestamp === "string"`,
	} {
		if !strings.Contains(script, want) {
			t.Fatalf("stored history is not validated on load: missing %q", want)
		}
	}
}
