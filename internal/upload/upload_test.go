package upload

import (
	"bytes"
	"strings"
	"testing"
)

// pngHeader is a minimal valid PNG signature plus IHDR start, enough for
// content sniffing.
var pngHeader = []byte{
	0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n',
	0, 0, 0, 13, 'I', 'H', 'D', 'R',
}

func TestDataURLAcceptsPNG(t *testing.T) {
	got, err := DataURL("logo.png", pngHeader)
	if err != nil {
		t.Fatalf("DataURL() error = %v", err)
	}
	if !strings.HasPrefix(got, "data:image/png;base64,") {
		t.Errorf("DataURL() = %q, want image/png data URL", got)
	}
}

func TestDataURLAcceptsSVGByExtension(t *testing.T) {
	svg := []byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"></svg>`)
	got, err := DataURL("logo.svg", svg)
	if err != nil {
		t.Fatalf("DataURL() error = %v", err)
	}
	if !strings.HasPrefix(got, "data:image/svg+xml;base64,") {
		t.Errorf("DataURL() = %q, want image/svg+xml data URL", got)
	}
}

func TestDataURLRejectsNonImage(t *testing.T) {
	if _, err := DataURL("notes.txt", []byte("just some text")); err == nil {
		t.Error("expected an error for a text payload")
	}
	if _, err := DataURL("empty.png", nil); err == nil {
		t.Error("expected an error for an empty payload")
	}
}

func TestDataURLRejectsOversizePayload(t *testing.T) {
	big := bytes.Repeat([]byte{0xff}, MaxSize+1)
	copy(big, pngHeader)

	if _, err := DataURL("huge.png", big); err == nil {
		t.Error("expected an error for an oversize payload")
	}
}
