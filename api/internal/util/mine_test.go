package util

import (
	"encoding/base64"
	"errors"
	"testing"

	"eye-check/api/internal/assess/types"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00}

func TestParseImageDataURI(t *testing.T) {
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader)
	img, err := ParseImage(uri)
	if err != nil {
		t.Fatalf("ParseImage: %v", err)
	}
	if img.MIME != "image/png" {
		t.Fatalf("expected image/png, got %s", img.MIME)
	}
	if len(img.Data) != len(pngHeader) {
		t.Fatalf("expected %d bytes, got %d", len(pngHeader), len(img.Data))
	}
	if img.DataURI() != uri {
		t.Fatalf("round trip mismatch: %s", img.DataURI())
	}
}

func TestParseImageSniffsRawBase64(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}
	img, err := ParseImage(base64.StdEncoding.EncodeToString(jpeg))
	if err != nil {
		t.Fatalf("ParseImage: %v", err)
	}
	if img.MIME != "image/jpeg" {
		t.Fatalf("expected image/jpeg, got %s", img.MIME)
	}
}

func TestParseImageRejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "not base64", in: "data:image/png;base64,@@@"},
		{name: "empty", in: ""},
		{name: "text mime", in: "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hi"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseImage(tt.in)
			if !errors.Is(err, types.ErrBadInput) {
				t.Fatalf("expected ErrBadInput, got %v", err)
			}
		})
	}
}

func TestSniffMimeHTTP(t *testing.T) {
	webp := []byte("RIFF\x00\x00\x00\x00WEBPVP8 ")
	if got := SniffMimeHTTP(webp); got != "image/webp" {
		t.Fatalf("expected image/webp, got %s", got)
	}
	if got := SniffMimeHTTP([]byte("GIF89a")); got != "application/octet-stream" {
		t.Fatalf("unexpected %s", got)
	}
}
