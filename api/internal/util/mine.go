package util

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"eye-check/api/internal/assess/types"
)

func SniffMimeHTTP(b []byte) string {
	// JPEG: FF D8
	if len(b) >= 2 && b[0] == 0xFF && b[1] == 0xD8 {
		return "image/jpeg"
	}
	// PNG
	if len(b) >= 8 &&
		b[0] == 0x89 && b[1] == 0x50 && b[2] == 0x4E && b[3] == 0x47 &&
		b[4] == 0x0D && b[5] == 0x0A && b[6] == 0x1A && b[7] == 0x0A {
		return "image/png"
	}
	// WEBP: RIFF....WEBP
	if len(b) >= 12 && string(b[0:4]) == "RIFF" && string(b[8:12]) == "WEBP" {
		return "image/webp"
	}
	return "application/octet-stream"
}

// DecodeBase64MaybeDataURL декодирует base64. Если это data:URI, вернёт MIME из префикса.
func DecodeBase64MaybeDataURL(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	var hintMIME string
	if len(s) >= 5 && strings.EqualFold(s[:5], "data:") {
		// data:<mime>;base64,<payload>
		if idx := strings.IndexByte(s, ','); idx > 0 {
			meta := s[len("data:"):idx] // "<mime>;base64"
			if semi := strings.IndexByte(meta, ';'); semi >= 0 {
				hintMIME = meta[:semi]
			} else {
				hintMIME = meta
			}
			s = s[idx+1:]
		}
	}
	// Стандартная база64, затем URL-safe и без паддинга: на случай вариаций
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding, base64.RawStdEncoding} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, strings.ToLower(strings.TrimSpace(hintMIME)), nil
		}
	}
	return nil, "", fmt.Errorf("%w: image is not valid base64", types.ErrBadInput)
}

// PickMIME берём явный MIME, затем из data:URI, иначе детектим по байтам.
func PickMIME(explicit, hint string, data []byte) string {
	if exp := strings.TrimSpace(explicit); exp != "" {
		return strings.ToLower(exp)
	}
	if h := strings.TrimSpace(hint); h != "" {
		return strings.ToLower(h)
	}
	if len(data) > 0 {
		if m := SniffMimeHTTP(data); m != "application/octet-stream" {
			return m
		}
		return http.DetectContentType(data)
	}
	return "image/jpeg"
}

// IsImageMIME: форматы, которые принимают оба вендора.
func IsImageMIME(m string) bool {
	switch strings.ToLower(strings.TrimSpace(m)) {
	case "image/jpeg", "image/jpg", "image/png", "image/webp":
		return true
	}
	return false
}

// ParseImage разбирает data URI (или голый base64) в кадр с проверенным MIME.
func ParseImage(s string) (types.Image, error) {
	data, hint, err := DecodeBase64MaybeDataURL(s)
	if err != nil {
		return types.Image{}, err
	}
	if len(data) == 0 {
		return types.Image{}, fmt.Errorf("%w: image is empty", types.ErrBadInput)
	}
	mime := PickMIME("", hint, data)
	if mime == "image/jpg" {
		mime = "image/jpeg"
	}
	if !IsImageMIME(mime) {
		return types.Image{}, types.ErrUnsupportedImage
	}
	return types.Image{Data: data, MIME: mime}, nil
}
