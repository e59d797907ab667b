package types

import "encoding/base64"

// Image: кадр, снятый камерой или загруженный файлом.
type Image struct {
	Data []byte
	MIME string // image/jpeg | image/png | image/webp
}

func (i Image) Empty() bool { return len(i.Data) == 0 }

// DataURI кодирует кадр в data:<mime>;base64,<payload>.
func (i Image) DataURI() string {
	return "data:" + i.MIME + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}
