package scenario

import (
	"fmt"
	"net/http"
	"os"

	"github.com/mashiike/nimcheck"
)

// sampleImagePNG is a 1x1 red pixel, used when no image file is supplied.
var sampleImagePNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0xda, 0x63, 0xfc, 0xcf, 0xc0, 0xf0,
	0x1f, 0x00, 0x05, 0x05, 0x02, 0x00, 0x5f, 0xc8, 0xf1, 0xd2, 0x00, 0x00,
	0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func SampleImageDataURI() string {
	return nimcheck.ImageDataURI("image/png", sampleImagePNG)
}

// LoadImageDataURI reads an image file and wraps it as a data URI, with
// the MIME type sniffed from the content.
func LoadImageDataURI(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	return nimcheck.ImageDataURI(http.DetectContentType(data), data), nil
}
