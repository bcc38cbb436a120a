package generation

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
)

// JPEGQuality is used when re-encoding normalized images.
const JPEGQuality = 90

// ErrUndecodableImage reports that PrepareImage could not decode the payload.
var ErrUndecodableImage = errors.New("image could not be decoded")

// PreparedImage is an image ready to be sent to a model or provider.
type PreparedImage struct {
	Data     []byte
	MIMEType string
	// Normalized is false when the original bytes were passed through.
	Normalized bool
}

// PrepareImage decodes data, applies EXIF orientation, bounds the longest
// side to maxDimension and re-encodes it as JPEG. When data cannot be decoded
// the original bytes are returned unchanged together with ErrUndecodableImage,
// so callers can log and carry on with the raw payload.
func PrepareImage(data []byte, maxDimension int) (PreparedImage, error) {
	if len(data) == 0 {
		return PreparedImage{}, ErrEmptyImage
	}

	passthrough := PreparedImage{Data: data, MIMEType: DetectMIME(data)}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return passthrough, fmt.Errorf("%w: %v", ErrUndecodableImage, err)
	}

	img = bound(img, maxDimension)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return passthrough, fmt.Errorf("failed to encode image: %w", err)
	}

	return PreparedImage{Data: buf.Bytes(), MIMEType: "image/jpeg", Normalized: true}, nil
}

// AsPrepared wraps bytes that were already normalized, sniffing their MIME
// type without decoding or re-encoding them.
func AsPrepared(data []byte) (PreparedImage, error) {
	if len(data) == 0 {
		return PreparedImage{}, ErrEmptyImage
	}
	return PreparedImage{Data: data, MIMEType: DetectMIME(data)}, nil
}

func bound(img image.Image, maxDimension int) image.Image {
	if maxDimension <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= maxDimension && b.Dy() <= maxDimension {
		return img
	}
	return imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
}

// DetectMIME sniffs the content type of data.
func DetectMIME(data []byte) string {
	return mimetype.Detect(data).String()
}

// DataURL encodes an image as a data URL, as expected by vision chat APIs.
func (p PreparedImage) DataURL() string {
	return "data:" + p.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}
