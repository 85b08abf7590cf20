// Package imagehost uploads avatar images to the hosting service: a
// multipart POST with a fixed upload preset that answers with a public URL.
package imagehost

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/chai2010/webp"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

// ErrNoURL means the upload response carried no usable URL.
var ErrNoURL = errors.New("imagehost: upload response missing url")

// maxDim bounds the uploaded avatar; anything larger is downscaled.
const maxDim = 512

const webpQuality = 80

type Uploader struct {
	client *resty.Client
	preset string
	logger *zap.Logger
}

func NewUploader(cloudName, preset string, logger *zap.Logger) *Uploader {
	client := resty.New().
		SetBaseURL(fmt.Sprintf("https://api.cloudinary.com/v1_1/%s", cloudName))
	return &Uploader{client: client, preset: preset, logger: logger}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload re-encodes the image (bounded square, webp) and posts it under the
// configured preset, returning the hosted URL.
func (u *Uploader) Upload(ctx context.Context, r io.Reader) (string, error) {
	encoded, err := reencode(r)
	if err != nil {
		return "", err
	}

	var out uploadResponse
	resp, err := u.client.R().
		SetContext(ctx).
		SetFileReader("file", "profile_pic.webp", bytes.NewReader(encoded)).
		SetFormData(map[string]string{"upload_preset": u.preset}).
		SetResult(&out).
		Post("/image/upload")
	if err != nil {
		return "", err
	}
	if resp.IsError() || out.SecureURL == "" {
		u.logger.Warn("image upload rejected",
			zap.Int("status", resp.StatusCode()),
			zap.String("message", out.Error.Message),
		)
		return "", ErrNoURL
	}
	return out.SecureURL, nil
}

func reencode(r io.Reader) ([]byte, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > maxDim || h > maxDim {
		scale := float64(maxDim) / float64(max(w, h))
		dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, src, &webp.Options{Quality: webpQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
