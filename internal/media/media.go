// Package media uploads person photos to a media host and returns their
// public URLs.
//
// Two hosts are supported: Cloudinary with an unsigned upload preset, and a
// directory on local disk served by the API server under /media/. Both run
// the photo through Prepare first, so whatever the browser sends is stored as
// an upright JPEG no larger than MaxEdge pixels on its longest side. Photos
// Prepare cannot decode are rejected by the local host and passed to
// Cloudinary unchanged.
package media

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Blob is an image as received from a client.
type Blob struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Uploader stores a blob on a media host.
// Upload returns the public URL of the stored image.
type Uploader interface {
	Upload(ctx context.Context, blob Blob) (string, error)
}

var (
	// ErrEmptyBlob is returned when a blob carries no bytes.
	ErrEmptyBlob = errors.New("media: empty image")

	// ErrNotImage is returned when the bytes cannot be decoded as an image.
	ErrNotImage = errors.New("media: not a decodable image")
)

var uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "mypeeps",
	Subsystem: "media",
	Name:      "uploads_total",
	Help:      "Photo uploads by host and outcome.",
}, []string{"host", "outcome"})

func observeUpload(host string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	uploadsTotal.WithLabelValues(host, outcome).Inc()
}
