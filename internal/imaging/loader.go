package imaging

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// ImageInfo contains metadata about a loaded image.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the format derived from the file extension: "png", "jpeg",
	// "gif", "tiff", "bmp" or "unknown".
	Format string `json:"format"`

	// FileSizeBytes is the size of the file on disk, 0 for in-memory images.
	FileSizeBytes int64 `json:"file_size_bytes,omitempty"`
}

// Load opens and decodes the image at path.
//
// Supported formats are whatever disintegration/imaging registers: PNG, JPEG,
// GIF, TIFF and BMP. JPEG images are rotated according to their EXIF
// orientation tag so that returned pixel coordinates match what a viewer
// displays.
//
// Every call reads the file again; nothing is cached between calls.
func Load(path string) (image.Image, error) {
	if path == "" {
		return nil, fmt.Errorf("empty image path")
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}

	return img, nil
}

// LoadBytes decodes an image held in memory, e.g. an uploaded file.
func LoadBytes(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return img, nil
}

// Describe reports dimensions and format for an image loaded from path.
// path may be empty for images that never touched the disk.
func Describe(img image.Image, path string) (*ImageInfo, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image")
	}

	bounds := img.Bounds()
	info := &ImageInfo{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: formatFromPath(path),
	}

	if path != "" {
		stat, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat file: %w", err)
		}
		info.FileSizeBytes = stat.Size()
	}

	return info, nil
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".gif":
		return "gif"
	case ".tif", ".tiff":
		return "tiff"
	case ".bmp":
		return "bmp"
	}
	return "unknown"
}
