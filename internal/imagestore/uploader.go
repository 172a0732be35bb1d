package imagestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

var ErrUpload = errors.New("image upload failed")

// Uploader stores image bytes and returns their public URL.
type Uploader interface {
	Upload(ctx context.Context, folder, filename string, data []byte) (string, error)
}

type Config struct {
	// URL is the account URL, cloudinary://<api_key>:<api_secret>@<cloud_name>.
	URL     string
	Timeout time.Duration
}

// CloudinaryUploader puts images in a Cloudinary folder and hands back
// their secure_url.
type CloudinaryUploader struct {
	cld     *cloudinary.Cloudinary
	timeout time.Duration
}

func NewCloudinaryUploader(cfg *Config) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary config: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CloudinaryUploader{cld: cld, timeout: timeout}, nil
}

var allowedExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}

func (u *CloudinaryUploader) Upload(ctx context.Context, folder, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrUpload)
	}
	if !allowedExt[strings.ToLower(path.Ext(filename))] {
		return "", fmt.Errorf("%w: unsupported file type %q", ErrUpload, path.Ext(filename))
	}

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	res, err := u.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:       folder,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpload, err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("%w: %s", ErrUpload, res.Error.Message)
	}
	if res.SecureURL == "" {
		return "", fmt.Errorf("%w: response has no secure_url", ErrUpload)
	}
	return res.SecureURL, nil
}
