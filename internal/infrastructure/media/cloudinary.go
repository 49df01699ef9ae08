// Package media stores uploaded post files in Cloudinary.
package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/lllypuk/eventboard/internal/config"
	"github.com/lllypuk/eventboard/internal/domain/errs"
)

const defaultFolder = "eventboard"

// assetUploader is the part of the Cloudinary upload API the uploader uses.
type assetUploader interface {
	Upload(ctx context.Context, file any, params uploader.UploadParams) (*uploader.UploadResult, error)
}

// CloudinaryUploader uploads files and returns their public HTTPS URLs.
type CloudinaryUploader struct {
	api    assetUploader
	folder string
	logger *slog.Logger
}

// NewCloudinaryUploader creates an uploader from the media configuration.
func NewCloudinaryUploader(cfg config.MediaConfig, logger *slog.Logger) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return newCloudinaryUploader(&cld.Upload, cfg.Folder, logger), nil
}

func newCloudinaryUploader(api assetUploader, folder string, logger *slog.Logger) *CloudinaryUploader {
	if folder == "" {
		folder = defaultFolder
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudinaryUploader{api: api, folder: folder, logger: logger}
}

// Upload stores the content of r and returns its URL. Cloudinary detects
// whether the file is an image, a video or a raw file.
func (u *CloudinaryUploader) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	result, err := u.api.Upload(ctx, r, uploader.UploadParams{
		Folder:       u.folder,
		ResourceType: "auto",
	})
	if err != nil {
		u.logger.ErrorContext(ctx, "media upload failed",
			slog.String("file", name),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("%w: failed to upload %s: %w", errs.ErrUpstream, name, err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("%w: failed to upload %s: %s", errs.ErrUpstream, name, result.Error.Message)
	}

	u.logger.DebugContext(ctx, "media uploaded", slog.String("file", name), slog.String("url", result.SecureURL))
	return result.SecureURL, nil
}
