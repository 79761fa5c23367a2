package storage

import (
	"context"
	"fmt"
	"io"

	"vendora/config"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const receiptFolder = "vendora/receipts"

// StorageService stores receipt evidence images.
type StorageService interface {
	// UploadReceiptImage stores the image under the receipts folder, keyed by
	// payment so a re-upload of the same evidence overwrites rather than
	// accumulates. Returns the permanent URL.
	UploadReceiptImage(ctx context.Context, file io.Reader, paymentID string) (string, error)
	DeleteReceiptImage(ctx context.Context, paymentID string) error
}

// CloudinaryStorage implements StorageService on Cloudinary.
type CloudinaryStorage struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryStorage builds the storage service from configuration.
func NewCloudinaryStorage() (*CloudinaryStorage, error) {
	cfg := config.AppConfig
	if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials not configured")
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}
	return &CloudinaryStorage{cld: cld}, nil
}

func (s *CloudinaryStorage) UploadReceiptImage(ctx context.Context, file io.Reader, paymentID string) (string, error) {
	overwrite := true
	result, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:    receiptFolder,
		PublicID:  paymentID,
		Overwrite: &overwrite,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload receipt image: %w", err)
	}
	if result.SecureURL == "" {
		return "", fmt.Errorf("no URL returned for receipt image upload")
	}
	return result.SecureURL, nil
}

func (s *CloudinaryStorage) DeleteReceiptImage(ctx context.Context, paymentID string) error {
	publicID := receiptFolder + "/" + paymentID
	if _, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID}); err != nil {
		return fmt.Errorf("failed to delete receipt image: %w", err)
	}
	return nil
}
