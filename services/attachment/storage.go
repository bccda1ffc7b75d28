package attachment

import (
	"context"
	"fmt"

	"craftlink/models"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
)

// Uploader pushes one staged file to media storage and returns its permanent
// identifier and public URL.
type Uploader interface {
	Upload(ctx context.Context, localPath, destFolder string) (publicID, url string, err error)
}

// CloudinaryUploader implements Uploader over Cloudinary.
type CloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryUploader initializes the Cloudinary client from credentials.
func NewCloudinaryUploader(cloudName, apiKey, apiSecret string) (*CloudinaryUploader, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("cloudinary credentials not set in configuration")
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &CloudinaryUploader{cld: cld}, nil
}

// Upload uploads a file into the specified folder.
func (u *CloudinaryUploader) Upload(ctx context.Context, localPath, destFolder string) (string, string, error) {
	result, err := u.cld.Upload.Upload(ctx, localPath, uploader.UploadParams{Folder: destFolder})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload file: %w", err)
	}
	if result.PublicID == "" {
		return "", "", fmt.Errorf("no public ID returned for %s", localPath)
	}
	return result.PublicID, result.SecureURL, nil
}

// Service uploads a draft's staged attachments ahead of booking creation.
type Service struct {
	Uploader Uploader
	Folder   string // destination folder prefix, e.g. "bookings"
	Logger   *zap.Logger
}

// UploadAll uploads every staged attachment in order and records the public
// ID and URL on each. Any single failure aborts the whole batch so no
// booking is created against half-uploaded media.
func (s *Service) UploadAll(ctx context.Context, draft *models.BookingDraft) ([]string, error) {
	urls := make([]string, 0, len(draft.Attachments))
	for i := range draft.Attachments {
		att := &draft.Attachments[i]
		if att.URL != "" {
			urls = append(urls, att.URL)
			continue
		}
		folder := s.Folder + "/" + draft.DraftID
		publicID, url, err := s.Uploader.Upload(ctx, att.LocalPath, folder)
		if err != nil {
			return nil, fmt.Errorf("attachment %d (%s): %w", i+1, att.LocalPath, err)
		}
		att.PublicID = publicID
		att.URL = url
		urls = append(urls, url)
		s.Logger.Debug("attachment uploaded",
			zap.String("draftId", draft.DraftID),
			zap.String("publicId", publicID))
	}
	return urls, nil
}
