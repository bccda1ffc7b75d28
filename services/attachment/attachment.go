package attachment

import (
	"fmt"
	"path/filepath"
	"strings"

	"craftlink/models"
)

var attachmentTypes = map[string]models.AttachmentType{
	".jpg":  models.AttachmentImage,
	".jpeg": models.AttachmentImage,
	".png":  models.AttachmentImage,
	".gif":  models.AttachmentImage,
	".webp": models.AttachmentImage,
	".mp4":  models.AttachmentVideo,
	".mov":  models.AttachmentVideo,
	".webm": models.AttachmentVideo,
	".mkv":  models.AttachmentVideo,
}

// DetectType classifies a media file by extension.
func DetectType(path string) (models.AttachmentType, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := attachmentTypes[ext]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unsupported attachment type %q", ext)
}

// Stage adds a local media file to the draft. Attachments stay purely local
// until the upload that precedes booking submission.
func Stage(draft *models.BookingDraft, localPath string) error {
	if len(draft.Attachments) >= models.MaxDraftAttachments {
		return fmt.Errorf("at most %d attachments per booking", models.MaxDraftAttachments)
	}
	t, err := DetectType(localPath)
	if err != nil {
		return err
	}
	draft.Attachments = append(draft.Attachments, models.DraftAttachment{
		LocalPath: localPath,
		Type:      t,
	})
	return nil
}
