package model

import "fmt"

const (
	MaxPostImageSize      = 10 * 1024 * 1024 // 10MB per image
	PostImageMaxWidth     = 1080
	PostImageFolder       = "posts"
	PostImageExt          = ".jpg"
	PostImageCacheControl = "public, max-age=31536000" // 1 year
	PresignExpirySeconds  = 900
)

// Supported image content types for upload validation
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
	ContentTypeWebP = "image/webp"
)

var allowedImageTypes = map[string]struct{}{
	ContentTypeJPEG: {},
	ContentTypePNG:  {},
	ContentTypeGIF:  {},
	ContentTypeWebP: {},
}

// Error codes for HTTP responses
const (
	CodeFileTooLarge     = "FILE_TOO_LARGE"
	CodeInvalidImageType = "INVALID_IMAGE_TYPE"
	CodeMediaDisabled    = "MEDIA_DISABLED"
)

var (
	ErrFileTooLarge     = fmt.Errorf("%w: file too large", ErrInvalidOperation)
	ErrInvalidImageType = fmt.Errorf("%w: invalid image type", ErrInvalidOperation)
	ErrMediaDisabled    = fmt.Errorf("%w: media storage is not configured", ErrOperationFailed)
)

// UploadResult is where an uploaded object ended up. Key is kept so the
// object can be deleted together with its post.
type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// PresignPostUploadRequest requests a presigned URL for a direct upload.
// The client PUTs the bytes to UploadURL, then creates the post with PublicURL.
type PresignPostUploadRequest struct {
	ContentType string `json:"contentType"`
	FileSize    int64  `json:"fileSize"`
}

type PresignPostUploadResponse struct {
	UploadURL  string `json:"uploadUrl"`
	PublicURL  string `json:"publicUrl"`
	Key        string `json:"key"`
	ExpiresInS int    `json:"expiresIn"`
}

// IsAllowedImageType reports if the provided content type is supported
func IsAllowedImageType(contentType string) bool {
	_, ok := allowedImageTypes[contentType]
	return ok
}
