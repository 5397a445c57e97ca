package assets

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

var ErrNotConfigured = errors.New("cloudinary credentials not configured")

const (
	defaultFolder      = "Photo_IA"
	defaultVideoFolder = "Video_IA"
)

// Uploader pushes accepted media to Cloudinary using the signed upload API.
type Uploader struct {
	CloudName   string
	APIKey      string
	BaseURL     string
	Folder      string
	VideoFolder string

	apiSecret string
	client    *http.Client
}

// NewUploader builds an uploader with explicit credentials.
func NewUploader(cloudName, apiKey, apiSecret string) (*Uploader, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, ErrNotConfigured
	}
	return &Uploader{
		CloudName:   cloudName,
		APIKey:      apiKey,
		BaseURL:     "https://api.cloudinary.com",
		Folder:      defaultFolder,
		VideoFolder: defaultVideoFolder,
		apiSecret:   apiSecret,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// NewUploaderFromEnv reads CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and
// CLOUDINARY_API_SECRET. Missing credentials are a deployment defect, reported
// as ErrNotConfigured so the caller can distinguish them from upload failures.
func NewUploaderFromEnv() (*Uploader, error) {
	u, err := NewUploader(
		os.Getenv("CLOUDINARY_CLOUD_NAME"),
		os.Getenv("CLOUDINARY_API_KEY"),
		os.Getenv("CLOUDINARY_API_SECRET"),
	)
	if err != nil {
		return nil, err
	}
	if folder := os.Getenv("CLOUDINARY_FOLDER"); folder != "" {
		u.Folder = folder
	}
	if folder := os.Getenv("CLOUDINARY_VIDEO_FOLDER"); folder != "" {
		u.VideoFolder = folder
	}
	return u, nil
}

// UploadResult is the stored asset reference returned by Cloudinary.
type UploadResult struct {
	PublicID     string `json:"public_id"`
	SecureURL    string `json:"secure_url"`
	Format       string `json:"format"`
	ResourceType string `json:"resource_type"`
	Bytes        int64  `json:"bytes"`
}

// ValidDataURI reports whether s looks like an inline base64 image.
func ValidDataURI(s string) bool {
	return strings.HasPrefix(s, "data:image/") && strings.Contains(s, ";base64,")
}

// Upload sends a data-URI image to Cloudinary and returns the stored asset
// reference. Callers must only write catalog records after Upload succeeds.
func (u *Uploader) Upload(ctx context.Context, dataURI string) (*UploadResult, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("file", dataURI); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := u.signForm(form, u.Folder); err != nil {
		return nil, err
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload form: %w", err)
	}

	return u.post(ctx, "image", form.FormDataContentType(), &body)
}

// UploadFile streams a raw media file to Cloudinary. resourceType selects the
// Cloudinary pipeline and the target folder: "video" goes to the video folder,
// anything else is treated as an image.
func (u *Uploader) UploadFile(ctx context.Context, filename string, file io.Reader, resourceType string) (*UploadResult, error) {
	folder := u.Folder
	if resourceType == "video" {
		folder = u.VideoFolder
	} else {
		resourceType = "image"
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read upload file: %w", err)
	}
	if err := u.signForm(form, folder); err != nil {
		return nil, err
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload form: %w", err)
	}

	return u.post(ctx, resourceType, form.FormDataContentType(), &body)
}

// signForm writes the signed parameter set shared by both upload paths.
func (u *Uploader) signForm(form *multipart.Writer, folder string) error {
	timestamp := time.Now().Unix()
	fields := map[string]string{
		"folder":    folder,
		"timestamp": strconv.FormatInt(timestamp, 10),
		"api_key":   u.APIKey,
		"signature": u.sign(folder, timestamp),
	}
	for name, value := range fields {
		if err := form.WriteField(name, value); err != nil {
			return fmt.Errorf("failed to build upload form: %w", err)
		}
	}
	return nil
}

func (u *Uploader) post(ctx context.Context, resourceType, contentType string, body io.Reader) (*UploadResult, error) {
	endpoint := fmt.Sprintf("%s/v1_1/%s/%s/upload", u.BaseURL, u.CloudName, resourceType)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to upload media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("cloudinary returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	if result.PublicID == "" {
		return nil, fmt.Errorf("cloudinary response missing public_id")
	}

	return &result, nil
}

// sign produces the SHA-1 signature Cloudinary expects over the signed
// parameters in alphabetical order, with the secret appended.
func (u *Uploader) sign(folder string, timestamp int64) string {
	toSign := fmt.Sprintf("folder=%s&timestamp=%d%s", folder, timestamp, u.apiSecret)
	sum := sha1.Sum([]byte(toSign))
	return hex.EncodeToString(sum[:])
}
