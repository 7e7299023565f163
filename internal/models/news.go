package models

import (
	"strings"
	"time"
)

// NewsImagePathPrefix is the URL path under which managed news images are served
const NewsImagePathPrefix = "/uploads/news/"

// News represents a news article in the database
type News struct {
	ID          string    `json:"newsId"`
	AdminID     string    `json:"adminId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	NewsType    string    `json:"newsType"`
	PublishDate *Date     `json:"publishDate"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Version     int       `json:"version"`
}

// NewsRequest is the body of create and update requests.
// Version is optional on update; when set it must match the stored version.
type NewsRequest struct {
	NewsID      string `json:"newsId"`
	AdminID     string `json:"adminId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	NewsType    string `json:"newsType"`
	PublishDate *Date  `json:"publishDate"`
	Active      *bool  `json:"active"`
	Version     int    `json:"version"`
}

// ImageUpload describes an incoming image before it is stored
type ImageUpload struct {
	OriginalName string
	ContentType  string
	Size         int64
}

// ImageUploadResponse is returned by POST /news/upload-image
type ImageUploadResponse struct {
	Filename string `json:"filename"`
	ImageURL string `json:"imageUrl"`
}

// ImageReplaceResponse is returned by POST /news/{id}/update-image
type ImageReplaceResponse struct {
	Message  string `json:"message"`
	ImageURL string `json:"imageUrl"`
}

// NewsImageStoredName extracts the stored file name from a managed image URL.
// Only relative paths under NewsImagePathPrefix and absolute URLs under baseURL are managed;
// an image hosted anywhere else reports false even if its path looks the same.
func NewsImageStoredName(imageURL, baseURL string) (string, bool) {
	path := imageURL
	if baseURL != "" && strings.HasPrefix(path, baseURL+NewsImagePathPrefix) {
		path = strings.TrimPrefix(path, baseURL)
	}
	if !strings.HasPrefix(path, NewsImagePathPrefix) {
		return "", false
	}
	name := strings.TrimPrefix(path, NewsImagePathPrefix)
	if name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}

// NewsImageReferencedName returns the file name any URL pointing into a news upload directory refers to.
// It over-matches on purpose for callers deciding which files to keep.
func NewsImageReferencedName(imageURL string) (string, bool) {
	if !strings.Contains(imageURL, NewsImagePathPrefix) {
		return "", false
	}
	name := imageURL[strings.LastIndex(imageURL, "/")+1:]
	if name == "" {
		return "", false
	}
	return name, true
}
