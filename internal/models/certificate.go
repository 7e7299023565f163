package models

import "time"

// DefaultCertificateType is used when an upload does not name a certificate type
const DefaultCertificateType = "general"

// Certificate represents an uploaded student certificate in the database
type Certificate struct {
	ID              int64     `json:"id"`
	StudentID       string    `json:"studentId"`
	FileName        string    `json:"fileName"`
	FilePath        string    `json:"filePath"`
	CertificateType string    `json:"certificateType"`
	Description     string    `json:"description"`
	UploadedAt      time.Time `json:"uploadedAt"`
}

// CertificateUpload carries the form fields of a certificate upload
type CertificateUpload struct {
	OriginalName    string
	StudentID       string
	CertificateType string
	Description     string
}

// CertificateUploadResult is returned by the service after a successful upload
type CertificateUploadResult struct {
	FileName      string
	FilePath      string
	CertificateID int64
}

// CertificateResponse is the {success, message} body of certificate endpoints
type CertificateResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	FileName      string `json:"fileName,omitempty"`
	FilePath      string `json:"filePath,omitempty"`
	CertificateID int64  `json:"certificateId,omitempty"`
}
