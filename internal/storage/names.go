package storage

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxBaseNameLength = 100

// SanitizeName replaces every rune outside [A-Za-z0-9._] with '_'.
// Runs of dots are broken up so the result can never form a parent reference,
// and a leading dot is replaced so the result is never a hidden file.
func SanitizeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isNameRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}

	out := b.String()
	for strings.Contains(out, "..") {
		out = strings.ReplaceAll(out, "..", "_.")
	}

	if len(out) > maxBaseNameLength {
		ext := filepath.Ext(out)
		if len(ext) >= maxBaseNameLength {
			ext = ""
		}
		out = out[:maxBaseNameLength-len(ext)] + ext
	}

	if out == "" || out == "." {
		return "file"
	}
	if strings.HasPrefix(out, ".") {
		out = "_" + out[1:]
	}
	return out
}

// GenerateNewsImageName builds <unix-millis>_<uuid8>_<sanitized original>
func GenerateNewsImageName(originalName string, now time.Time) string {
	return fmt.Sprintf("%d_%s_%s", now.UnixMilli(), uuid.New().String()[:8], SanitizeName(originalName))
}

// GenerateCertificateName builds <studentId>_<type>_<uuid><ext>.
// The extension is taken from the original name and is empty when it has none.
func GenerateCertificateName(studentID, certificateType, originalName string) string {
	ext := ""
	if idx := strings.LastIndex(originalName, "."); idx >= 0 && idx < len(originalName)-1 {
		ext = "." + strings.Trim(SanitizeName(originalName[idx+1:]), ".")
		if ext == "." {
			ext = ""
		}
	}
	return fmt.Sprintf("%s_%s_%s%s", SanitizeName(studentID), SanitizeName(certificateType), uuid.New().String(), ext)
}

func isNameRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '_'
}
