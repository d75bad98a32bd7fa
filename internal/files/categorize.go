package files

import "strings"

// Filename vocabularies checked before MIME buckets: a scanned lab report
// saved as a .jpg is still a medical record.
var (
	medicalKeywords = []string{"medical", "record", "diagnosis", "treatment", "prescription", "lab", "xray", "mri", "ct"}
	serviceKeywords = []string{"service", "military", "dd214", "discharge", "veteran"}
)

// Categorize buckets a file by filename keywords first, MIME type second.
func Categorize(filename, mimeType string) Category {
	lower := strings.ToLower(filename)

	for _, keyword := range medicalKeywords {
		if strings.Contains(lower, keyword) {
			return CategoryMedicalRecord
		}
	}
	for _, keyword := range serviceKeywords {
		if strings.Contains(lower, keyword) {
			return CategoryServiceRecord
		}
	}

	if strings.HasPrefix(mimeType, "image/") {
		return CategoryPhoto
	}
	switch mimeType {
	case "application/pdf", "application/msword", "text/plain":
		return CategoryDocument
	}
	return CategoryOther
}
