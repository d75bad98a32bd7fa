package files

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	dErrors "medvault/pkg/domain-errors"
)

func TestValidatorRejectsOversizedFile(t *testing.T) {
	v := NewValidator(1024)

	_, err := v.Validate("report.pdf", 2048, strings.NewReader("%PDF-1.4"))

	var dErr dErrors.Error
	require.ErrorAs(t, err, &dErr)
	require.Equal(t, dErrors.CodePayloadTooLarge, dErr.Code)
}

func TestValidatorRejectsDisallowedExtension(t *testing.T) {
	v := NewValidator(0)

	_, err := v.Validate("malware.exe", 10, strings.NewReader("MZ"))

	var dErr dErrors.Error
	require.ErrorAs(t, err, &dErr)
	require.Equal(t, dErrors.CodeUnsupportedMedia, dErr.Code)
}

func TestValidatorRejectsSpoofedContent(t *testing.T) {
	v := NewValidator(0)

	// PNG signature wearing a .pdf name.
	body := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

	_, err := v.Validate("records.pdf", int64(len(body)), bytes.NewReader(body))

	var dErr dErrors.Error
	require.ErrorAs(t, err, &dErr)
	require.Equal(t, dErrors.CodeBadRequest, dErr.Code)
	require.Equal(t, "file content doesn't match file extension", dErr.Description)
}

func TestValidatorAcceptsGenuinePDF(t *testing.T) {
	v := NewValidator(0)
	body := []byte("%PDF-1.4 test document body")

	reader := bytes.NewReader(body)
	result, err := v.Validate("medical_record.pdf", int64(len(body)), reader)
	require.NoError(t, err)
	require.Equal(t, ".pdf", result.Extension)
	require.Equal(t, "application/pdf", result.MIMEType)

	// The stream must be rewound so the pipeline can consume the full body.
	rest, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.Equal(t, body, rest)
}

func TestValidatorAcceptsExtensionWithoutExpectedMIME(t *testing.T) {
	v := NewValidator(0)
	body := []byte("plain notes about an appointment")

	result, err := v.Validate("notes.txt", int64(len(body)), bytes.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, "text/plain", result.MIMEType)
}

func TestValidatorOverrideReplacesAllowList(t *testing.T) {
	v := NewValidator(0, "pdf", ".TXT")

	body := []byte("%PDF-1.4 test")
	_, err := v.Validate("scan.pdf", int64(len(body)), bytes.NewReader(body))
	require.NoError(t, err)

	_, err = v.Validate("photo.png", 10, strings.NewReader("\x89PNG"))
	var dErr dErrors.Error
	require.ErrorAs(t, err, &dErr)
	require.Equal(t, dErrors.CodeUnsupportedMedia, dErr.Code)
}

func TestValidatorReadErrorSurfaces(t *testing.T) {
	v := NewValidator(0)

	_, err := v.Validate("report.pdf", 10, failingReadSeeker{})
	require.Error(t, err)

	var dErr dErrors.Error
	require.False(t, errors.As(err, &dErr))
}

type failingReadSeeker struct{}

func (failingReadSeeker) Read([]byte) (int, error)       { return 0, errors.New("broken stream") }
func (failingReadSeeker) Seek(int64, int) (int64, error) { return 0, errors.New("broken stream") }
