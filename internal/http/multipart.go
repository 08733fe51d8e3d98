package http

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/fivetwenty-io/easemob/internal/constants"
)

// encodeMultipart buffers the form so retries can replay it.
func encodeMultipart(file *MultipartFile) (interface{}, string, error) {
	field := file.Field
	if field == "" {
		field = constants.MultipartFileField
	}

	var buf bytes.Buffer

	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(field, filepath.Base(file.Filename))
	if err != nil {
		return nil, "", fmt.Errorf("creating multipart part: %w", err)
	}

	if file.Content != nil {
		_, err = io.Copy(part, file.Content)
		if err != nil {
			return nil, "", fmt.Errorf("reading upload content: %w", err)
		}
	}

	err = writer.Close()
	if err != nil {
		return nil, "", fmt.Errorf("closing multipart form: %w", err)
	}

	return bytes.NewReader(buf.Bytes()), writer.FormDataContentType(), nil
}

// saveBody streams body into path, removing the file if the copy fails.
func saveBody(body io.Reader, path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}

	_, err = io.Copy(file, body)

	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(path)

		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}
