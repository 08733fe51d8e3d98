package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/easemob/internal/constants"
	internalhttp "github.com/fivetwenty-io/easemob/internal/http"
	"github.com/fivetwenty-io/easemob/pkg/easemob"
)

// FilesClient implements easemob.FilesClient.
type FilesClient struct {
	httpClient *internalhttp.Client
}

// NewFilesClient creates a new files client.
func NewFilesClient(httpClient *internalhttp.Client) *FilesClient {
	return &FilesClient{httpClient: httpClient}
}

// Upload implements easemob.FilesClient.Upload.
func (c *FilesClient) Upload(ctx context.Context, filename string, content io.Reader, restrictAccess bool) (*easemob.FileEntity, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, easemob.NewValidationError("filename", "filename is required")
	}

	if content == nil {
		return nil, easemob.NewValidationError("content", "content is required")
	}

	result, err := c.httpClient.SendWithBody(ctx, http.MethodPost, constants.APIPathChatFiles, nil, &internalhttp.RequestOptions{
		Headers: map[string]string{
			constants.HeaderRestrictAccess: strconv.FormatBool(restrictAccess),
		},
		Multipart: &internalhttp.MultipartFile{
			Field:    constants.MultipartFileField,
			Filename: filename,
			Content:  content,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("uploading file: %w", err)
	}

	var entities []easemob.FileEntity

	err = result.Decode("entities", &entities)
	if err != nil {
		return nil, fmt.Errorf("parsing uploaded file: %w", err)
	}

	if len(entities) == 0 {
		return nil, fmt.Errorf("parsing uploaded file: %w", constants.ErrEmptyResponseEntities)
	}

	return &entities[0], nil
}

// Download implements easemob.FilesClient.Download.
func (c *FilesClient) Download(ctx context.Context, ref easemob.FileRef, dest string) (string, error) {
	if strings.TrimSpace(ref.UUID) == "" {
		return "", easemob.NewValidationError("uuid", "file uuid is required")
	}

	temporary := dest == ""
	if temporary {
		file, err := os.CreateTemp("", constants.DownloadTempPattern)
		if err != nil {
			return "", fmt.Errorf("creating download file: %w", err)
		}

		dest = file.Name()
		_ = file.Close()
	}

	headers := map[string]string{constants.HeaderAccept: constants.ContentTypeOctetStream}
	if ref.ShareSecret != "" {
		headers[constants.HeaderShareSecret] = ref.ShareSecret
	}

	_, err := c.httpClient.Do(ctx, &internalhttp.Request{
		Method:  http.MethodGet,
		Path:    filePath(ref.UUID),
		Headers: headers,
		SaveTo:  dest,
	})
	if err != nil {
		if temporary {
			_ = os.Remove(dest)
		}

		return "", fmt.Errorf("downloading file %s: %w", ref.UUID, err)
	}

	return dest, nil
}

// URL implements easemob.FilesClient.URL.
func (c *FilesClient) URL(uuid string) string {
	return c.httpClient.URL(filePath(uuid))
}

func filePath(uuid string) string {
	return constants.APIPathChatFiles + "/" + url.PathEscape(uuid)
}
