package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

// RemoteClient implements Transfer against the HTTP media endpoints of a running server.
type RemoteClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewRemoteClient targets the server at baseURL, authenticating with a bearer token.
func NewRemoteClient(baseURL, token string) *RemoteClient {
	return &RemoteClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *RemoteClient) WithHTTPClient(client *http.Client) *RemoteClient {
	c.httpClient = client
	return c
}

type uploadResponse struct {
	URL string `json:"url"`
}

type remoteError struct {
	Error string `json:"error"`
}

// Upload posts the file as multipart form data.
func (c *RemoteClient) Upload(ctx context.Context, file File, folder Folder) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("folder", string(folder)); err != nil {
		return "", &TransferError{Op: OpUpload, Folder: folder, Err: err}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	header.Set("Content-Type", file.ContentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", &TransferError{Op: OpUpload, Folder: folder, Err: err}
	}
	if file.Body != nil {
		if _, err := io.Copy(part, file.Body); err != nil {
			return "", &TransferError{Op: OpUpload, Folder: folder, Err: fmt.Errorf("read upload: %w", err)}
		}
	}
	if err := writer.Close(); err != nil {
		return "", &TransferError{Op: OpUpload, Folder: folder, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/media", &body)
	if err != nil {
		return "", &TransferError{Op: OpUpload, Folder: folder, Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var out uploadResponse
	if err := c.do(req, &out); err != nil {
		return "", &TransferError{Op: OpUpload, Folder: folder, Err: err}
	}
	if out.URL == "" {
		return "", &TransferError{Op: OpUpload, Folder: folder, Err: fmt.Errorf("server returned no url")}
	}
	return out.URL, nil
}

// Delete asks the server to retire the object behind url.
func (c *RemoteClient) Delete(ctx context.Context, url string) error {
	payload, err := json.Marshal(map[string]string{"url": url})
	if err != nil {
		return &TransferError{Op: OpDelete, URL: url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/v1/media", bytes.NewReader(payload))
	if err != nil {
		return &TransferError{Op: OpDelete, URL: url, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	if err := c.do(req, nil); err != nil {
		return &TransferError{Op: OpDelete, URL: url, Err: err}
	}
	return nil
}

func (c *RemoteClient) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr remoteError
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
