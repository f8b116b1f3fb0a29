package boox

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
)

type DeviceDetails struct {
	Host         string `json:"host"`
	ID           string `json:"id"`
	MAC          string `json:"mac"`
	Model        string `json:"model"`
	StorageTotal string `json:"storageTotal"`
	StorageUsed  string `json:"storageUsed"`
	DeviceType   string `json:"type"`
}

type FolderCreationRequest struct {
	Parent interface{} `json:"parent"`
	Name   string      `json:"name"`
}

type FolderCreationResponse struct {
	ID string `json:"id"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{baseURL: baseURL, httpClient: httpClient}
}

func (client *Client) BaseURL() string {
	return client.baseURL
}

func (client *Client) CheckConnection(ctx context.Context) (*DeviceDetails, error) {
	endpoint := client.baseURL + "/api/device"
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "unable to build device request")
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, errors.Wrap(err, "device request failed")
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(response.Body)
		return nil, errors.Newf("device request failed: %s", string(body))
	}

	var device DeviceDetails
	if err := json.NewDecoder(response.Body).Decode(&device); err != nil {
		return nil, errors.Wrap(err, "unable to decode device response")
	}

	return &device, nil
}

func (client *Client) CreateFolder(ctx context.Context, parentID *string, title string) (string, error) {
	endpoint := client.baseURL + "/api/library"
	payload := FolderCreationRequest{
		Parent: nil,
		Name:   title,
	}
	if parentID != nil {
		payload.Parent = *parentID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, "error marshaling JSON")
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return "", errors.Wrap(err, "error creating request")
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return "", errors.Wrap(err, "error making POST request")
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(response.Body)
		return "", errors.Newf("unexpected status code: %d %s", response.StatusCode, string(body))
	}

	var folderResponse FolderCreationResponse
	if err := json.NewDecoder(response.Body).Decode(&folderResponse); err != nil {
		return "", errors.Wrap(err, "error decoding response")
	}

	return folderResponse.ID, nil
}

func (client *Client) UploadFile(ctx context.Context, parentID, fileName string, file io.Reader) error {
	endpoint := client.baseURL + "/api/library/upload"

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return errors.Wrap(err, "unable to create form file")
	}

	if _, err := io.Copy(part, file); err != nil {
		return errors.Wrap(err, "unable to write file data")
	}

	if parentID != "" {
		writer.WriteField("parent", parentID)
	}
	writer.WriteField("name", fileName)

	if err := writer.Close(); err != nil {
		return errors.Wrap(err, "unable to finalize form")
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return errors.Wrap(err, "unable to create upload request")
	}
	request.Header.Set("Content-Type", writer.FormDataContentType())

	response, err := client.httpClient.Do(request)
	if err != nil {
		return errors.Wrap(err, "upload request failed")
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(response.Body)
		return errors.Newf("upload failed: %d %s", response.StatusCode, string(body))
	}

	return nil
}
