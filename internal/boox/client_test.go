package boox

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckConnection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/api/device", request.URL.Path)
		writer.Write([]byte(`{"model":"NoteAir3","id":"dev-1"}`))
	}))
	defer server.Close()

	device, err := NewClient(server.URL, nil).CheckConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "NoteAir3", device.Model)
}

func TestCheckConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		http.Error(writer, "offline", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, nil).CheckConnection(context.Background())
	assert.ErrorContains(t, err, "offline")
}

func TestCreateFolderAndUpload(t *testing.T) {
	var folderName, uploadedName, uploadedParent, uploadedBody string
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		switch request.URL.Path {
		case "/api/library":
			var payload FolderCreationRequest
			require.NoError(t, json.NewDecoder(request.Body).Decode(&payload))
			folderName = payload.Name
			assert.Nil(t, payload.Parent)
			writer.Write([]byte(`{"id":"folder-7"}`))
		case "/api/library/upload":
			require.NoError(t, request.ParseMultipartForm(1<<20))
			uploadedName = request.FormValue("name")
			uploadedParent = request.FormValue("parent")
			file, _, err := request.FormFile("file")
			require.NoError(t, err)
			data, _ := io.ReadAll(file)
			uploadedBody = string(data)
		default:
			http.NotFound(writer, request)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	folderID, err := client.CreateFolder(context.Background(), nil, "Blue Lock")
	require.NoError(t, err)
	assert.Equal(t, "folder-7", folderID)
	assert.Equal(t, "Blue Lock", folderName)

	require.NoError(t, client.UploadFile(context.Background(), folderID, "Blue Lock - Chapter 1.cbz", strings.NewReader("zip-bytes")))
	assert.Equal(t, "Blue Lock - Chapter 1.cbz", uploadedName)
	assert.Equal(t, "folder-7", uploadedParent)
	assert.Equal(t, "zip-bytes", uploadedBody)
}
