package trackers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"GoTrackerAI/app/utils/restclient"
)

func TestAzureAddComment(t *testing.T) {
	var gotMethod, gotPath, gotContentType, gotAuth string
	var gotOps []patchOp
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotOps))
		w.Write([]byte(`{"id": 42}`))
	}))
	defer ts.Close()

	c := NewAzureDevOpsClient(ts.URL, "InstantSoft", "Auditeste", "secret-pat", "Auditeste")
	err := c.AddComment(context.Background(), ItemRef{ID: "42", Platform: PlatformAzureDevOps}, "analysis text")
	require.NoError(t, err)

	require.Equal(t, http.MethodPatch, gotMethod)
	require.Equal(t, "/InstantSoft/Auditeste/_apis/wit/workitems/42", gotPath)
	require.Equal(t, azurePatchContentType, gotContentType)
	require.NotEmpty(t, gotAuth)
	require.Len(t, gotOps, 1)
	require.Equal(t, "/fields/System.History", gotOps[0].Path)
	require.Equal(t, "analysis text", gotOps[0].Value)
}

func TestAzureAddCommentFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	c := NewAzureDevOpsClient(ts.URL, "org", "proj", "bad-pat", "proj")
	err := c.AddComment(context.Background(), ItemRef{ID: "1"}, "text")
	require.Error(t, err)
	require.Contains(t, err.Error(), "http 401")
}

func TestAzureCreateSubItem(t *testing.T) {
	var gotPath string
	var gotOps []map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotOps))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 99}`))
	}))
	defer ts.Close()

	c := NewAzureDevOpsClient(ts.URL, "InstantSoft", "Auditeste", "pat", "Auditeste")
	err := c.CreateSubItem(context.Background(), ItemRef{ID: "42"}, SubItem{Title: "Implementar", Description: "detalhes"})
	require.NoError(t, err)

	require.Equal(t, "/InstantSoft/Auditeste/_apis/wit/workitems/$Task", gotPath)
	require.Len(t, gotOps, 4)

	byPath := map[string]any{}
	for _, op := range gotOps {
		byPath[op["path"].(string)] = op["value"]
	}
	require.Equal(t, "Implementar", byPath["/fields/System.Title"])
	require.Equal(t, "detalhes", byPath["/fields/System.Description"])
	require.Equal(t, "Auditeste", byPath["/fields/System.IterationPath"])

	relation := byPath["/relations/-"].(map[string]any)
	require.Equal(t, "System.LinkTypes.Hierarchy-Reverse", relation["rel"])
	require.Contains(t, relation["url"], "/_apis/wit/workItems/42")
}

func TestAzureAddCommentTransportError(t *testing.T) {
	mockClient := new(restclient.MockRestClient)
	mockClient.On("Patch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]byte(nil), 0, fmt.Errorf("connection refused"))

	c := NewAzureDevOpsClient("", "org", "proj", "pat", "proj")
	c.restClient = mockClient

	err := c.AddComment(context.Background(), ItemRef{ID: "7"}, "text")
	require.Error(t, err)
	require.Contains(t, err.Error(), "connection refused")
	mockClient.AssertExpectations(t)
}
