package trackers

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"

	"GoTrackerAI/app/utils/restclient"
)

const azurePatchContentType = "application/json-patch+json"

// AzureDevOpsClient targets one fixed organization/project with a single
// service credential.
type AzureDevOpsClient struct {
	restClient    restclient.Interface
	baseURL       string
	organization  string
	project       string
	pat           string
	iterationPath string
}

func NewAzureDevOpsClient(baseURL, organization, project, pat, iterationPath string) *AzureDevOpsClient {
	if baseURL == "" {
		baseURL = "https://dev.azure.com"
	}
	return &AzureDevOpsClient{
		restClient:    restclient.NewRestClient(baseURL, nil),
		baseURL:       baseURL,
		organization:  organization,
		project:       project,
		pat:           pat,
		iterationPath: iterationPath,
	}
}

// patchOp is one operation of an Azure DevOps JSON-Patch document.
type patchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

type relationValue struct {
	Rel        string             `json:"rel"`
	URL        string             `json:"url"`
	Attributes relationAttributes `json:"attributes"`
}

type relationAttributes struct {
	Comment string `json:"comment"`
}

func (c *AzureDevOpsClient) authHeaders(contentType string) map[string]string {
	token := base64.StdEncoding.EncodeToString([]byte(":" + c.pat))
	return map[string]string{
		"Authorization": "Basic " + token,
		"Content-Type":  contentType,
	}
}

func (c *AzureDevOpsClient) workItemEndpoint(id string) string {
	return fmt.Sprintf("/%s/%s/_apis/wit/workitems/%s?api-version=6.0", c.organization, c.project, id)
}

func (c *AzureDevOpsClient) workItemURL(id string) string {
	return fmt.Sprintf("%s/%s/%s/_apis/wit/workItems/%s", c.baseURL, c.organization, c.project, id)
}

// AddComment appends text to the item's discussion via the System.History
// field.
func (c *AzureDevOpsClient) AddComment(ctx context.Context, ref ItemRef, text string) error {
	ops := []patchOp{
		{Op: "add", Path: "/fields/System.History", Value: text},
	}

	body, status, err := c.restClient.Patch(ctx, c.workItemEndpoint(ref.ID), ops, c.authHeaders(azurePatchContentType))
	if err != nil {
		return fmt.Errorf("azure devops comment on %s: %w", ref.ID, err)
	}
	if status != 200 {
		return fmt.Errorf("azure devops comment on %s: http %d: %s", ref.ID, status, string(body))
	}
	log.Printf("✅ Comment added to Azure DevOps work item %s", ref.ID)
	return nil
}

// CreateSubItem creates a Task linked back to the originating item through
// a reverse hierarchy relation.
func (c *AzureDevOpsClient) CreateSubItem(ctx context.Context, ref ItemRef, item SubItem) error {
	ops := []patchOp{
		{Op: "add", Path: "/fields/System.Title", Value: item.Title},
		{Op: "add", Path: "/fields/System.Description", Value: item.Description},
		{Op: "add", Path: "/fields/System.IterationPath", Value: c.iterationPath},
		{Op: "add", Path: "/relations/-", Value: relationValue{
			Rel:        "System.LinkTypes.Hierarchy-Reverse",
			URL:        c.workItemURL(ref.ID),
			Attributes: relationAttributes{Comment: "Linkado ao Epic correspondente"},
		}},
	}

	endpoint := fmt.Sprintf("/%s/%s/_apis/wit/workitems/$Task?api-version=6.0", c.organization, c.project)
	body, status, err := c.restClient.Post(ctx, endpoint, ops, c.authHeaders(azurePatchContentType))
	if err != nil {
		return fmt.Errorf("azure devops create task under %s: %w", ref.ID, err)
	}
	if status != 200 && status != 201 {
		return fmt.Errorf("azure devops create task under %s: http %d: %s", ref.ID, status, string(body))
	}
	log.Printf("✅ Task %q created under Azure DevOps work item %s", strings.TrimSpace(item.Title), ref.ID)
	return nil
}

var _ Interface = &AzureDevOpsClient{}
