package trackers

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"

	"GoTrackerAI/app/storage"
	"GoTrackerAI/app/utils/restclient"
)

// BotCommentMarker prefixes every comment the assistant writes to Jira, so
// inbound webhooks can recognize and skip the bot's own comments.
const BotCommentMarker = "comment IA"

// CredentialSource yields the Jira access data for a project; satisfied by
// storage.Interface.
type CredentialSource interface {
	CredentialFor(ctx context.Context, projectKey, baseURL string) (*storage.Credential, error)
}

// JiraClient resolves per-project credentials from storage: the issue-key
// prefix plus the tracker base URL select the row.
type JiraClient struct {
	store CredentialSource

	// newRestClient is swappable for tests; base URL differs per call.
	newRestClient func(baseURL string) restclient.Interface
}

func NewJiraClient(store CredentialSource) *JiraClient {
	return &JiraClient{
		store: store,
		newRestClient: func(baseURL string) restclient.Interface {
			return restclient.NewRestClient(baseURL, nil)
		},
	}
}

type adfDoc struct {
	Type    string    `json:"type"`
	Version int       `json:"version"`
	Content []adfNode `json:"content"`
}

type adfNode struct {
	Type    string    `json:"type"`
	Content []adfText `json:"content,omitempty"`
}

type adfText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func paragraphDoc(text string) adfDoc {
	return adfDoc{
		Type:    "doc",
		Version: 1,
		Content: []adfNode{{
			Type:    "paragraph",
			Content: []adfText{{Type: "text", Text: text}},
		}},
	}
}

type jiraComment struct {
	Body adfDoc `json:"body"`
}

type jiraIssue struct {
	Fields jiraIssueFields `json:"fields"`
}

type jiraIssueFields struct {
	Project     jiraProject   `json:"project"`
	Summary     string        `json:"summary"`
	Description adfDoc        `json:"description"`
	IssueType   jiraIssueType `json:"issuetype"`
}

type jiraProject struct {
	Key string `json:"key"`
}

type jiraIssueType struct {
	Name string `json:"name"`
}

func projectKeyOf(issueKey string) string {
	return strings.SplitN(issueKey, "-", 2)[0]
}

func (c *JiraClient) credentialsFor(ctx context.Context, ref ItemRef) (*storage.Credential, error) {
	return c.store.CredentialFor(ctx, projectKeyOf(ref.ID), ref.BaseURL)
}

func basicAuth(email, token string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(email+":"+token))
}

func (c *JiraClient) AddComment(ctx context.Context, ref ItemRef, text string) error {
	cred, err := c.credentialsFor(ctx, ref)
	if err != nil {
		return fmt.Errorf("jira comment on %s: %w", ref.ID, err)
	}

	// Newlines break the single-paragraph document; collapse them.
	flat := strings.ReplaceAll(text, "\n", " ")
	payload := jiraComment{Body: paragraphDoc(BotCommentMarker + " " + flat)}

	rest := c.newRestClient(ref.BaseURL)
	endpoint := fmt.Sprintf("/rest/api/3/issue/%s/comment", ref.ID)
	headers := map[string]string{"Authorization": basicAuth(cred.Email, cred.APIToken)}

	body, status, err := rest.Post(ctx, endpoint, payload, headers)
	if err != nil {
		return fmt.Errorf("jira comment on %s: %w", ref.ID, err)
	}
	if status != 200 && status != 201 {
		return fmt.Errorf("jira comment on %s: http %d: %s", ref.ID, status, string(body))
	}
	log.Printf("✅ Comment added to Jira issue %s", ref.ID)
	return nil
}

func (c *JiraClient) CreateSubItem(ctx context.Context, ref ItemRef, item SubItem) error {
	cred, err := c.credentialsFor(ctx, ref)
	if err != nil {
		return fmt.Errorf("jira create issue under %s: %w", ref.ID, err)
	}

	payload := jiraIssue{
		Fields: jiraIssueFields{
			Project:     jiraProject{Key: projectKeyOf(ref.ID)},
			Summary:     item.Title,
			Description: paragraphDoc(item.Description),
			IssueType:   jiraIssueType{Name: "Task"},
		},
	}

	rest := c.newRestClient(ref.BaseURL)
	headers := map[string]string{"Authorization": basicAuth(cred.Email, cred.APIToken)}

	body, status, err := rest.Post(ctx, "/rest/api/3/issue/", payload, headers)
	if err != nil {
		return fmt.Errorf("jira create issue under %s: %w", ref.ID, err)
	}
	if status != 200 && status != 201 {
		return fmt.Errorf("jira create issue under %s: http %d: %s", ref.ID, status, string(body))
	}
	log.Printf("✅ Issue %q created in Jira project %s", item.Title, projectKeyOf(ref.ID))
	return nil
}

var _ Interface = &JiraClient{}
