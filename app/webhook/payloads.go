package webhook

// Azure DevOps service-hook payloads. Only the fields the engine reads are
// declared; the rest of the delivery is ignored.

type azureFields struct {
	Title        string `json:"System.Title"`
	Description  string `json:"System.Description"`
	History      string `json:"System.History"`
	WorkItemType string `json:"System.WorkItemType"`
	ChangedBy    string `json:"System.ChangedBy"`
}

type azureResource struct {
	ID     int         `json:"id" validate:"required"`
	Fields azureFields `json:"fields"`
}

type azureItemEvent struct {
	Resource azureResource `json:"resource" validate:"required"`
}

type azureCommentEvent struct {
	EventType string        `json:"eventType" validate:"required"`
	Resource  azureResource `json:"resource" validate:"required"`
}

// Jira webhook payloads.

type jiraAuthor struct {
	DisplayName string `json:"displayName"`
}

type jiraComment struct {
	Body   string     `json:"body" validate:"required"`
	Author jiraAuthor `json:"author"`
}

type jiraIssueFields struct {
	Summary     string `json:"summary" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// Comment deliveries carry only the issue reference; epic deliveries also
// carry the fields block.

type jiraIssueRef struct {
	Key  string `json:"key" validate:"required"`
	Self string `json:"self" validate:"required,url"`
}

type jiraEpicIssue struct {
	Key    string          `json:"key" validate:"required"`
	Self   string          `json:"self" validate:"required,url"`
	Fields jiraIssueFields `json:"fields"`
}

type jiraCommentEvent struct {
	WebhookEvent string       `json:"webhookEvent" validate:"required"`
	Comment      jiraComment  `json:"comment" validate:"required"`
	Issue        jiraIssueRef `json:"issue" validate:"required"`
}

type jiraEpicEvent struct {
	Issue jiraEpicIssue `json:"issue" validate:"required"`
}

// Session chat endpoint.

type chatRequest struct {
	User    string `json:"user"`
	Message string `json:"message" validate:"required"`
}

type chatResponse struct {
	Content string `json:"content"`
}
