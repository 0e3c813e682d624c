package trackers

import (
	"context"
	"fmt"
)

// Platform selects which tracker variant owns a work item.
type Platform int

const (
	PlatformJira        Platform = 0
	PlatformAzureDevOps Platform = 1
)

func (p Platform) String() string {
	switch p {
	case PlatformJira:
		return "jira"
	case PlatformAzureDevOps:
		return "azure_devops"
	default:
		return fmt.Sprintf("platform(%d)", int(p))
	}
}

func ParsePlatform(tag string) (Platform, error) {
	switch tag {
	case "0", "jira":
		return PlatformJira, nil
	case "1", "azure_devops", "azuredevops":
		return PlatformAzureDevOps, nil
	default:
		return 0, fmt.Errorf("unknown platform tag: %q", tag)
	}
}

// ItemRef identifies one work item or issue on its originating tracker.
type ItemRef struct {
	ID       string
	Platform Platform
	BaseURL  string
}

// SubItem is the provider-agnostic content of a sub-task to create under
// the referenced item.
type SubItem struct {
	Title       string
	Description string
}

type Interface interface {
	AddComment(ctx context.Context, ref ItemRef, text string) error
	CreateSubItem(ctx context.Context, ref ItemRef, item SubItem) error
}

// Router dispatches tracker calls to the client registered for the item's
// platform.
type Router struct {
	clients map[Platform]Interface
}

func NewRouter() *Router {
	return &Router{clients: make(map[Platform]Interface)}
}

func (r *Router) Register(platform Platform, client Interface) {
	r.clients[platform] = client
}

func (r *Router) clientFor(ref ItemRef) (Interface, error) {
	client, ok := r.clients[ref.Platform]
	if !ok {
		return nil, fmt.Errorf("no tracker client registered for %s", ref.Platform)
	}
	return client, nil
}

func (r *Router) AddComment(ctx context.Context, ref ItemRef, text string) error {
	client, err := r.clientFor(ref)
	if err != nil {
		return err
	}
	return client.AddComment(ctx, ref, text)
}

func (r *Router) CreateSubItem(ctx context.Context, ref ItemRef, item SubItem) error {
	client, err := r.clientFor(ref)
	if err != nil {
		return err
	}
	return client.CreateSubItem(ctx, ref, item)
}

var _ Interface = &Router{}
