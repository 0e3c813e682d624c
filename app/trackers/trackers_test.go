package trackers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingTracker struct {
	comments []string
	subItems []SubItem
}

func (r *recordingTracker) AddComment(_ context.Context, _ ItemRef, text string) error {
	r.comments = append(r.comments, text)
	return nil
}

func (r *recordingTracker) CreateSubItem(_ context.Context, _ ItemRef, item SubItem) error {
	r.subItems = append(r.subItems, item)
	return nil
}

func TestParsePlatform(t *testing.T) {
	tests := []struct {
		tag     string
		want    Platform
		wantErr bool
	}{
		{tag: "0", want: PlatformJira},
		{tag: "jira", want: PlatformJira},
		{tag: "1", want: PlatformAzureDevOps},
		{tag: "azure_devops", want: PlatformAzureDevOps},
		{tag: "azuredevops", want: PlatformAzureDevOps},
		{tag: "github", wantErr: true},
		{tag: "", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParsePlatform(tc.tag)
		if tc.wantErr {
			require.Error(t, err, "tag %q", tc.tag)
			continue
		}
		require.NoError(t, err, "tag %q", tc.tag)
		require.Equal(t, tc.want, got, "tag %q", tc.tag)
	}
}

func TestRouterDispatchesByPlatform(t *testing.T) {
	jira := &recordingTracker{}
	azure := &recordingTracker{}

	router := NewRouter()
	router.Register(PlatformJira, jira)
	router.Register(PlatformAzureDevOps, azure)

	ctx := context.Background()
	require.NoError(t, router.AddComment(ctx, ItemRef{ID: "AUD-1", Platform: PlatformJira}, "jira text"))
	require.NoError(t, router.CreateSubItem(ctx, ItemRef{ID: "42", Platform: PlatformAzureDevOps}, SubItem{Title: "task"}))

	require.Equal(t, []string{"jira text"}, jira.comments)
	require.Empty(t, jira.subItems)
	require.Len(t, azure.subItems, 1)
	require.Empty(t, azure.comments)
}

func TestRouterUnknownPlatform(t *testing.T) {
	router := NewRouter()
	err := router.AddComment(context.Background(), ItemRef{ID: "1", Platform: Platform(7)}, "text")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no tracker client registered")
}
