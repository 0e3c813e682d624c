package interactions

import "GoTrackerAI/app/trackers"

// Event is one accepted webhook delivery, normalized across providers.
// Comment is set for comment events; Title/Description/ItemType for
// item-created events.
type Event struct {
	DeliveryID  string
	WorkItemID  string
	Platform    trackers.Platform
	BaseURL     string
	Comment     string
	Title       string
	Description string
	ItemType    string
}

func (e Event) ref() trackers.ItemRef {
	return trackers.ItemRef{ID: e.WorkItemID, Platform: e.Platform, BaseURL: e.BaseURL}
}
