package store

// EventType names the kind of change an [Event] describes.
type EventType string

const (
	EventCategoryCreated EventType = "category_created"
	EventCategoryDeleted EventType = "category_deleted"
	EventItemCreated     EventType = "item_created"
	EventItemDeleted     EventType = "item_deleted"
	EventItemUpdated     EventType = "item_updated"
	EventBoardRestored   EventType = "board_restored"
)

// Event is published to subscribers after a successful mutation.
//
// Category and Item are empty when they do not apply. Record is set for
// item creation and update.
type Event struct {
	Type     EventType   `json:"type"`
	Category string      `json:"category,omitempty"`
	Item     string      `json:"item,omitempty"`
	Record   *ItemRecord `json:"record,omitempty"`
}
