package client

import "context"

// Updater reports on a single item. Every update upserts, so the item
// appears on the board the first time it reports.
type Updater struct {
	*Client
	category string
	item     string
}

// NewUpdater binds c to category/item.
func NewUpdater(c *Client, category, item string) *Updater {
	return &Updater{Client: c, category: category, item: item}
}

// Category returns the bound category.
func (u *Updater) Category() string {
	return u.category
}

// Item returns the bound item.
func (u *Updater) Item() string {
	return u.item
}

// Update changes the bound item.
func (u *Updater) Update(ctx context.Context, update Update) (Record, error) {
	return u.Client.UpdateItem(ctx, u.category, u.item, update, true)
}

// Report sets the bound item's status and message.
func (u *Updater) Report(ctx context.Context, status, message string) (Record, error) {
	return u.Update(ctx, Update{Status: &status, Message: &message})
}
