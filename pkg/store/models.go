package store

import (
	"database/sql"
	"time"

	"github.com/feedshed/feedshed/pkg/domain"
)

// dbSubscription is the database representation of a subscription
type dbSubscription struct {
	ID                int64        `db:"id"`
	GUID              string       `db:"guid"`
	UserID            int64        `db:"user_id"`
	URL               string       `db:"url"`
	FeedURL           string       `db:"feed_url"`
	Name              string       `db:"name"`
	Folder            string       `db:"folder"`
	Status            string       `db:"status"`
	UseArchiveProxy   bool         `db:"use_archive_proxy"`
	CreatedAt         time.Time    `db:"created_at"`
	RefreshedAt       sql.NullTime `db:"refreshed_at"`
	RefreshDurationMs int64        `db:"refresh_duration_ms"`
}

func (d *dbSubscription) toDomain() *domain.Subscription {
	sub := &domain.Subscription{
		ID:              d.ID,
		GUID:            d.GUID,
		UserID:          d.UserID,
		URL:             d.URL,
		FeedURL:         d.FeedURL,
		Name:            d.Name,
		Folder:          d.Folder,
		Status:          domain.Status(d.Status),
		UseArchiveProxy: d.UseArchiveProxy,
		CreatedAt:       d.CreatedAt,
		RefreshDuration: time.Duration(d.RefreshDurationMs) * time.Millisecond,
	}
	if d.RefreshedAt.Valid {
		t := d.RefreshedAt.Time
		sub.RefreshedAt = &t
	}
	return sub
}

// dbItem is the database representation of a feed item
type dbItem struct {
	ID               int64     `db:"id"`
	GUID             string    `db:"guid"`
	SubscriptionGUID string    `db:"subscription_guid"`
	Title            string    `db:"title"`
	Link             string    `db:"link"`
	Source           string    `db:"source"`
	Content          string    `db:"content"`
	Published        time.Time `db:"published"`
	Fetched          time.Time `db:"fetched"`
}

func (d *dbItem) toDomain() *domain.Item {
	return &domain.Item{
		ID:               d.ID,
		GUID:             d.GUID,
		SubscriptionGUID: d.SubscriptionGUID,
		Title:            d.Title,
		Link:             d.Link,
		Source:           d.Source,
		Content:          d.Content,
		Published:        d.Published,
		Fetched:          d.Fetched,
	}
}

// dbMessage is the database representation of a ledger entry
type dbMessage struct {
	ID          int64     `db:"id"`
	Type        string    `db:"type"`
	Status      string    `db:"status"`
	Error       string    `db:"error"`
	Origin      string    `db:"origin"`
	ProcessedAt time.Time `db:"processed_at"`
}

func (d *dbMessage) toDomain() *domain.ProcessedMessage {
	return &domain.ProcessedMessage{
		ID:          d.ID,
		Type:        d.Type,
		Status:      domain.MessageStatus(d.Status),
		Error:       d.Error,
		Origin:      domain.MessageOrigin(d.Origin),
		ProcessedAt: d.ProcessedAt,
	}
}
