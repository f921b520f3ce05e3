package notionsync

import (
	"context"
	"testing"
	"time"

	"github.com/jomei/notionapi"

	"github.com/chanvekse/finance-ai-analyzer/internal/recurrence"
)

type fakeNotion struct {
	pages []notionapi.Page

	created  []notionapi.Properties
	updated  map[string]notionapi.Properties
	archived []string
}

func newFakeNotion(pages ...notionapi.Page) *fakeNotion {
	return &fakeNotion{pages: pages, updated: make(map[string]notionapi.Properties)}
}

func (f *fakeNotion) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	f.created = append(f.created, properties)
	return &notionapi.Page{}, nil
}

func (f *fakeNotion) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	f.updated[pageID] = properties
	return &notionapi.Page{}, nil
}

func (f *fakeNotion) QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return &notionapi.DatabaseQueryResponse{Results: f.pages}, nil
}

func (f *fakeNotion) DeletePage(ctx context.Context, pageID string) error {
	f.archived = append(f.archived, pageID)
	return nil
}

func pageWithTitle(id, property, text string) notionapi.Page {
	return notionapi.Page{
		ID: notionapi.ObjectID(id),
		Properties: notionapi.Properties{
			property: &notionapi.TitleProperty{
				Title: []notionapi.RichText{{PlainText: text}},
			},
		},
	}
}

func sampleProfiles() []recurrence.MerchantProfile {
	return []recurrence.MerchantProfile{
		{
			Description:      "Netflix",
			Category:         "Entertainment",
			OccurrenceCount:  3,
			AverageAmount:    15.49,
			TotalAmount:      46.47,
			Pattern:          recurrence.PatternMonthly,
			FirstSeen:        time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			LastSeen:         time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC),
			MeanIntervalDays: 30.5,
			NextExpectedDate: time.Date(2024, 4, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			Description:     "Electricity Co",
			Category:        "Bills",
			OccurrenceCount: 2,
			AverageAmount:   85,
			Pattern:         recurrence.PatternIrregular,
		},
	}
}

func TestSyncRecurringProfiles_CreatesAndUpdates(t *testing.T) {
	// Netflix already exists, Electricity Co does not, Old Gym is stale.
	notion := newFakeNotion(
		pageWithTitle("page-netflix", "Merchant", "Netflix"),
		pageWithTitle("page-gym", "Merchant", "Old Gym"),
	)

	result, err := SyncRecurringProfiles(context.Background(), notion, "db-1", sampleProfiles(), false)
	if err != nil {
		t.Fatalf("SyncRecurringProfiles: %v", err)
	}

	if result.Created != 1 || result.Updated != 1 || result.Deleted != 1 {
		t.Fatalf("result = %+v, want 1 created, 1 updated, 1 deleted", result)
	}
	if len(notion.created) != 1 {
		t.Fatalf("created %d pages, want 1", len(notion.created))
	}
	if _, ok := notion.updated["page-netflix"]; !ok {
		t.Error("Netflix page was not updated")
	}
	if len(notion.archived) != 1 || notion.archived[0] != "page-gym" {
		t.Errorf("archived = %v, want [page-gym]", notion.archived)
	}
}

func TestSyncRecurringProfiles_DryRun(t *testing.T) {
	notion := newFakeNotion(pageWithTitle("page-gym", "Merchant", "Old Gym"))

	result, err := SyncRecurringProfiles(context.Background(), notion, "db-1", sampleProfiles(), true)
	if err != nil {
		t.Fatalf("SyncRecurringProfiles dry run: %v", err)
	}

	if result.Created != 2 || result.Deleted != 1 {
		t.Fatalf("result = %+v, want 2 created, 1 deleted counted", result)
	}
	if len(notion.created) != 0 || len(notion.updated) != 0 || len(notion.archived) != 0 {
		t.Error("dry run must not write to Notion")
	}
}

func TestSyncSubscriptions(t *testing.T) {
	notion := newFakeNotion()

	subs := []recurrence.Subscription{
		{ID: "a", ServiceName: "Spotify", MonthlyAmount: 9.99, DueDay: 5, Active: true, NextDue: time.Date(2024, 4, 5, 0, 0, 0, 0, time.UTC)},
	}
	result, err := SyncSubscriptions(context.Background(), notion, "db-2", subs, false)
	if err != nil {
		t.Fatalf("SyncSubscriptions: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("result = %+v, want 1 created", result)
	}

	props := notion.created[0]
	title, ok := props["Service"].(notionapi.TitleProperty)
	if !ok || title.Title[0].Text.Content != "Spotify" {
		t.Errorf("Service title = %+v, want Spotify", props["Service"])
	}
	amount, ok := props["Monthly Amount"].(notionapi.NumberProperty)
	if !ok || amount.Number != 9.99 {
		t.Errorf("Monthly Amount = %+v, want 9.99", props["Monthly Amount"])
	}
}
