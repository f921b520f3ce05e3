package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/chanvekse/finance-ai-analyzer/internal/logger"
	"github.com/chanvekse/finance-ai-analyzer/internal/recurrence"
)

// Result summarizes one sync run.
type Result struct {
	Created int
	Updated int
	Deleted int
}

// SyncRecurringProfiles mirrors the merchant profiles into the Notion
// database keyed by the Merchant title. Pages for merchants no longer in
// the profile set are archived. With dryRun set, nothing is written and the
// result counts what would have happened.
func SyncRecurringProfiles(ctx context.Context, notion NotionService, databaseID string, profiles []recurrence.MerchantProfile, dryRun bool) (Result, error) {
	keys := make([]string, 0, len(profiles))
	props := make(map[string]notionapi.Properties, len(profiles))
	for _, p := range profiles {
		keys = append(keys, p.Description)
		props[p.Description] = ProfileToNotionProperties(p)
	}
	return syncPages(ctx, notion, databaseID, "Merchant", keys, props, dryRun)
}

// SyncSubscriptions mirrors tracked subscriptions keyed by the Service
// title. Inactive subscriptions stay in Notion with their checkbox cleared
// rather than being archived.
func SyncSubscriptions(ctx context.Context, notion NotionService, databaseID string, subs []recurrence.Subscription, dryRun bool) (Result, error) {
	keys := make([]string, 0, len(subs))
	props := make(map[string]notionapi.Properties, len(subs))
	for _, s := range subs {
		keys = append(keys, s.ServiceName)
		props[s.ServiceName] = SubscriptionToNotionProperties(s)
	}
	return syncPages(ctx, notion, databaseID, "Service", keys, props, dryRun)
}

// syncPages reconciles a Notion database against the desired set: create
// missing pages, update existing ones, archive pages whose key is gone.
func syncPages(ctx context.Context, notion NotionService, databaseID, titleProperty string, keys []string, props map[string]notionapi.Properties, dryRun bool) (Result, error) {
	log := logger.FromContext(ctx)
	var result Result

	pages, err := queryAllPages(ctx, notion, databaseID)
	if err != nil {
		return result, fmt.Errorf("syncPages: querying existing pages: %w", err)
	}

	existing := make(map[string]notionapi.Page, len(pages))
	for _, page := range pages {
		if key := extractTitle(page, titleProperty); key != "" {
			existing[key] = page
		}
	}

	wanted := make(map[string]bool, len(keys))
	for _, key := range keys {
		wanted[key] = true
	}

	for key, page := range existing {
		if wanted[key] {
			continue
		}
		if dryRun {
			log.Info().Str("key", key).Str("page_id", string(page.ID)).Msg("[DRY RUN] Would archive stale page")
		} else if err := notion.DeletePage(ctx, string(page.ID)); err != nil {
			log.Warn().Err(err).Str("key", key).Str("page_id", string(page.ID)).Msg("Failed to archive stale page")
			continue
		}
		result.Deleted++
	}

	for _, key := range keys {
		properties := props[key]
		if page, ok := existing[key]; ok {
			if dryRun {
				log.Info().Str("key", key).Msg("[DRY RUN] Would update page")
			} else if _, err := notion.UpdatePage(ctx, string(page.ID), properties); err != nil {
				return result, fmt.Errorf("syncPages: updating page for %q: %w", key, err)
			}
			result.Updated++
			continue
		}

		if dryRun {
			log.Info().Str("key", key).Msg("[DRY RUN] Would create page")
		} else if _, err := notion.CreatePage(ctx, databaseID, properties); err != nil {
			return result, fmt.Errorf("syncPages: creating page for %q: %w", key, err)
		}
		result.Created++
	}

	log.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("deleted", result.Deleted).
		Bool("dry_run", dryRun).
		Msg("Notion sync finished")

	return result, nil
}

// queryAllPages pages through the whole database.
func queryAllPages(ctx context.Context, notion NotionService, databaseID string) ([]notionapi.Page, error) {
	var pages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			StartCursor: cursor,
			PageSize:    100,
		}

		resp, err := notion.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, err
		}

		pages = append(pages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return pages, nil
}
