package notionsync

import (
	"time"

	"github.com/jomei/notionapi"

	"github.com/chanvekse/finance-ai-analyzer/internal/recurrence"
)

func titleProperty(content string) notionapi.TitleProperty {
	return notionapi.TitleProperty{
		Title: []notionapi.RichText{
			{
				Type: notionapi.ObjectTypeText,
				Text: &notionapi.Text{Content: content},
			},
		},
	}
}

func dateProperty(t time.Time) notionapi.DateProperty {
	d := notionapi.Date(t)
	return notionapi.DateProperty{
		Date: &notionapi.DateObject{Start: &d},
	}
}

// ProfileToNotionProperties maps one merchant profile onto the recurring
// payments database. The Merchant title is the idempotency key.
func ProfileToNotionProperties(p recurrence.MerchantProfile) notionapi.Properties {
	props := notionapi.Properties{
		"Merchant": titleProperty(p.Description),
		"Occurrences": notionapi.NumberProperty{
			Number: float64(p.OccurrenceCount),
		},
		"Average Amount": notionapi.NumberProperty{
			Number: p.AverageAmount,
		},
		"Total Amount": notionapi.NumberProperty{
			Number: p.TotalAmount,
		},
		"Mean Interval Days": notionapi.NumberProperty{
			Number: p.MeanIntervalDays,
		},
	}

	if p.Category != "" {
		props["Category"] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: p.Category},
		}
	}
	if p.Pattern != "" {
		props["Pattern"] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(p.Pattern)},
		}
	}
	if !p.FirstSeen.IsZero() {
		props["First Seen"] = dateProperty(p.FirstSeen)
	}
	if !p.LastSeen.IsZero() {
		props["Last Seen"] = dateProperty(p.LastSeen)
	}
	if !p.NextExpectedDate.IsZero() {
		props["Next Expected"] = dateProperty(p.NextExpectedDate)
	}

	return props
}

// SubscriptionToNotionProperties maps one tracked subscription onto the
// subscriptions database. The Service title is the idempotency key.
func SubscriptionToNotionProperties(s recurrence.Subscription) notionapi.Properties {
	props := notionapi.Properties{
		"Service": titleProperty(s.ServiceName),
		"Monthly Amount": notionapi.NumberProperty{
			Number: s.MonthlyAmount,
		},
		"Due Day": notionapi.NumberProperty{
			Number: float64(s.DueDay),
		},
		"Active": notionapi.CheckboxProperty{
			Checkbox: s.Active,
		},
	}

	if s.Category != "" {
		props["Category"] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: s.Category},
		}
	}
	if !s.NextDue.IsZero() {
		props["Next Due"] = dateProperty(s.NextDue)
	}

	return props
}

// extractTitle reads the plain text of a page's title property, empty when
// the page has none.
func extractTitle(page notionapi.Page, property string) string {
	prop, ok := page.Properties[property]
	if !ok {
		return ""
	}
	title, ok := prop.(*notionapi.TitleProperty)
	if !ok || len(title.Title) == 0 {
		return ""
	}
	return title.Title[0].PlainText
}
