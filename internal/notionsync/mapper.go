package notionsync

import (
	"time"

	"github.com/jomei/notionapi"
	"github.com/vkuzmin/budget-categorizer/internal/domain"
)

// TransactionToNotionProperties maps a transaction onto the Notion database
// schema. "Transaction ID" is the rich-text property the sync keys on for
// idempotency, so it must exist in the target database.
func TransactionToNotionProperties(tx *domain.Transaction) notionapi.Properties {
	props := notionapi.Properties{
		"Description": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: tx.Description,
					},
				},
			},
		},
		"Amount": notionapi.NumberProperty{
			Number: tx.Amount,
		},
		"Type": notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: transactionType(tx.Amount),
			},
		},
		"Transaction ID": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: tx.TransactionID,
					},
				},
			},
		},
	}

	if parsed, err := time.Parse("2006-01-02", tx.Date); err == nil {
		d := notionapi.Date(parsed)
		props["Date"] = notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: &d,
			},
		}
	}

	if tx.Category != "" {
		props["Category"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: tx.Category,
			},
		}
	}

	if tx.StatementID != "" {
		props["Statement ID"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: tx.StatementID,
					},
				},
			},
		}
	}

	return props
}

func transactionType(amount float64) string {
	if amount > 0 {
		return "Credit"
	}
	return "Debit"
}

// extractTransactionID reads the "Transaction ID" rich-text property off an
// existing page. Returns empty string for pages created outside the sync.
func extractTransactionID(page notionapi.Page) string {
	prop, ok := page.Properties["Transaction ID"]
	if !ok {
		return ""
	}
	richText, ok := prop.(*notionapi.RichTextProperty)
	if !ok || len(richText.RichText) == 0 {
		return ""
	}
	return richText.RichText[0].PlainText
}
