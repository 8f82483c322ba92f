package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/solar-leads/internal/model"
)

// PushLeads writes one page per qualified lead to the target database,
// updating the existing page when one already holds the lead's address.
// A per-record failure is logged and counted, never aborting the rest.
func PushLeads(ctx context.Context, c Client, dbID string, records []model.BuildingRecord) (pushed int, err error) {
	for _, rec := range records {
		existing, findErr := FindLeadByAddress(ctx, c, dbID, rec.Address)
		if findErr != nil {
			zap.L().Warn("notion: lead lookup failed",
				zap.String("id", rec.ID),
				zap.String("address", rec.Address),
				zap.Error(findErr),
			)
			continue
		}

		if existing != nil {
			if _, updErr := c.UpdatePage(ctx, existing.ID.String(), &notionapi.PageUpdateRequest{
				Properties: leadProperties(rec),
			}); updErr != nil {
				zap.L().Warn("notion: update lead failed",
					zap.String("id", rec.ID),
					zap.String("address", rec.Address),
					zap.Error(updErr),
				)
				continue
			}
			pushed++
			continue
		}

		req := &notionapi.PageCreateRequest{
			Parent: notionapi.Parent{
				Type:       notionapi.ParentTypeDatabaseID,
				DatabaseID: notionapi.DatabaseID(dbID),
			},
			Properties: leadProperties(rec),
		}
		if _, createErr := c.CreatePage(ctx, req); createErr != nil {
			zap.L().Warn("notion: push lead failed",
				zap.String("id", rec.ID),
				zap.String("address", rec.Address),
				zap.Error(createErr),
			)
			continue
		}
		pushed++
	}

	if pushed < len(records) {
		return pushed, eris.Errorf("notion: pushed %d of %d leads", pushed, len(records))
	}
	return pushed, nil
}

func leadProperties(rec model.BuildingRecord) notionapi.Properties {
	title := rec.BusinessName
	if title == "" {
		title = rec.Address
	}

	props := notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Title: []notionapi.RichText{{Text: &notionapi.Text{Content: title}}},
		},
		"Address": richText(rec.Address),
		"Score": notionapi.NumberProperty{
			Number: float64(rec.Score),
		},
		"ICP Bucket": notionapi.SelectProperty{
			Select: notionapi.Option{Name: bucketLabel(rec.ICPBucket)},
		},
		"Building Type": notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(rec.BuildingType)},
		},
		"Roof Sqft": notionapi.NumberProperty{
			Number: rec.EstimatedRoofSqft,
		},
	}

	if rec.BusinessPhone != "" {
		props["Phone"] = notionapi.PhoneNumberProperty{PhoneNumber: rec.BusinessPhone}
	}
	if rec.BusinessWebsite != "" {
		props["Website"] = notionapi.URLProperty{URL: rec.BusinessWebsite}
	}
	if rec.ProxyEstimate {
		props["Estimate"] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: "proxy"},
		}
	} else {
		props["Estimate"] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: "measured"},
		}
	}
	if rec.EstimatedPanels > 0 {
		props["Panels"] = notionapi.NumberProperty{Number: float64(rec.EstimatedPanels)}
	}

	return props
}

func richText(s string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{
		RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: s}}},
	}
}

func bucketLabel(bucket string) string {
	if bucket == "" {
		return "General Commercial"
	}
	return bucket
}

// FindLeadByAddress looks up an existing lead page by its Address property,
// used to avoid duplicate pages across repeated exports.
func FindLeadByAddress(ctx context.Context, c Client, dbID, addr string) (*notionapi.Page, error) {
	resp, err := c.QueryDatabase(ctx, dbID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "Address",
			RichText: &notionapi.TextFilterCondition{Equals: addr},
		},
		PageSize: 1,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "notion: find lead %q", addr)
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return &resp.Results[0], nil
}
