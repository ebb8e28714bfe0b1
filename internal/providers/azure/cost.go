package azure

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement"
	"github.com/shopspring/decimal"
)

// costWindowDays is the trailing window used for cost attribution.
const costWindowDays = 30

// queryResourceCosts runs one Cost Management query over the subscription,
// grouped by resource ID, and sums actual cost per resource across the
// window. Keys are lowercased ARM IDs.
func (p *Provider) queryResourceCosts(ctx context.Context) (map[string]decimal.Decimal, error) {
	scope := fmt.Sprintf("/subscriptions/%s", p.cfg.SubscriptionID)

	timeTo := time.Now().UTC()
	timeFrom := timeTo.AddDate(0, 0, -costWindowDays)

	exportType := armcostmanagement.ExportTypeActualCost
	timeframe := armcostmanagement.TimeframeTypeCustom
	granularity := armcostmanagement.GranularityTypeDaily
	dimension := armcostmanagement.QueryColumnTypeDimension

	result, err := p.clients.Query.Usage(ctx, scope, armcostmanagement.QueryDefinition{
		Type:      &exportType,
		Timeframe: &timeframe,
		TimePeriod: &armcostmanagement.QueryTimePeriod{
			From: &timeFrom,
			To:   &timeTo,
		},
		Dataset: &armcostmanagement.QueryDataset{
			Granularity: &granularity,
			Aggregation: map[string]*armcostmanagement.QueryAggregation{
				"totalCost": {
					Name:     to.Ptr("Cost"),
					Function: to.Ptr(armcostmanagement.FunctionTypeSum),
				},
			},
			Grouping: []*armcostmanagement.QueryGrouping{
				{
					Name: to.Ptr("ResourceId"),
					Type: &dimension,
				},
			},
		},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("cost usage query: %w", err)
	}

	costs := make(map[string]decimal.Decimal)
	if result.Properties == nil {
		return costs, nil
	}

	costIdx, resourceIdx := -1, -1
	for i, col := range result.Properties.Columns {
		if col == nil || col.Name == nil {
			continue
		}
		switch strings.ToLower(*col.Name) {
		case "cost":
			costIdx = i
		case "resourceid":
			resourceIdx = i
		}
	}
	if costIdx < 0 || resourceIdx < 0 {
		return nil, fmt.Errorf("cost usage query: unexpected column layout")
	}

	for _, row := range result.Properties.Rows {
		if len(row) <= costIdx || len(row) <= resourceIdx {
			continue
		}
		resourceID, ok := row[resourceIdx].(string)
		if !ok || resourceID == "" {
			continue
		}
		cost, ok := row[costIdx].(float64)
		if !ok {
			continue
		}
		key := strings.ToLower(resourceID)
		costs[key] = costs[key].Add(decimal.NewFromFloat(cost))
	}
	return costs, nil
}
