package aws

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	ce "github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"go.uber.org/zap"

	"costscope/internal/models"
	"costscope/internal/providers"
)

// billingDays is the lookback window for Cost Explorer queries.
const billingDays = 30

// billingDateRange returns the [start, end) date strings CE expects.
func billingDateRange(days int) (string, string) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)
	return start.Format("2006-01-02"), end.Format("2006-01-02")
}

// GetReservedInstancesUtilization aggregates per-reservation utilization
// from Cost Explorer. Every reservation is reported; the checks apply their
// own utilization floor.
func (p *Provider) GetReservedInstancesUtilization(ctx context.Context, region string) (providers.MetricSet, error) {
	start, end := billingDateRange(billingDays)

	// CE is account-level; the home client set always carries a us-east-1
	// scoped CE client.
	client := p.account.Clients.CostExplorer

	var reservations []providers.MetricSet
	var nextToken *string
	for {
		out, err := client.GetReservationUtilization(ctx, &ce.GetReservationUtilizationInput{
			TimePeriod: &cetypes.DateInterval{
				Start: aws.String(start),
				End:   aws.String(end),
			},
			GroupBy: []cetypes.GroupDefinition{
				{
					Key:  aws.String("SUBSCRIPTION_ID"),
					Type: cetypes.GroupDefinitionTypeDimension,
				},
			},
			NextPageToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("GetReservationUtilization: %w", err)
		}

		for _, period := range out.UtilizationsByTime {
			for _, group := range period.Groups {
				if group.Utilization == nil {
					continue
				}
				reservations = append(reservations, providers.MetricSet{
					"reservation_id":         group.Attributes["subscriptionId"],
					"instance_type":          group.Attributes["instanceType"],
					"region":                 group.Attributes["region"],
					"platform":               group.Attributes["platform"],
					"expiration_date":        group.Attributes["endDateTime"],
					"instance_count":         parseCostFloat(aws.String(group.Attributes["numberOfInstances"])),
					"utilization_percentage": parseCostFloat(group.Utilization.UtilizationPercentage),
					"monthly_cost":           parseCostFloat(group.Utilization.TotalAmortizedFee),
				})
			}
		}

		if out.NextPageToken == nil {
			break
		}
		nextToken = out.NextPageToken
	}

	return providers.MetricSet{"underutilized": reservations}, nil
}

// GetSavingsPlansCoverage aggregates coverage over the billing window and
// attaches expiring-plan data from the utilization details query. A failure
// of the details query degrades to coverage-only data.
func (p *Provider) GetSavingsPlansCoverage(ctx context.Context, region string) (providers.MetricSet, error) {
	start, end := billingDateRange(billingDays)
	client := p.account.Clients.CostExplorer

	var onDemand, covered float64
	var nextToken *string
	for {
		out, err := client.GetSavingsPlansCoverage(ctx, &ce.GetSavingsPlansCoverageInput{
			TimePeriod: &cetypes.DateInterval{
				Start: aws.String(start),
				End:   aws.String(end),
			},
			Granularity: cetypes.GranularityMonthly,
			NextToken:   nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("GetSavingsPlansCoverage: %w", err)
		}

		for _, cov := range out.SavingsPlansCoverages {
			if cov.Coverage == nil {
				continue
			}
			onDemand += parseCostFloat(cov.Coverage.OnDemandCost)
			covered += parseCostFloat(cov.Coverage.SpendCoveredBySavingsPlans)
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	total := onDemand + covered
	coveragePercent := 0.0
	if total > 0 {
		coveragePercent = covered / total * 100
	}

	coverage := providers.MetricSet{
		"coverage_percentage": coveragePercent,
		"total_compute_spend": total,
		"covered_spend":       covered,
	}

	if plans, err := p.expiringPlans(ctx, start, end); err == nil {
		coverage["expiring_plans"] = plans
	} else {
		p.log.Warn("savings plans utilization details query failed", zap.Error(err))
	}

	return coverage, nil
}

// expiringPlans extracts plan identity, commitment, and expiry from the
// savings plans utilization details.
func (p *Provider) expiringPlans(ctx context.Context, start, end string) ([]providers.MetricSet, error) {
	client := p.account.Clients.CostExplorer

	out, err := client.GetSavingsPlansUtilizationDetails(ctx, &ce.GetSavingsPlansUtilizationDetailsInput{
		TimePeriod: &cetypes.DateInterval{
			Start: aws.String(start),
			End:   aws.String(end),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("GetSavingsPlansUtilizationDetails: %w", err)
	}

	now := time.Now().UTC()
	var plans []providers.MetricSet
	for _, detail := range out.SavingsPlansUtilizationDetails {
		endDate := detail.Attributes["EndDateTime"]
		expiry, err := time.Parse(time.RFC3339, endDate)
		if err != nil {
			continue
		}

		commitment := 0.0
		if detail.Utilization != nil {
			commitment = parseCostFloat(detail.Utilization.TotalCommitment)
		}

		plans = append(plans, providers.MetricSet{
			"plan_id":            aws.ToString(detail.SavingsPlanArn),
			"plan_type":          detail.Attributes["SavingsPlansType"],
			"days_until_expiry":  expiry.Sub(now).Hours() / 24,
			"expiry_date":        endDate,
			"monthly_commitment": commitment,
		})
	}
	return plans, nil
}

// GetOnDemandRIOpportunities surfaces Cost Explorer's RI purchase
// recommendations for steady on-demand EC2 usage.
func (p *Provider) GetOnDemandRIOpportunities(
	ctx context.Context,
	resources []models.Resource,
	region string,
) ([]providers.MetricSet, error) {
	client := p.account.Clients.CostExplorer

	out, err := client.GetReservationPurchaseRecommendation(ctx, &ce.GetReservationPurchaseRecommendationInput{
		Service:     aws.String("Amazon Elastic Compute Cloud - Compute"),
		TermInYears: cetypes.TermInYearsOneYear,
	})
	if err != nil {
		return nil, fmt.Errorf("GetReservationPurchaseRecommendation: %w", err)
	}

	var opportunities []providers.MetricSet
	for _, rec := range out.Recommendations {
		for _, detail := range rec.RecommendationDetails {
			instanceType := ""
			detailRegion := region
			if detail.InstanceDetails != nil && detail.InstanceDetails.EC2InstanceDetails != nil {
				instanceType = aws.ToString(detail.InstanceDetails.EC2InstanceDetails.InstanceType)
				detailRegion = aws.ToString(detail.InstanceDetails.EC2InstanceDetails.Region)
			}

			onDemandCost := parseCostFloat(detail.EstimatedMonthlyOnDemandCost)
			savings := parseCostFloat(detail.EstimatedMonthlySavingsAmount)
			savingsPercent := 0.0
			if onDemandCost > 0 {
				savingsPercent = savings / onDemandCost * 100
			}

			opportunities = append(opportunities, providers.MetricSet{
				"instance_type":             instanceType,
				"region":                    detailRegion,
				"instance_count":            parseCostFloat(detail.RecommendedNumberOfInstancesToPurchase),
				"on_demand_monthly_cost":    onDemandCost,
				"estimated_monthly_savings": savings,
				"savings_percentage":        savingsPercent,
				"recommended_term":          "1-year",
				"break_even_months":         parseCostFloat(detail.EstimatedBreakEvenInMonths),
			})
		}
	}
	return opportunities, nil
}

// parseCostFloat converts a CE decimal string to float64; nil or malformed
// values read as 0.
func parseCostFloat(s *string) float64 {
	if s == nil {
		return 0
	}
	f, err := strconv.ParseFloat(*s, 64)
	if err != nil {
		return 0
	}
	return f
}
