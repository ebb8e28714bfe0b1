package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"

	"costscope/internal/models"
	"costscope/internal/providers"
)

// rdsClassMemoryGB maps RDS instance classes to their memory size. Used to
// turn FreeableMemory into a utilization percentage.
var rdsClassMemoryGB = map[string]float64{
	"db.t3.micro":   1,
	"db.t3.small":   2,
	"db.t3.medium":  4,
	"db.m5.large":   8,
	"db.m5.xlarge":  16,
	"db.m5.2xlarge": 32,
	"db.r5.large":   16,
	"db.r5.xlarge":  32,
}

// discoverDatabases pages through all RDS instances in region.
func (p *Provider) discoverDatabases(ctx context.Context, client RDSClient, region string) ([]models.Resource, error) {
	paginator := rds.NewDescribeDBInstancesPaginator(client, &rds.DescribeDBInstancesInput{})

	var resources []models.Resource
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("DescribeDBInstances page: %w", err)
		}
		for _, db := range page.DBInstances {
			id := aws.ToString(db.DBInstanceIdentifier)
			class := aws.ToString(db.DBInstanceClass)
			multiAZ := aws.ToBool(db.MultiAZ)
			status := aws.ToString(db.DBInstanceStatus)

			resources = append(resources, models.Resource{
				ID:       id,
				Name:     id,
				Type:     models.ResourceDatabase,
				Provider: models.ProviderAWS,
				Region:   region,
				State:    status,
				Metadata: map[string]any{
					"instance_type": class,
					"engine":        aws.ToString(db.Engine),
					"multi_az":      multiAZ,
				},
				MonthlyCost: rdsMonthlyCost(class, multiAZ),
				IsActive:    status == "available",
			})
		}
	}
	return resources, nil
}

// GetDatabaseInfo returns metadata for one RDS instance.
func (p *Provider) GetDatabaseInfo(ctx context.Context, resourceID, region string) (providers.MetricSet, error) {
	clients := p.clientsFor(region)

	out, err := clients.RDS.DescribeDBInstances(ctx, &rds.DescribeDBInstancesInput{
		DBInstanceIdentifier: aws.String(resourceID),
	})
	if err != nil {
		return nil, fmt.Errorf("DescribeDBInstances %s: %w", resourceID, err)
	}
	if len(out.DBInstances) == 0 {
		return nil, fmt.Errorf("database %s not found", resourceID)
	}
	db := out.DBInstances[0]
	class := aws.ToString(db.DBInstanceClass)

	info := providers.MetricSet{
		"instance_type": class,
		"engine":        aws.ToString(db.Engine),
		"multi_az":      aws.ToBool(db.MultiAZ),
	}
	if gb, ok := rdsClassMemoryGB[class]; ok {
		info["memory_bytes"] = gb * 1024 * 1024 * 1024
	}
	return info, nil
}

// GetDatabaseSizingRecommendations walks the static class ladder one step
// down and prices the candidate. Classes with no smaller neighbour return no
// recommendation.
func (p *Provider) GetDatabaseSizingRecommendations(
	ctx context.Context,
	resourceID, region string,
	metrics providers.MetricSet,
) ([]providers.MetricSet, error) {
	info, err := p.GetDatabaseInfo(ctx, resourceID, region)
	if err != nil {
		return nil, err
	}

	class := info.String("instance_type", "")
	target, ok := rdsDownsizeLadder[class]
	if !ok {
		return nil, nil
	}

	cost, _ := rdsMonthlyCost(target, info.Bool("multi_az", false)).Float64()
	return []providers.MetricSet{{
		"instance_type": target,
		"monthly_cost":  cost,
	}}, nil
}
