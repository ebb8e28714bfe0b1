package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/shopspring/decimal"

	"costscope/internal/models"
)

// discoverBuckets lists all S3 buckets. ListBuckets is a global call; the
// buckets are attributed to the queried region since the inventory is
// per-region. Bucket-level cost requires a storage metrics pipeline, so the
// monthly cost is reported as zero and storage checks rely on GetStorageInfo.
func (p *Provider) discoverBuckets(ctx context.Context, client S3Client, region string) ([]models.Resource, error) {
	out, err := client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("ListBuckets: %w", err)
	}

	var resources []models.Resource
	for _, b := range out.Buckets {
		name := aws.ToString(b.Name)
		resources = append(resources, models.Resource{
			ID:          name,
			Name:        name,
			Type:        models.ResourceStorage,
			Provider:    models.ProviderAWS,
			Region:      region,
			State:       "available",
			MonthlyCost: decimal.Zero,
			IsActive:    true,
		})
	}
	return resources, nil
}
