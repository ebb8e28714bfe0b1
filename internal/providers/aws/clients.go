package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	ce "github.com/aws/aws-sdk-go-v2/service/costexplorer"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// ---------------------------------------------------------------------------
// Narrow client interfaces
//
// Each interface lists only the SDK operations used by this package.
// The real *ec2.Client, *rds.Client, etc. satisfy these automatically.
// Replace any field in ClientSet with a stub struct in unit tests.
// ---------------------------------------------------------------------------

// EC2Client covers the EC2 operations required for discovery and volume and
// snapshot lookups. A single *ec2.Client satisfies all of them, which also
// satisfies the SDK v2 paginator interfaces.
type EC2Client interface {
	DescribeInstances(
		ctx context.Context,
		params *ec2svc.DescribeInstancesInput,
		optFns ...func(*ec2svc.Options),
	) (*ec2svc.DescribeInstancesOutput, error)

	DescribeVolumes(
		ctx context.Context,
		params *ec2svc.DescribeVolumesInput,
		optFns ...func(*ec2svc.Options),
	) (*ec2svc.DescribeVolumesOutput, error)

	DescribeSnapshots(
		ctx context.Context,
		params *ec2svc.DescribeSnapshotsInput,
		optFns ...func(*ec2svc.Options),
	) (*ec2svc.DescribeSnapshotsOutput, error)

	DescribeImages(
		ctx context.Context,
		params *ec2svc.DescribeImagesInput,
		optFns ...func(*ec2svc.Options),
	) (*ec2svc.DescribeImagesOutput, error)
}

// RDSClient covers the RDS operations required for database discovery.
// Satisfies rds.DescribeDBInstancesAPIClient for the SDK v2 paginator.
type RDSClient interface {
	DescribeDBInstances(
		ctx context.Context,
		params *rds.DescribeDBInstancesInput,
		optFns ...func(*rds.Options),
	) (*rds.DescribeDBInstancesOutput, error)
}

// S3Client covers the S3 operations required for bucket discovery.
type S3Client interface {
	ListBuckets(
		ctx context.Context,
		params *s3.ListBucketsInput,
		optFns ...func(*s3.Options),
	) (*s3.ListBucketsOutput, error)
}

// CloudWatchClient covers the metric queries used for utilization lookups.
type CloudWatchClient interface {
	GetMetricStatistics(
		ctx context.Context,
		params *cloudwatch.GetMetricStatisticsInput,
		optFns ...func(*cloudwatch.Options),
	) (*cloudwatch.GetMetricStatisticsOutput, error)
}

// CostExplorerClient covers the account-level Cost Explorer operations used
// for reservation and savings plan analysis.
type CostExplorerClient interface {
	GetReservationUtilization(
		ctx context.Context,
		params *ce.GetReservationUtilizationInput,
		optFns ...func(*ce.Options),
	) (*ce.GetReservationUtilizationOutput, error)

	GetReservationPurchaseRecommendation(
		ctx context.Context,
		params *ce.GetReservationPurchaseRecommendationInput,
		optFns ...func(*ce.Options),
	) (*ce.GetReservationPurchaseRecommendationOutput, error)

	GetSavingsPlansCoverage(
		ctx context.Context,
		params *ce.GetSavingsPlansCoverageInput,
		optFns ...func(*ce.Options),
	) (*ce.GetSavingsPlansCoverageOutput, error)

	GetSavingsPlansUtilizationDetails(
		ctx context.Context,
		params *ce.GetSavingsPlansUtilizationDetailsInput,
		optFns ...func(*ce.Options),
	) (*ce.GetSavingsPlansUtilizationDetailsOutput, error)
}

// STSClient is the subset of STS operations used by the loader.
type STSClient interface {
	GetCallerIdentity(
		ctx context.Context,
		params *sts.GetCallerIdentityInput,
		optFns ...func(*sts.Options),
	) (*sts.GetCallerIdentityOutput, error)
}

// ---------------------------------------------------------------------------
// ClientSet and ClientFactory
// ---------------------------------------------------------------------------

// ClientSet holds fully initialised AWS service clients for a given profile
// and region. All fields are interfaces so they can be replaced with mocks
// in tests without importing the AWS SDK in test files.
type ClientSet struct {
	EC2          EC2Client
	RDS          RDSClient
	S3           S3Client
	CloudWatch   CloudWatchClient
	CostExplorer CostExplorerClient
	STS          STSClient
}

// ClientFactory creates a ClientSet from an aws.Config.
// Swap this in tests to inject mock clients.
type ClientFactory func(cfg aws.Config) *ClientSet

// NewClientSet is the production ClientFactory. It constructs real AWS SDK
// clients from cfg. Cost Explorer is always pointed at us-east-1 because it
// is a global service only reachable in that region.
func NewClientSet(cfg aws.Config) *ClientSet {
	ceCfg := cfg
	ceCfg.Region = "us-east-1"

	return &ClientSet{
		EC2:          ec2svc.NewFromConfig(cfg),
		RDS:          rds.NewFromConfig(cfg),
		S3:           s3.NewFromConfig(cfg),
		CloudWatch:   cloudwatch.NewFromConfig(cfg),
		CostExplorer: ce.NewFromConfig(ceCfg),
		STS:          sts.NewFromConfig(cfg),
	}
}
