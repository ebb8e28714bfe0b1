// Package aws implements the provider boundary on top of the AWS SDK v2:
// EC2, RDS, and S3 for inventory, CloudWatch for utilization metrics, and
// Cost Explorer for reservation and savings plan analysis.
package aws

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"costscope/internal/models"
	"costscope/internal/providers"
)

// Provider is the AWS implementation of providers.Provider.
//
// Service clients are created lazily per region and cached; Cost Explorer
// queries always run against us-east-1 through the account's home client
// set, since CE is a global service.
type Provider struct {
	account *Account
	factory ClientFactory
	log     *zap.Logger

	mu       sync.Mutex
	regional map[string]*ClientSet
}

// NewProvider wraps a loaded account. log may be nil.
func NewProvider(account *Account, log *zap.Logger) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	factory := NewClientSet
	return &Provider{
		account:  account,
		factory:  factory,
		log:      log,
		regional: map[string]*ClientSet{account.Region: account.Clients},
	}
}

// NewProviderWithFactory is NewProvider with a client factory override for
// tests.
func NewProviderWithFactory(account *Account, log *zap.Logger, factory ClientFactory) *Provider {
	p := NewProvider(account, log)
	if factory != nil {
		p.factory = factory
	}
	return p
}

func (p *Provider) Name() models.Provider { return models.ProviderAWS }

// clientsFor returns the cached client set for region, constructing one on
// first use. An empty region means the account's home region.
func (p *Provider) clientsFor(region string) *ClientSet {
	if region == "" {
		region = p.account.Region
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if cs, ok := p.regional[region]; ok {
		return cs
	}
	cs := p.factory(p.account.ConfigForRegion(region))
	p.regional[region] = cs
	return cs
}

// DiscoverResources inventories EC2 instances, EBS volumes, snapshots, RDS
// databases, and S3 buckets in region (the home region when empty). Failures
// of one service abort discovery: a partial inventory would silently narrow
// every downstream check.
func (p *Provider) DiscoverResources(ctx context.Context, region string) ([]models.Resource, error) {
	if region == "" {
		region = p.account.Region
	}
	clients := p.clientsFor(region)

	var resources []models.Resource

	instances, err := p.discoverInstances(ctx, clients.EC2, region)
	if err != nil {
		return nil, fmt.Errorf("discover EC2 instances: %w", err)
	}
	resources = append(resources, instances...)

	volumes, err := p.discoverVolumes(ctx, clients.EC2, region)
	if err != nil {
		return nil, fmt.Errorf("discover EBS volumes: %w", err)
	}
	resources = append(resources, volumes...)

	snapshots, err := p.discoverSnapshots(ctx, clients.EC2, region)
	if err != nil {
		return nil, fmt.Errorf("discover EBS snapshots: %w", err)
	}
	resources = append(resources, snapshots...)

	databases, err := p.discoverDatabases(ctx, clients.RDS, region)
	if err != nil {
		return nil, fmt.Errorf("discover RDS instances: %w", err)
	}
	resources = append(resources, databases...)

	buckets, err := p.discoverBuckets(ctx, clients.S3, region)
	if err != nil {
		return nil, fmt.Errorf("discover S3 buckets: %w", err)
	}
	resources = append(resources, buckets...)

	p.log.Debug("discovered resources",
		zap.String("region", region),
		zap.Int("count", len(resources)))

	return resources, nil
}

// GetStorageInfo has no AWS implementation: the redundancy catalog this
// query feeds is an Azure storage account concept.
func (p *Provider) GetStorageInfo(ctx context.Context, resourceID, region string) (providers.MetricSet, error) {
	return nil, providers.ErrNotSupported
}
