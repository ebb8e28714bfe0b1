package azure

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"costscope/internal/models"
	"costscope/internal/providers"
)

// Provider is the Azure implementation of providers.Provider. Inventory
// comes from ARM list calls; monthly costs are attributed from a single
// Cost Management query over the trailing 30 days, fetched once per run.
type Provider struct {
	cfg     Config
	clients *ClientSet
	log     *zap.Logger

	costOnce sync.Once
	costs    map[string]decimal.Decimal
	costErr  error
}

// NewProvider wraps a client set for one subscription. log may be nil.
func NewProvider(cfg Config, clients *ClientSet, log *zap.Logger) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{cfg: cfg, clients: clients, log: log}
}

func (p *Provider) Name() models.Provider { return models.ProviderAzure }

// DiscoverResources inventories virtual machines, managed disks, snapshots,
// and storage accounts, restricted to region when non-empty.
func (p *Provider) DiscoverResources(ctx context.Context, region string) ([]models.Resource, error) {
	var resources []models.Resource

	vms, err := p.discoverVirtualMachines(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("discover virtual machines: %w", err)
	}
	resources = append(resources, vms...)

	disks, err := p.discoverDisks(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("discover disks: %w", err)
	}
	resources = append(resources, disks...)

	snapshots, err := p.discoverSnapshots(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("discover snapshots: %w", err)
	}
	resources = append(resources, snapshots...)

	accounts, err := p.discoverStorageAccounts(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("discover storage accounts: %w", err)
	}
	resources = append(resources, accounts...)

	p.log.Debug("discovered resources",
		zap.String("subscription", p.cfg.SubscriptionID),
		zap.String("region", region),
		zap.Int("count", len(resources)))

	return resources, nil
}

// monthlyCost looks up the trailing-30-day cost attributed to an ARM
// resource ID. Resources without billed usage read as zero.
func (p *Provider) monthlyCost(ctx context.Context, armID string) decimal.Decimal {
	p.costOnce.Do(func() {
		p.costs, p.costErr = p.queryResourceCosts(ctx)
		if p.costErr != nil {
			p.log.Warn("cost attribution query failed, costs default to zero",
				zap.Error(p.costErr))
		}
	})
	return p.costs[strings.ToLower(armID)]
}

// inRegion filters by ARM location; an empty region matches everything.
func inRegion(location *string, region string) bool {
	if region == "" {
		return true
	}
	return location != nil && strings.EqualFold(*location, region)
}

// tagsFromARM converts ARM tags to a plain string map.
func tagsFromARM(tags map[string]*string) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	m := make(map[string]string, len(tags))
	for k, v := range tags {
		if v != nil {
			m[k] = *v
		}
	}
	return m
}

// armIDParts extracts the resource group and resource name from an ARM ID:
// /subscriptions/<sub>/resourceGroups/<group>/providers/<ns>/<type>/<name>.
func armIDParts(armID string) (group, name string, err error) {
	parts := strings.Split(strings.Trim(armID, "/"), "/")
	for i := 0; i < len(parts)-1; i++ {
		if strings.EqualFold(parts[i], "resourceGroups") {
			group = parts[i+1]
		}
	}
	if group == "" || len(parts) < 2 {
		return "", "", fmt.Errorf("malformed ARM resource ID %q", armID)
	}
	return group, parts[len(parts)-1], nil
}

// deref returns the value under a string pointer, or "".
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// timeOrZero dereferences a time pointer.
func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// The database catalog has no Azure surface in this adapter; SQL inventory
// and sizing live behind a separate resource provider not wired here.

func (p *Provider) GetDatabaseMetrics(ctx context.Context, resourceID, region string, days int) (providers.MetricSet, error) {
	return nil, providers.ErrNotSupported
}

func (p *Provider) GetDatabaseInfo(ctx context.Context, resourceID, region string) (providers.MetricSet, error) {
	return nil, providers.ErrNotSupported
}

func (p *Provider) GetDatabaseSizingRecommendations(ctx context.Context, resourceID, region string, metrics providers.MetricSet) ([]providers.MetricSet, error) {
	return nil, providers.ErrNotSupported
}

// Reservation and savings plan analysis is Cost Explorer territory; the
// corresponding checks gate themselves to AWS.

func (p *Provider) GetReservedInstancesUtilization(ctx context.Context, region string) (providers.MetricSet, error) {
	return nil, providers.ErrNotSupported
}

func (p *Provider) GetSavingsPlansCoverage(ctx context.Context, region string) (providers.MetricSet, error) {
	return nil, providers.ErrNotSupported
}

func (p *Provider) GetOnDemandRIOpportunities(ctx context.Context, resources []models.Resource, region string) ([]providers.MetricSet, error) {
	return nil, providers.ErrNotSupported
}
