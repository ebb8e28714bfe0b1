package azure

import (
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v6"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/monitor/armmonitor"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/storage/armstorage"
)

// ClientSet bundles the ARM clients the adapter needs for one subscription.
type ClientSet struct {
	VirtualMachines *armcompute.VirtualMachinesClient
	Disks           *armcompute.DisksClient
	Snapshots       *armcompute.SnapshotsClient
	Accounts        *armstorage.AccountsClient
	Metrics         *armmonitor.MetricsClient
	Query           *armcostmanagement.QueryClient
}

// NewClientSet constructs the ARM clients for the subscription in cfg.
func NewClientSet(cfg Config, cred azcore.TokenCredential) (*ClientSet, error) {
	vms, err := armcompute.NewVirtualMachinesClient(cfg.SubscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("virtual machines client: %w", err)
	}
	disks, err := armcompute.NewDisksClient(cfg.SubscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("disks client: %w", err)
	}
	snapshots, err := armcompute.NewSnapshotsClient(cfg.SubscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("snapshots client: %w", err)
	}
	accounts, err := armstorage.NewAccountsClient(cfg.SubscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("storage accounts client: %w", err)
	}
	metrics, err := armmonitor.NewMetricsClient(cfg.SubscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("metrics client: %w", err)
	}
	query, err := armcostmanagement.NewQueryClient(cred, nil)
	if err != nil {
		return nil, fmt.Errorf("cost query client: %w", err)
	}

	return &ClientSet{
		VirtualMachines: vms,
		Disks:           disks,
		Snapshots:       snapshots,
		Accounts:        accounts,
		Metrics:         metrics,
		Query:           query,
	}, nil
}
