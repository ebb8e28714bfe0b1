package azure

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v6"

	"costscope/internal/models"
	"costscope/internal/providers"
)

// discoverVirtualMachines pages through all VMs in the subscription.
func (p *Provider) discoverVirtualMachines(ctx context.Context, region string) ([]models.Resource, error) {
	pager := p.clients.VirtualMachines.NewListAllPager(nil)

	var resources []models.Resource
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list virtual machines: %w", err)
		}
		for _, vm := range page.Value {
			if !inRegion(vm.Location, region) {
				continue
			}
			resources = append(resources, p.toVMResource(ctx, vm))
		}
	}
	return resources, nil
}

func (p *Provider) toVMResource(ctx context.Context, vm *armcompute.VirtualMachine) models.Resource {
	id := deref(vm.ID)
	name := deref(vm.Name)

	state := ""
	vmSize := ""
	osType := "linux"
	licenseType := ""
	lifecycle := ""
	if props := vm.Properties; props != nil {
		state = deref(props.ProvisioningState)
		if props.HardwareProfile != nil && props.HardwareProfile.VMSize != nil {
			vmSize = string(*props.HardwareProfile.VMSize)
		}
		if props.StorageProfile != nil && props.StorageProfile.OSDisk != nil &&
			props.StorageProfile.OSDisk.OSType != nil &&
			*props.StorageProfile.OSDisk.OSType == armcompute.OperatingSystemTypesWindows {
			osType = "windows"
		}
		licenseType = deref(props.LicenseType)
		if props.Priority != nil && *props.Priority == armcompute.VirtualMachinePriorityTypesSpot {
			lifecycle = "spot"
		}
	}

	return models.Resource{
		ID:       id,
		Name:     name,
		Type:     models.ResourceInstance,
		Provider: models.ProviderAzure,
		Region:   deref(vm.Location),
		State:    state,
		Tags:     tagsFromARM(vm.Tags),
		Metadata: map[string]any{
			"instance_type": vmSize,
			"os_type":       osType,
			"license_type":  strings.ToLower(licenseType),
			"lifecycle":     lifecycle,
		},
		MonthlyCost: p.monthlyCost(ctx, id),
		IsActive:    strings.EqualFold(state, "Succeeded"),
	}
}

// discoverDisks pages through all managed disks.
func (p *Provider) discoverDisks(ctx context.Context, region string) ([]models.Resource, error) {
	pager := p.clients.Disks.NewListPager(nil)

	var resources []models.Resource
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list disks: %w", err)
		}
		for _, disk := range page.Value {
			if !inRegion(disk.Location, region) {
				continue
			}
			id := deref(disk.ID)
			attached := disk.ManagedBy != nil && *disk.ManagedBy != ""
			var sizeGB int32
			state := ""
			if disk.Properties != nil {
				if disk.Properties.DiskSizeGB != nil {
					sizeGB = *disk.Properties.DiskSizeGB
				}
				if disk.Properties.DiskState != nil {
					state = string(*disk.Properties.DiskState)
				}
			}
			resources = append(resources, models.Resource{
				ID:       id,
				Name:     deref(disk.Name),
				Type:     models.ResourceVolume,
				Provider: models.ProviderAzure,
				Region:   deref(disk.Location),
				State:    state,
				Tags:     tagsFromARM(disk.Tags),
				Metadata: map[string]any{
					"size_gb":  sizeGB,
					"attached": attached,
				},
				MonthlyCost: p.monthlyCost(ctx, id),
				IsActive:    attached,
			})
		}
	}
	return resources, nil
}

// discoverSnapshots pages through all managed disk snapshots.
func (p *Provider) discoverSnapshots(ctx context.Context, region string) ([]models.Resource, error) {
	pager := p.clients.Snapshots.NewListPager(nil)

	var resources []models.Resource
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		for _, s := range page.Value {
			if !inRegion(s.Location, region) {
				continue
			}
			id := deref(s.ID)
			var created string
			var sizeGB int32
			if s.Properties != nil {
				if s.Properties.TimeCreated != nil {
					created = s.Properties.TimeCreated.UTC().Format(time.RFC3339)
				}
				if s.Properties.DiskSizeGB != nil {
					sizeGB = *s.Properties.DiskSizeGB
				}
			}
			resources = append(resources, models.Resource{
				ID:       id,
				Name:     deref(s.Name),
				Type:     models.ResourceSnapshot,
				Provider: models.ProviderAzure,
				Region:   deref(s.Location),
				State:    "completed",
				Tags:     tagsFromARM(s.Tags),
				Metadata: map[string]any{
					"size_gb":    sizeGB,
					"created_at": created,
				},
				MonthlyCost: p.monthlyCost(ctx, id),
				IsActive:    true,
			})
		}
	}
	return resources, nil
}

// GetVolumeInfo returns attachment data for one managed disk. Azure records
// no detach timestamp, so detached_at is approximated by the disk creation
// time, exact for never-attached disks and an upper bound otherwise.
func (p *Provider) GetVolumeInfo(ctx context.Context, resourceID, region string) (providers.MetricSet, error) {
	group, name, err := armIDParts(resourceID)
	if err != nil {
		return nil, err
	}

	resp, err := p.clients.Disks.Get(ctx, group, name, nil)
	if err != nil {
		return nil, fmt.Errorf("get disk %s: %w", name, err)
	}
	disk := resp.Disk

	attached := disk.ManagedBy != nil && *disk.ManagedBy != ""
	info := providers.MetricSet{"attached": attached}
	if disk.Properties != nil {
		if disk.Properties.DiskSizeGB != nil {
			info["size_gb"] = float64(*disk.Properties.DiskSizeGB)
		}
		if !attached && disk.Properties.TimeCreated != nil {
			info["detached_at"] = disk.Properties.TimeCreated.UTC()
		}
	}
	if disk.SKU != nil && disk.SKU.Name != nil {
		info["volume_type"] = string(*disk.SKU.Name)
	}
	return info, nil
}

// GetSnapshotInfo returns metadata for one managed disk snapshot.
func (p *Provider) GetSnapshotInfo(ctx context.Context, resourceID, region string) (providers.MetricSet, error) {
	group, name, err := armIDParts(resourceID)
	if err != nil {
		return nil, err
	}

	resp, err := p.clients.Snapshots.Get(ctx, group, name, nil)
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", name, err)
	}
	s := resp.Snapshot

	info := providers.MetricSet{
		// Managed snapshots never back marketplace images directly.
		"is_ami_snapshot": false,
	}
	if s.Properties != nil {
		if s.Properties.TimeCreated != nil {
			info["created_at"] = s.Properties.TimeCreated.UTC()
		}
		if s.Properties.DiskSizeGB != nil {
			info["size_gb"] = float64(*s.Properties.DiskSizeGB)
		}
		if s.Properties.CreationData != nil {
			info["volume_id"] = deref(s.Properties.CreationData.SourceResourceID)
		}
	}

	tags := tagsFromARM(s.Tags)
	_, hasBackupTag := tags["backup-policy"]
	info["has_backup_policy"] = hasBackupTag

	return info, nil
}
