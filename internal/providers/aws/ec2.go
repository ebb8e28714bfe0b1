package aws

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/shopspring/decimal"

	"costscope/internal/models"
	"costscope/internal/providers"
)

// discoverInstances pages through all running and stopped EC2 instances in
// region and converts them to resources with an estimated monthly cost.
func (p *Provider) discoverInstances(ctx context.Context, client EC2Client, region string) ([]models.Resource, error) {
	input := &ec2svc.DescribeInstancesInput{
		Filters: []ec2types.Filter{
			{
				Name:   aws.String("instance-state-name"),
				Values: []string{"running", "stopped"},
			},
		},
	}

	paginator := ec2svc.NewDescribeInstancesPaginator(client, input)

	var resources []models.Resource
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("DescribeInstances page: %w", err)
		}
		for _, reservation := range page.Reservations {
			for _, inst := range reservation.Instances {
				resources = append(resources, toInstanceResource(inst, region))
			}
		}
	}
	return resources, nil
}

// toInstanceResource converts an SDK EC2 instance to the canonical model.
func toInstanceResource(inst ec2types.Instance, region string) models.Resource {
	var state string
	if inst.State != nil {
		state = string(inst.State.Name)
	}

	tags := tagsFromEC2(inst.Tags)
	name := tags["Name"]
	if name == "" {
		name = aws.ToString(inst.InstanceId)
	}

	instanceType := string(inst.InstanceType)
	metadata := map[string]any{
		"instance_type": instanceType,
		"lifecycle":     string(inst.InstanceLifecycle),
	}
	if inst.Platform == ec2types.PlatformValuesWindows {
		metadata["os_type"] = "windows"
	} else {
		metadata["os_type"] = "linux"
	}
	if inst.LaunchTime != nil {
		metadata["launch_time"] = inst.LaunchTime.UTC().Format(time.RFC3339)
	}

	cost := instanceMonthlyCost(instanceType)
	active := state == "running"
	if !active {
		// Stopped instances only pay for attached storage, accounted on the
		// volume resources.
		cost = decimal.Zero
	}

	return models.Resource{
		ID:          aws.ToString(inst.InstanceId),
		Name:        name,
		Type:        models.ResourceInstance,
		Provider:    models.ProviderAWS,
		Region:      region,
		State:       state,
		Tags:        tags,
		Metadata:    metadata,
		MonthlyCost: cost,
		IsActive:    active,
	}
}

// discoverVolumes pages through all EBS volumes in region.
func (p *Provider) discoverVolumes(ctx context.Context, client EC2Client, region string) ([]models.Resource, error) {
	input := &ec2svc.DescribeVolumesInput{
		Filters: []ec2types.Filter{
			{
				Name:   aws.String("status"),
				Values: []string{"available", "in-use"},
			},
		},
	}

	paginator := ec2svc.NewDescribeVolumesPaginator(client, input)

	var resources []models.Resource
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("DescribeVolumes page: %w", err)
		}
		for _, v := range page.Volumes {
			tags := tagsFromEC2(v.Tags)
			name := tags["Name"]
			if name == "" {
				name = aws.ToString(v.VolumeId)
			}
			resources = append(resources, models.Resource{
				ID:       aws.ToString(v.VolumeId),
				Name:     name,
				Type:     models.ResourceVolume,
				Provider: models.ProviderAWS,
				Region:   region,
				State:    string(v.State),
				Tags:     tags,
				Metadata: map[string]any{
					"volume_type": string(v.VolumeType),
					"size_gb":     aws.ToInt32(v.Size),
				},
				MonthlyCost: gbMonthlyCost(aws.ToInt32(v.Size), ebsPricePerGBMonth),
				IsActive:    v.State == ec2types.VolumeStateInUse,
			})
		}
	}
	return resources, nil
}

// discoverSnapshots pages through all snapshots owned by this account.
func (p *Provider) discoverSnapshots(ctx context.Context, client EC2Client, region string) ([]models.Resource, error) {
	input := &ec2svc.DescribeSnapshotsInput{
		OwnerIds: []string{"self"},
	}

	paginator := ec2svc.NewDescribeSnapshotsPaginator(client, input)

	var resources []models.Resource
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("DescribeSnapshots page: %w", err)
		}
		for _, s := range page.Snapshots {
			tags := tagsFromEC2(s.Tags)
			name := tags["Name"]
			if name == "" {
				name = aws.ToString(s.SnapshotId)
			}
			var created string
			if s.StartTime != nil {
				created = s.StartTime.UTC().Format(time.RFC3339)
			}
			resources = append(resources, models.Resource{
				ID:       aws.ToString(s.SnapshotId),
				Name:     name,
				Type:     models.ResourceSnapshot,
				Provider: models.ProviderAWS,
				Region:   region,
				State:    string(s.State),
				Tags:     tags,
				Metadata: map[string]any{
					"volume_id":  aws.ToString(s.VolumeId),
					"size_gb":    aws.ToInt32(s.VolumeSize),
					"created_at": created,
				},
				MonthlyCost: gbMonthlyCost(aws.ToInt32(s.VolumeSize), snapshotPricePerGBMonth),
				IsActive:    s.State == ec2types.SnapshotStateCompleted,
			})
		}
	}
	return resources, nil
}

// GetVolumeInfo returns attachment data for one EBS volume.
//
// AWS records no detach timestamp, so detached_at is approximated by the
// volume's creation time. This is exact for never-attached volumes and an
// upper bound otherwise.
func (p *Provider) GetVolumeInfo(ctx context.Context, resourceID, region string) (providers.MetricSet, error) {
	clients := p.clientsFor(region)

	out, err := clients.EC2.DescribeVolumes(ctx, &ec2svc.DescribeVolumesInput{
		VolumeIds: []string{resourceID},
	})
	if err != nil {
		return nil, fmt.Errorf("DescribeVolumes %s: %w", resourceID, err)
	}
	if len(out.Volumes) == 0 {
		return nil, fmt.Errorf("volume %s not found", resourceID)
	}
	v := out.Volumes[0]

	info := providers.MetricSet{
		"attached":    v.State == ec2types.VolumeStateInUse,
		"size_gb":     float64(aws.ToInt32(v.Size)),
		"volume_type": string(v.VolumeType),
	}
	if v.State == ec2types.VolumeStateAvailable && v.CreateTime != nil {
		info["detached_at"] = v.CreateTime.UTC()
	}
	return info, nil
}

// GetSnapshotInfo returns metadata for one snapshot, including whether it
// backs a registered AMI.
func (p *Provider) GetSnapshotInfo(ctx context.Context, resourceID, region string) (providers.MetricSet, error) {
	clients := p.clientsFor(region)

	out, err := clients.EC2.DescribeSnapshots(ctx, &ec2svc.DescribeSnapshotsInput{
		SnapshotIds: []string{resourceID},
	})
	if err != nil {
		return nil, fmt.Errorf("DescribeSnapshots %s: %w", resourceID, err)
	}
	if len(out.Snapshots) == 0 {
		return nil, fmt.Errorf("snapshot %s not found", resourceID)
	}
	s := out.Snapshots[0]

	info := providers.MetricSet{
		"size_gb":   float64(aws.ToInt32(s.VolumeSize)),
		"volume_id": aws.ToString(s.VolumeId),
	}
	if s.StartTime != nil {
		info["created_at"] = s.StartTime.UTC()
	}

	info["is_ami_snapshot"] = p.snapshotBacksImage(ctx, clients.EC2, resourceID) ||
		strings.Contains(strings.ToLower(aws.ToString(s.Description)), "created by createimage")

	// Backup-plan membership is surfaced through the standard AWS Backup tag.
	tags := tagsFromEC2(s.Tags)
	_, hasBackupTag := tags["aws:backup:source-resource"]
	info["has_backup_policy"] = hasBackupTag

	return info, nil
}

// snapshotBacksImage reports whether any registered AMI references the
// snapshot. Lookup failure reads as false; the age heuristic still applies.
func (p *Provider) snapshotBacksImage(ctx context.Context, client EC2Client, snapshotID string) bool {
	out, err := client.DescribeImages(ctx, &ec2svc.DescribeImagesInput{
		Filters: []ec2types.Filter{
			{
				Name:   aws.String("block-device-mapping.snapshot-id"),
				Values: []string{snapshotID},
			},
		},
		Owners: []string{"self"},
	})
	if err != nil {
		return false
	}
	return len(out.Images) > 0
}

// tagsFromEC2 converts EC2 SDK tags to a plain string map.
func tagsFromEC2(tags []ec2types.Tag) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	m := make(map[string]string, len(tags))
	for _, t := range tags {
		if t.Key != nil && t.Value != nil {
			m[*t.Key] = *t.Value
		}
	}
	return m
}
