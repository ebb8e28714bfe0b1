package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"costscope/internal/providers"
)

// metricWindow converts a trailing day count to a [start, end) pair.
func metricWindow(days int) (time.Time, time.Time) {
	if days <= 0 {
		days = 30
	}
	end := time.Now().UTC()
	return end.AddDate(0, 0, -days), end
}

// GetInstanceMetrics returns CPU and network utilization for one EC2
// instance over the trailing window. Metrics CloudWatch has no data for are
// left absent; the checks' default-to-safe accessors keep missing data from
// reading as idle.
func (p *Provider) GetInstanceMetrics(ctx context.Context, resourceID, region string, days int) (providers.MetricSet, error) {
	clients := p.clientsFor(region)
	start, end := metricWindow(days)

	dims := []cwtypes.Dimension{{
		Name:  aws.String("InstanceId"),
		Value: aws.String(resourceID),
	}}

	metrics := providers.MetricSet{}

	cpu, err := fetchStatistics(ctx, clients.CloudWatch, "AWS/EC2", "CPUUtilization", dims, start, end)
	if err != nil {
		return nil, fmt.Errorf("CPUUtilization for %s: %w", resourceID, err)
	}
	if cpu.hasData {
		metrics["avg_cpu_percent"] = cpu.average
		metrics["max_cpu_percent"] = cpu.maximum
	}

	// NetworkIn and NetworkOut are summed per datapoint and averaged across
	// the window to approximate typical daily traffic in bytes.
	in, err := fetchStatistics(ctx, clients.CloudWatch, "AWS/EC2", "NetworkIn", dims, start, end)
	if err != nil {
		return nil, fmt.Errorf("NetworkIn for %s: %w", resourceID, err)
	}
	out, err := fetchStatistics(ctx, clients.CloudWatch, "AWS/EC2", "NetworkOut", dims, start, end)
	if err != nil {
		return nil, fmt.Errorf("NetworkOut for %s: %w", resourceID, err)
	}
	if in.hasData || out.hasData {
		metrics["avg_network_bytes"] = in.average + out.average
	}

	return metrics, nil
}

// GetDatabaseMetrics returns CPU and memory utilization for one RDS
// instance. Memory is derived from FreeableMemory against the class's total
// when known; absent otherwise.
func (p *Provider) GetDatabaseMetrics(ctx context.Context, resourceID, region string, days int) (providers.MetricSet, error) {
	clients := p.clientsFor(region)
	start, end := metricWindow(days)

	dims := []cwtypes.Dimension{{
		Name:  aws.String("DBInstanceIdentifier"),
		Value: aws.String(resourceID),
	}}

	metrics := providers.MetricSet{}

	cpu, err := fetchStatistics(ctx, clients.CloudWatch, "AWS/RDS", "CPUUtilization", dims, start, end)
	if err != nil {
		return nil, fmt.Errorf("RDS CPUUtilization for %s: %w", resourceID, err)
	}
	if cpu.hasData {
		metrics["avg_cpu_percent"] = cpu.average
		metrics["max_cpu_percent"] = cpu.maximum
	}

	free, err := fetchStatistics(ctx, clients.CloudWatch, "AWS/RDS", "FreeableMemory", dims, start, end)
	if err != nil {
		return nil, fmt.Errorf("RDS FreeableMemory for %s: %w", resourceID, err)
	}
	if free.hasData {
		if total := p.memoryBytesFor(ctx, resourceID, region); total > 0 {
			metrics["avg_memory_percent"] = (1 - free.average/total) * 100
			metrics["max_memory_percent"] = (1 - free.minimum/total) * 100
		}
	}

	return metrics, nil
}

// memoryBytesFor resolves the total memory of an RDS instance class.
// Returns 0 when the class is unknown.
func (p *Provider) memoryBytesFor(ctx context.Context, resourceID, region string) float64 {
	info, err := p.GetDatabaseInfo(ctx, resourceID, region)
	if err != nil {
		return 0
	}
	return info.Float("memory_bytes", 0)
}

// statistics is the reduced view of one GetMetricStatistics response.
type statistics struct {
	average float64
	maximum float64
	minimum float64
	hasData bool
}

// fetchStatistics retrieves Average, Maximum, and Minimum for one metric over
// [start, end) at 1-day granularity and reduces the datapoints: averages are
// averaged, maxima take the max, minima the min.
func fetchStatistics(
	ctx context.Context,
	cw CloudWatchClient,
	namespace, metricName string,
	dims []cwtypes.Dimension,
	start, end time.Time,
) (statistics, error) {
	out, err := cw.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String(namespace),
		MetricName: aws.String(metricName),
		Dimensions: dims,
		StartTime:  aws.Time(start),
		EndTime:    aws.Time(end),
		Period:     aws.Int32(86400),
		Statistics: []cwtypes.Statistic{
			cwtypes.StatisticAverage,
			cwtypes.StatisticMaximum,
			cwtypes.StatisticMinimum,
		},
	})
	if err != nil {
		return statistics{}, err
	}

	var s statistics
	var total float64
	var count int
	seenMin := false
	for _, dp := range out.Datapoints {
		if dp.Average != nil {
			total += *dp.Average
			count++
		}
		if dp.Maximum != nil && *dp.Maximum > s.maximum {
			s.maximum = *dp.Maximum
		}
		if dp.Minimum != nil && (!seenMin || *dp.Minimum < s.minimum) {
			s.minimum = *dp.Minimum
			seenMin = true
		}
	}
	if count == 0 {
		return statistics{}, nil
	}
	s.average = total / float64(count)
	s.hasData = true
	return s, nil
}
