package azure

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/monitor/armmonitor"

	"costscope/internal/providers"
)

// GetInstanceMetrics returns CPU and network utilization for one VM over the
// trailing window, from Azure Monitor at 1-day granularity.
func (p *Provider) GetInstanceMetrics(ctx context.Context, resourceID, region string, days int) (providers.MetricSet, error) {
	if days <= 0 {
		days = 30
	}
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)
	timespan := fmt.Sprintf("%s/%s", start.Format(time.RFC3339), end.Format(time.RFC3339))

	resp, err := p.clients.Metrics.List(ctx, resourceID, &armmonitor.MetricsClientListOptions{
		Metricnames: to.Ptr("Percentage CPU,Network In Total,Network Out Total"),
		Timespan:    to.Ptr(timespan),
		Interval:    to.Ptr("P1D"),
		Aggregation: to.Ptr("Average,Maximum"),
	})
	if err != nil {
		return nil, fmt.Errorf("metrics for %s: %w", resourceID, err)
	}

	metrics := providers.MetricSet{}
	var networkBytes float64
	var networkSeen bool

	for _, metric := range resp.Value {
		if metric.Name == nil || metric.Name.Value == nil {
			continue
		}
		avg, max, hasData := reduceTimeseries(metric.Timeseries)
		if !hasData {
			continue
		}
		switch *metric.Name.Value {
		case "Percentage CPU":
			metrics["avg_cpu_percent"] = avg
			metrics["max_cpu_percent"] = max
		case "Network In Total", "Network Out Total":
			networkBytes += avg
			networkSeen = true
		}
	}
	if networkSeen {
		metrics["avg_network_bytes"] = networkBytes
	}

	return metrics, nil
}

// reduceTimeseries averages the Average values and takes the maximum of the
// Maximum values across all timeseries elements.
func reduceTimeseries(series []*armmonitor.TimeSeriesElement) (avg, max float64, hasData bool) {
	var total float64
	var count int
	for _, ts := range series {
		if ts == nil {
			continue
		}
		for _, point := range ts.Data {
			if point == nil {
				continue
			}
			if point.Average != nil {
				total += *point.Average
				count++
			}
			if point.Maximum != nil && *point.Maximum > max {
				max = *point.Maximum
			}
		}
	}
	if count == 0 {
		return 0, 0, false
	}
	return total / float64(count), max, true
}
