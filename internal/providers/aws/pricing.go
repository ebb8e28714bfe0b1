package aws

import "github.com/shopspring/decimal"

// Placeholder on-demand pricing for cost estimation at discovery time.
// Values approximate us-east-1 Linux on-demand rates; adjust when a pricing
// service is available.

const (
	// ebsPricePerGBMonth covers gp2/gp3 in most regions.
	ebsPricePerGBMonth = 0.08

	// snapshotPricePerGBMonth is the standard EBS snapshot storage rate.
	snapshotPricePerGBMonth = 0.05

	hoursPerMonth = 730
)

// instanceHourlyPrice maps instance types to on-demand hourly rates.
// Unknown types fall back to the m5.large rate.
var instanceHourlyPrice = map[string]float64{
	"t3.micro":   0.0104,
	"t3.small":   0.0208,
	"t3.medium":  0.0416,
	"t3.large":   0.0832,
	"m5.large":   0.096,
	"m5.xlarge":  0.192,
	"m5.2xlarge": 0.384,
	"m5.4xlarge": 0.768,
	"c5.large":   0.085,
	"c5.xlarge":  0.17,
	"c5.2xlarge": 0.34,
	"r5.large":   0.126,
	"r5.xlarge":  0.252,
}

// rdsHourlyPrice maps RDS instance classes to on-demand hourly rates
// (single-AZ, MySQL). Multi-AZ doubles the rate.
var rdsHourlyPrice = map[string]float64{
	"db.t3.micro":   0.017,
	"db.t3.small":   0.034,
	"db.t3.medium":  0.068,
	"db.m5.large":   0.171,
	"db.m5.xlarge":  0.342,
	"db.m5.2xlarge": 0.684,
	"db.r5.large":   0.24,
	"db.r5.xlarge":  0.48,
}

// rdsDownsizeLadder maps an RDS instance class to the next class down.
var rdsDownsizeLadder = map[string]string{
	"db.m5.2xlarge": "db.m5.xlarge",
	"db.m5.xlarge":  "db.m5.large",
	"db.m5.large":   "db.t3.medium",
	"db.r5.xlarge":  "db.r5.large",
	"db.r5.large":   "db.m5.large",
	"db.t3.medium":  "db.t3.small",
	"db.t3.small":   "db.t3.micro",
}

// instanceMonthlyCost estimates the monthly cost of an instance type.
func instanceMonthlyCost(instanceType string) decimal.Decimal {
	rate, ok := instanceHourlyPrice[instanceType]
	if !ok {
		rate = instanceHourlyPrice["m5.large"]
	}
	return decimal.NewFromFloat(rate).Mul(decimal.NewFromInt(hoursPerMonth))
}

// rdsMonthlyCost estimates the monthly cost of an RDS instance class.
func rdsMonthlyCost(instanceClass string, multiAZ bool) decimal.Decimal {
	rate, ok := rdsHourlyPrice[instanceClass]
	if !ok {
		rate = rdsHourlyPrice["db.m5.large"]
	}
	cost := decimal.NewFromFloat(rate).Mul(decimal.NewFromInt(hoursPerMonth))
	if multiAZ {
		cost = cost.Mul(decimal.NewFromInt(2))
	}
	return cost
}

// gbMonthlyCost estimates the monthly cost of sizeGB at a per-GB rate.
func gbMonthlyCost(sizeGB int32, perGBMonth float64) decimal.Decimal {
	return decimal.NewFromInt(int64(sizeGB)).Mul(decimal.NewFromFloat(perGBMonth))
}
