package types

// CoinTier pays PerReport coins for every report once an author has more than
// MinReports reports.
type CoinTier struct {
	MinReports int64
	PerReport  int64
}

type CoinsConfig struct {
	Tiers         []CoinTier
	BaseReward    int64
	RecentReports int
}

// GetCoinsConfig returns the reward tiers, highest first.
func GetCoinsConfig() CoinsConfig {
	return CoinsConfig{
		Tiers: []CoinTier{
			{MinReports: 15, PerReport: 20},
			{MinReports: 5, PerReport: 15},
		},
		BaseReward:    10,
		RecentReports: 5,
	}
}

// CalculateCoins returns the coins earned for reportCount reports.
func CalculateCoins(reportCount int64) int64 {
	cfg := GetCoinsConfig()
	for _, tier := range cfg.Tiers {
		if reportCount > tier.MinReports {
			return reportCount * tier.PerReport
		}
	}
	return reportCount * cfg.BaseReward
}
