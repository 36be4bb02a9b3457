package model

// 展示层 DTO。金额均已换算为人类可读单位；聚合阶段始终使用 big.Int，
// 只在装配 DTO 时做精度换算。

// BurnStats 燃烧统计快照
type BurnStats struct {
	TotalBurned    float64  `json:"total_burned"`
	TotalSupply    float64  `json:"total_supply"`
	BurnedToday    float64  `json:"burned_today"`
	Burned7d       float64  `json:"burned_7d"`
	BurnPercentage float64  `json:"burn_percentage"`
	// 昨日燃烧量为 0 时无法比较，置空
	BurnRateChange *float64 `json:"burn_rate_change,omitempty"`
}

// BurnDataPoint 图表数据点（1 天窗口按小时，其余按自然日）
type BurnDataPoint struct {
	Date        string  `json:"date"`
	TotalBurned float64 `json:"total_burned"`
}

// BurnTransaction 最近的燃烧转账记录
type BurnTransaction struct {
	TxHash  string  `json:"tx_hash"`
	Date    string  `json:"date"`
	Amount  float64 `json:"amount"`
	From    string  `json:"from"`
	FromENS string  `json:"from_ens,omitempty"`
}

// BurnData 单代币燃烧数据聚合结果
type BurnData struct {
	Stats        BurnStats         `json:"stats"`
	ChartData    []BurnDataPoint   `json:"chart_data"`
	Transactions []BurnTransaction `json:"transactions"`
	PriceUSD     *float64          `json:"price_usd,omitempty"`
}

// TopStaker 质押排行榜条目
type TopStaker struct {
	Rank         int     `json:"rank"`
	Address      string  `json:"address"`
	ENSName      string  `json:"ens_name,omitempty"`
	StakedAmount float64 `json:"staked_amount"`
	StakeCount   int     `json:"stake_count"`
}

// TopDonor 捐赠排行榜条目，金额单位 ETH
type TopDonor struct {
	Rank          int     `json:"rank"`
	Address       string  `json:"address"`
	ENSName       string  `json:"ens_name,omitempty"`
	TotalGiven    float64 `json:"total_given"`
	DonationCount int     `json:"donation_count"`
}

// Winner 奖励获得者，reward 单位 ETH
type Winner struct {
	Address     string  `json:"address"`
	ENSName     string  `json:"ens_name,omitempty"`
	Reward      float64 `json:"reward"`
	BlockNumber uint64  `json:"block_number"`
	TxHash      string  `json:"tx_hash"`
	Date        string  `json:"date,omitempty"`
}

// Leaderboard 排行榜结果。ActiveCount 是过滤后、截断前的总人数，
// 不能由 Entries 长度反推。
type Leaderboard[T any] struct {
	Entries     []T `json:"entries"`
	ActiveCount int `json:"active_count"`
}

// BankStats 银行合约视图函数快照
type BankStats struct {
	TotalStaked        float64 `json:"total_staked"`          // 代币单位
	TotalGiven         float64 `json:"total_given"`           // ETH
	TotalBurnedViaBank float64 `json:"total_burned_via_bank"` // 代币单位
	EpochInterval      uint16  `json:"epoch_interval"`
	CurrentEpochStart  uint64  `json:"current_epoch_start"`
	CharityAddress     string  `json:"charity_address"`
}

// BankData 单代币银行数据聚合结果
type BankData struct {
	Stats             *BankStats  `json:"stats"`
	TopStakers        []TopStaker `json:"top_stakers"`
	StakerCount       int         `json:"staker_count"`
	TopDonors         []TopDonor  `json:"top_donors"`
	DonorCount        int         `json:"donor_count"`
	RecentWinners     []Winner    `json:"recent_winners"`
	EthPriceUSD       *float64    `json:"eth_price_usd,omitempty"`
	CurrentBlock      uint64      `json:"current_block"`
	CurrentRewardsETH float64     `json:"current_rewards_eth"`
}
