package model

// Serialized snapshot records. Amounts travel as decimal strings and addresses
// as 0x-hex strings so snapshots stay readable and lossless at 128 bits.

// PoolRecord is a pool row for storage.
type PoolRecord struct {
	AssetIn     string `json:"asset_in"`
	AssetOut    string `json:"asset_out"`
	ReserveIn   string `json:"reserve_in"`
	ReserveOut  string `json:"reserve_out"`
	TotalShares string `json:"total_shares"`
}

// PositionRecord is a user share row for storage. Zero-share positions are
// never written; absence and zero are the same thing.
type PositionRecord struct {
	User     string `json:"user"`
	AssetIn  string `json:"asset_in"`
	AssetOut string `json:"asset_out"`
	Shares   string `json:"shares"`
}

// BalanceRecord is a custodial bank balance row.
type BalanceRecord struct {
	Holder string `json:"holder"`
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

// State is a full ledger snapshot: governance singletons plus every pool,
// position, allowlist entry, and bank balance.
type State struct {
	Owner         string           `json:"owner"`
	RewardRate    uint64           `json:"reward_rate"`
	AllowedTokens []string         `json:"allowed_tokens,omitempty"`
	Pools         []PoolRecord     `json:"pools,omitempty"`
	Positions     []PositionRecord `json:"positions,omitempty"`
	Balances      []BalanceRecord  `json:"balances,omitempty"`
}
