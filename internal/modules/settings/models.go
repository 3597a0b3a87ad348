// Package settings provides the settings repository for analysis parameters.
// Settings are key-value pairs stored in config.db; values stored there take
// precedence over environment configuration.
package settings

// SettingDefaults holds the default values for configurable settings
var SettingDefaults = map[string]float64{
	// Rebalancing
	"rebalancing_threshold":  0.05,  // Minimum |drift| before an action is emitted (5%)
	"min_transaction_amount": 0.0,   // Roadmap filter, in currency units
	"new_investment":         0.0,   // Fresh capital per analysis run
	"tax_rate":               0.0,   // Charged on gross sale proceeds
	"transaction_cost_rate":  0.001, // Charged on every traded amount (0.1%)
}
