package trust

// Rule is the stable identifier of one fraud detector
type Rule string

const (
	RuleHighTxnAmount         Rule = "high_txn_amount"
	RuleHighMonthlySpent      Rule = "high_monthly_spent"
	RuleNewAccount            Rule = "new_account"
	RuleMultipleDevices       Rule = "has_multiple_devices"
	RuleSharedDeviceCount     Rule = "shared_device_count"
	RuleSuspiciousConnections Rule = "suspicious_connections"
	RuleCircularTransaction   Rule = "circular_transaction_detected"
)

// DefaultDeltas maps each rule to the score deduction it applies when fired
func DefaultDeltas() map[Rule]int {
	return map[Rule]int{
		RuleHighTxnAmount:         -30,
		RuleHighMonthlySpent:      -15,
		RuleNewAccount:            -5,
		RuleMultipleDevices:       -10,
		RuleSharedDeviceCount:     -10,
		RuleSuspiciousConnections: -15,
		RuleCircularTransaction:   -25,
	}
}

const (
	// amount above this multiple of the sender plafond flags the transaction
	plafondMultiplier = 2.0
	// current-month spend above this multiple of the prior-month average fires
	monthlySpendMultiplier = 2.0
	// more devices than this fires has_multiple_devices
	deviceCountLimit = 5
	// more accounts than this on one device fires shared_device_count
	sharedAccountLimit = 5
	// more low-score counterparties than this fires suspicious_connections
	suspiciousCounterpartyLimit = 3
	// counterparties scoring below this count as suspicious
	counterpartyScoreThreshold = 50
	// outgoing transactions at which the new-account flag clears for good
	newAccountClearCount = 3
)
