package models

// Lease is a short-lived exclusivity claim on one unit of heartbeat work
// (a conversation being advanced, or a candidate pair being matched). An
// expired lease is free to be re-acquired.
type Lease struct {
	LeaseKey  string `dynamodbav:"leaseKey" json:"leaseKey"`
	Owner     string `dynamodbav:"owner" json:"owner"`
	ExpiresAt string `dynamodbav:"expiresAt" json:"expiresAt"`
}

// LeasesTable is the DynamoDB table name for heartbeat work leases
const LeasesTable = "MatchingLeases"
