package models

// UserProfile holds the account and usage counters shown on the dashboard
type UserProfile struct {
	Username     string `json:"username"`
	Plan         string `json:"plan"`
	ReportsUsed  int    `json:"reports_used"`
	ReportsQuota int    `json:"reports_quota"`
}

// ReportsRemaining returns how many reports the quota still allows
func (p UserProfile) ReportsRemaining() int {
	if p.ReportsQuota <= p.ReportsUsed {
		return 0
	}
	return p.ReportsQuota - p.ReportsUsed
}
