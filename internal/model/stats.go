package model

// Overview is the account summary shown on the admin dashboard.
type Overview struct {
	TotalUsers    int64 `json:"totalUsers"`
	VerifiedUsers int64 `json:"verifiedUsers"`
	Admins        int64 `json:"admins"`
	LastDayLogins int64 `json:"lastDayLogins"`
	OpenResets    int64 `json:"openResets"`
}
