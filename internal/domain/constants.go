package domain

const (
	RoleMember = "MEMBER"
	RoleAdmin  = "ADMIN"
)

const (
	CategoryTheft         = "THEFT"
	CategoryStolenVehicle = "STOLEN_VEHICLE"
	CategorySuspicious    = "SUSPICIOUS"
)

// Canonical report status enum. Expiry is derived from expires_at, never stored.
const (
	ReportStatusActive      = "ACTIVE"
	ReportStatusFound       = "FOUND"
	ReportStatusResolved    = "RESOLVED"
	ReportStatusFalseReport = "FALSE_REPORT"
)

const (
	ConfirmationSeen       = "SEEN"
	ConfirmationFalse      = "FALSE"
	ConfirmationCallPolice = "CALL_POLICE"
)

const (
	AlertStatusSent    = "SENT"
	AlertStatusFailed  = "FAILED"
	AlertStatusPending = "PENDING"
)

const AlertTypeTheft = "THEFT_ALERT"

// Alert radius bounds in meters.
const (
	MinRadiusM = 500
	MaxRadiusM = 5000
)

// Report expiry bounds in hours. Stolen vehicle reports may stay visible
// for up to a week; everything else caps at a day.
const (
	DefaultExpiryHours       = 2
	MinExpiryHours           = 1
	MaxExpiryHours           = 24
	MaxStolenVehicleExpiryHr = 168
)

func ValidCategory(c string) bool {
	switch c {
	case CategoryTheft, CategoryStolenVehicle, CategorySuspicious:
		return true
	}
	return false
}

func ValidReportStatus(s string) bool {
	switch s {
	case ReportStatusActive, ReportStatusFound, ReportStatusResolved, ReportStatusFalseReport:
		return true
	}
	return false
}

func ValidConfirmationType(t string) bool {
	switch t {
	case ConfirmationSeen, ConfirmationFalse, ConfirmationCallPolice:
		return true
	}
	return false
}

// MaxExpiryForCategory returns the expiry ceiling in hours for a category.
func MaxExpiryForCategory(category string) int {
	if category == CategoryStolenVehicle {
		return MaxStolenVehicleExpiryHr
	}
	return MaxExpiryHours
}
