package dto

// ScheduleQuery filters schedule listings.
type ScheduleQuery struct {
	CareerID string `form:"careerId" json:"careerId"`
	YearID   string `form:"yearId" json:"yearId"`
	PeriodID string `form:"periodId" json:"periodId"`
	Page     int    `form:"page" json:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" json:"pageSize" validate:"omitempty,min=1,max=100"`
}

// ScheduleBalanceResponse returns the stored week-major balance vector.
type ScheduleBalanceResponse struct {
	ScheduleID string  `json:"scheduleId"`
	Balance    [][]int `json:"balance"`
	WeekLoads  []int   `json:"weekLoads"`
}
