package dto

import "time"

// CreatePeriodRequest creates an academic period.
type CreatePeriodRequest struct {
	Name      string `json:"name" validate:"required,max=120"`
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
}

// AddDayNotAvailableRequest closes a single date.
type AddDayNotAvailableRequest struct {
	Day    string `json:"day" validate:"required,datetime=2006-01-02"`
	Reason string `json:"reason" validate:"omitempty,max=255"`
}

// AddWeekNotAvailableRequest closes every week whose Monday falls inside the range.
type AddWeekNotAvailableRequest struct {
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
	Reason    string `json:"reason" validate:"omitempty,max=255"`
}

// PeriodCalendarResponse exposes the week arithmetic of a period.
type PeriodCalendarResponse struct {
	PeriodID                          string            `json:"periodId"`
	Start                             time.Time         `json:"start"`
	End                               time.Time         `json:"end"`
	NumberOfWeeks                     int               `json:"numberOfWeeks"`
	NumberOfWeeksExcludingUnavailable int               `json:"numberOfWeeksExcludingUnavailable"`
	BlackoutByWeek                    []BlackoutWeekday `json:"blackoutByWeek"`
	WeekStarts                        []time.Time       `json:"weekStarts"`
}

// BlackoutWeekday is a closed weekday in a 1-based teaching week; weekday 0 is Monday.
type BlackoutWeekday struct {
	Week    int `json:"week"`
	Weekday int `json:"weekday"`
}
