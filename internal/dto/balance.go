package dto

import "time"

// BalanceRequest is the payload of POST /balances and POST /balances/preview.
// Every per-subject list is aligned by index with SubjectIDs.
type BalanceRequest struct {
	SubjectsSymbology []string `json:"subjectsSymbology" validate:"required,min=1,dive,required,max=4"`
	WeeksCount        int      `json:"weeksCount" validate:"required,min=1,max=24"`
	EncountersList    []int    `json:"encountersList" validate:"required,min=1,dive,min=0"`
	// TimeBaseList is kept with the schedule but does not influence balancing.
	TimeBaseList     []int      `json:"timeBaseList" validate:"omitempty,dive,min=0"`
	ActivitiesList   [][]string `json:"activitiesList" validate:"omitempty"`
	AboveList        [][]int    `json:"aboveList" validate:"omitempty,dive,dive,min=0"`
	BelowList        [][]int    `json:"belowList" validate:"omitempty,dive,dive,min=0"`
	BalanceBelowList []int      `json:"balanceBelowList" validate:"required,min=1,dive,min=0"`
	PeriodID         string     `json:"periodId" validate:"required"`
	CareerID         string     `json:"careerId" validate:"required"`
	YearID           string     `json:"yearId" validate:"required"`
	SubjectIDs       []string   `json:"subjectIds" validate:"required,min=1,dive,required"`
	ClassRoom        *string    `json:"classRoom,omitempty"`
	Group            *string    `json:"group,omitempty"`
	// Policy overrides the configured balancer policy ("incumbent" or "walk").
	Policy string `json:"policy" validate:"omitempty,oneof=incumbent walk"`
	// FillOrder overrides the expander order ("shift" or "day").
	FillOrder string `json:"fillOrder" validate:"omitempty,oneof=shift day"`
	Seed      *int64 `json:"seed,omitempty"`
}

// BalanceStats summarises one engine run.
type BalanceStats struct {
	InitialObjective float64 `json:"initialObjective"`
	Objective        float64 `json:"objective"`
	Iterations       int     `json:"iterations"`
	Policy           string  `json:"policy"`
	Unplaced         int     `json:"unplaced"`
	ShiftsPerDay     int     `json:"shiftsPerDay"`
	ShiftsCover      bool    `json:"shiftsCover"`
	Duplicates       int     `json:"duplicates"`
	WeekLoads        []int   `json:"weekLoads"`
}

// OverflowEntry reports meetings the calendar could not hold.
type OverflowEntry struct {
	Week      int        `json:"week"`
	SubjectID string     `json:"subjectId"`
	Symbology string     `json:"symbology"`
	Count     int        `json:"count"`
	Reason    string     `json:"reason"`
	Date      *time.Time `json:"date,omitempty"`
}

// SlotProposal is one placed meeting of a proposal.
type SlotProposal struct {
	Week       int       `json:"week"`
	Date       time.Time `json:"date"`
	Day        int       `json:"day"`
	Number     int       `json:"number"`
	SubjectID  string    `json:"subjectId"`
	Symbology  string    `json:"symbology"`
	Activities []string  `json:"activities,omitempty"`
}

// BalancePreviewResponse returns a proposal that can later be saved.
type BalancePreviewResponse struct {
	ProposalID string          `json:"proposalId"`
	ExpiresAt  time.Time       `json:"expiresAt"`
	Balance    [][]int         `json:"balance"`
	Slots      []SlotProposal  `json:"slots"`
	Overflow   []OverflowEntry `json:"overflow"`
	Stats      BalanceStats    `json:"stats"`
}

// SaveBalanceRequest persists a previously generated proposal.
type SaveBalanceRequest struct {
	ProposalID string `json:"proposalId" validate:"required"`
}

// BalanceSavedResponse is returned once a schedule and its class times are stored.
type BalanceSavedResponse struct {
	Message    string          `json:"message"`
	ScheduleID string          `json:"scheduleId"`
	ClassTimes int             `json:"classTimes"`
	Overflow   []OverflowEntry `json:"overflow"`
	Stats      BalanceStats    `json:"stats"`
}
