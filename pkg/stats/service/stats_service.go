package service

import (
	"context"
	"time"

	"pvc/entities"
	"pvc/pkg/stats/aggregate"
)

// Query is a report request. Empty dates default to the last seven days
// through today.
type Query struct {
	DateFrom string
	DateTo   string
	TeamID   *uint
	UserID   *uint
}

type Report struct {
	From      string               `json:"date_from"`
	To        string               `json:"date_to"`
	Daily     []aggregate.DailyRow `json:"daily"`
	ByType    []aggregate.TypeRow  `json:"by_type"`
	TotalPlan int                  `json:"total_plan"`
	TotalFact int                  `json:"total_fact"`
}

type TaskBrief struct {
	ID       uint   `json:"id"`
	Batch    string `json:"batch"`
	Cell     string `json:"cell"`
	TypeCode string `json:"type_code"`
	Status   string `json:"status"`
}

// Summary is one day at a glance, as sent in the admin report.
type Summary struct {
	Date         string      `json:"date"`
	PlanCount    int         `json:"plan_count"`
	PlanSP       int         `json:"plan_sp"`
	DoneCount    int         `json:"done_count"`
	DoneSP       int         `json:"done_sp"`
	Percent      int         `json:"percent"`
	ReworkCount  int         `json:"rework_count"`
	OverdueCount int         `json:"overdue_count"`
	Rework       []TaskBrief `json:"rework"`  // first few
	Overdue      []TaskBrief `json:"overdue"` // first few, New or InProgress only
}

type StatsService interface {
	Report(ctx context.Context, actor *entities.User, q Query) (*Report, error)
	Workers(ctx context.Context, actor *entities.User, q Query) ([]aggregate.WorkerRow, error)
	Summary(ctx context.Context, day time.Time) (*Summary, error)
}
