// Package aggregate turns a set of tasks into plan/fact reports. It reads
// tasks and never changes them; every function is pure.
//
// The input may be any superset of the relevant tasks: each view applies its
// own window and filters.
package aggregate

import (
	"math"
	"sort"
	"time"

	"pvc/entities"
	"pvc/pkg/effort"
)

// Window is a closed range of calendar days in the reference location.
type Window struct {
	From     string // YYYY-MM-DD
	To       string // YYYY-MM-DD
	TeamID   *uint
	WorkerID *uint
}

func (w Window) has(day string) bool { return day >= w.From && day <= w.To }

func (w Window) hasTime(t *time.Time, loc *time.Location) bool {
	return t != nil && w.has(effort.DayKey(*t, loc))
}

func sameTeam(filter, team *uint) bool {
	return filter == nil || (team != nil && *team == *filter)
}

type DailyRow struct {
	Date       string   `json:"date"`
	Plan       int      `json:"plan"`
	Fact       int      `json:"fact"`
	Diff       int      `json:"diff"`
	HoursPerSP *float64 `json:"hours_per_sp"`
}

type TypeRow struct {
	TypeID uint   `json:"type_id"`
	Code   string `json:"code,omitempty"`
	Label  string `json:"label,omitempty"`
	SP     int    `json:"sp"`
	Items  int    `json:"items"`
}

type WorkerRow struct {
	UserID           uint     `json:"user_id"`
	Name             string   `json:"name"`
	TeamID           *uint    `json:"team_id"`
	FactSP           int      `json:"fact_sp"`
	TasksCount       int      `json:"tasks_count"`
	HoursPerSP       *float64 `json:"hours_per_sp"`
	ReworkCount      int      `json:"rework_count"`
	AvgReworkMinutes *int     `json:"avg_rework_minutes"`
	LateCount        int      `json:"late_count"`
}

// PlanSet is every task planned inside w, any status, narrowed by team.
func PlanSet(tasks []entities.Task, w Window) []entities.Task {
	var out []entities.Task
	for _, t := range tasks {
		if w.has(t.PlannedDate) && sameTeam(w.TeamID, t.TeamID) {
			out = append(out, t)
		}
	}
	return out
}

// FactSet is every Done task finished inside w, narrowed by team and worker.
func FactSet(tasks []entities.Task, w Window, loc *time.Location) []entities.Task {
	var out []entities.Task
	for _, t := range tasks {
		if t.Status != entities.TaskDone || !w.hasTime(t.DoneAt, loc) || !sameTeam(w.TeamID, t.TeamID) {
			continue
		}
		if w.WorkerID != nil && (t.AssigneeUserID == nil || *t.AssigneeUserID != *w.WorkerID) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Daily buckets plan by planned day and fact by done day. Days present in
// either bucket are emitted in ascending order.
func Daily(plan, fact []entities.Task, loc *time.Location) []DailyRow {
	type pf struct{ plan, fact int }
	days := map[string]*pf{}
	bucket := func(day string) *pf {
		if days[day] == nil {
			days[day] = &pf{}
		}
		return days[day]
	}
	for _, t := range plan {
		bucket(t.PlannedDate).plan += t.SP()
	}
	for _, t := range fact {
		bucket(effort.DayKey(*t.DoneAt, loc)).fact += t.SP()
	}

	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]DailyRow, 0, len(keys))
	for _, k := range keys {
		v := days[k]
		rows = append(rows, DailyRow{
			Date:       k,
			Plan:       v.plan,
			Fact:       v.fact,
			Diff:       v.fact - v.plan,
			HoursPerSP: effort.HoursPerSP(v.fact),
		})
	}
	return rows
}

// ByType sums the fact set per construction type. types may be nil; rows are
// ordered by type id.
func ByType(fact []entities.Task, types map[uint]entities.ConstructType) []TypeRow {
	acc := map[uint]*TypeRow{}
	for _, t := range fact {
		row := acc[t.TypeID]
		if row == nil {
			row = &TypeRow{TypeID: t.TypeID}
			if ct, ok := types[t.TypeID]; ok {
				row.Code, row.Label = ct.Code, ct.Label
			}
			acc[t.TypeID] = row
		}
		row.SP += t.SP()
		row.Items += t.QtyItems
	}
	out := make([]TypeRow, 0, len(acc))
	for _, row := range acc {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TypeID < out[j].TypeID })
	return out
}

// ReworkSet is every task whose rework finished inside w and was approved at
// some point. The approval time is not bound to w and no team filter applies.
func ReworkSet(tasks []entities.Task, w Window, loc *time.Location) []entities.Task {
	var out []entities.Task
	for _, t := range tasks {
		if w.hasTime(t.ReworkDoneAt, loc) && t.ReworkApprovedAt != nil {
			out = append(out, t)
		}
	}
	return out
}

// Workers rolls tasks up per worker. workers are the people to report on,
// already narrowed by team; the worker filter of w is ignored here. Rows are
// sorted by FactSP, highest first.
func Workers(workers []entities.User, tasks []entities.Task, w Window, loc *time.Location) []WorkerRow {
	fw := w
	fw.WorkerID = nil
	fact := FactSet(tasks, fw, loc)
	rework := ReworkSet(tasks, w, loc)

	rows := make([]WorkerRow, 0, len(workers))
	for _, u := range workers {
		row := WorkerRow{UserID: u.ID, Name: u.DisplayName(), TeamID: u.TeamID}
		for _, t := range fact {
			if !assignedTo(t, u.ID) {
				continue
			}
			row.FactSP += t.SP()
			row.TasksCount++
			if t.LateComment != nil {
				row.LateCount++
			}
		}
		row.HoursPerSP = effort.HoursPerSP(row.FactSP)

		var total time.Duration
		for _, t := range rework {
			if !assignedTo(t, u.ID) {
				continue
			}
			row.ReworkCount++
			total += t.ReworkDoneAt.Sub(*t.ReworkApprovedAt)
		}
		if row.ReworkCount > 0 {
			avg := int(math.Floor(total.Minutes()/float64(row.ReworkCount) + 0.5))
			row.AvgReworkMinutes = &avg
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].FactSP > rows[j].FactSP })
	return rows
}

func assignedTo(t entities.Task, userID uint) bool {
	return t.AssigneeUserID != nil && *t.AssigneeUserID == userID
}

// Totals sums the effort of a set.
func Totals(tasks []entities.Task) int {
	sp := 0
	for _, t := range tasks {
		sp += t.SP()
	}
	return sp
}
