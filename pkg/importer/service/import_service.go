package service

import (
	"context"

	"pvc/entities"
	"pvc/pkg/importer/source"
)

// Mapping names the sheet column (A, B, ... AA) of each task field.
// ImpostsPerItem may be left empty and then reads as 0.
type Mapping struct {
	Batch          string `json:"batch"`
	Cell           string `json:"cell"`
	Type           string `json:"type"`
	QtyItems       string `json:"qty_items"`
	ImpostsPerItem string `json:"imposts_per_item"`
	PlannedDate    string `json:"planned_date"`
}

type Mode string

const (
	// ModeAdd creates a task for every row.
	ModeAdd Mode = "add"
	// ModeUpdate updates the open task at the row's batch and cell, creating
	// one when there is none.
	ModeUpdate Mode = "update"
)

// Options applies to one sheet.
type Options struct {
	Mapping   Mapping `json:"mapping"`
	HasHeader bool    `json:"has_header"`
	Mode      Mode    `json:"mode"`
}

// Row is one sheet row read through the mapping.
type Row struct {
	Batch          string `json:"batch"`
	Cell           string `json:"cell"`
	Type           string `json:"type"`
	QtyItems       int    `json:"qty_items"`
	ImpostsPerItem int    `json:"imposts_per_item"`
	PlannedDate    string `json:"planned_date"`
}

type PreviewRow struct {
	Row       int      `json:"row"` // 1-based sheet row
	Data      Row      `json:"data"`
	TypeFound bool     `json:"type_found"`
	Errors    []string `json:"errors"`
}

type Preview struct {
	TotalRows   int          `json:"total_rows"`
	Preview     []PreviewRow `json:"preview"`
	ValidRows   int          `json:"valid_rows"`
	InvalidRows int          `json:"invalid_rows"`
}

type Result struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

type ImportService interface {
	// Preview checks the first rows without writing anything.
	Preview(ctx context.Context, actor *entities.User, rows source.Rows, opt Options) (*Preview, error)
	Execute(ctx context.Context, actor *entities.User, rows source.Rows, opt Options) (*Result, error)
}
