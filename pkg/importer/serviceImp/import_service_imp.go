package serviceImp

import (
	"context"
	"fmt"
	"log"
	"strings"

	"pvc/entities"
	"pvc/pkg/apperr"
	"pvc/pkg/importer/service"
	"pvc/pkg/importer/source"
	taskSvc "pvc/pkg/task/service"
)

// PreviewLimit is how many rows a preview inspects.
const PreviewLimit = 100

// Tasks is the slice of the task service an import writes through.
type Tasks interface {
	Create(ctx context.Context, actor *entities.User, in taskSvc.CreateInput) (*entities.Task, error)
	Update(ctx context.Context, actor *entities.User, id uint, p taskSvc.TaskPatch) (*entities.Task, error)
	FindOpen(ctx context.Context, batch, cell string) (*entities.Task, error)
}

type TypeLister interface {
	ListTypes(ctx context.Context, activeOnly bool) ([]entities.ConstructType, error)
}

type importSvc struct {
	tasks Tasks
	types TypeLister
}

func NewImportService(tasks Tasks, types TypeLister) service.ImportService {
	return &importSvc{tasks: tasks, types: types}
}

// typeIndex matches active types by code or label, case-insensitively.
func (s *importSvc) typeIndex(ctx context.Context) (map[string]entities.ConstructType, error) {
	list, err := s.types.ListTypes(ctx, true)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]entities.ConstructType, 2*len(list))
	for _, t := range list {
		idx[strings.ToLower(t.Label)] = t
	}
	// codes win over a label that happens to read the same
	for _, t := range list {
		idx[strings.ToLower(t.Code)] = t
	}
	return idx, nil
}

// sheet is a request ready to be walked: data excludes the header row and
// first is the sheet row number of data[0].
type sheet struct {
	cols  columns
	data  source.Rows
	types map[string]entities.ConstructType
	first int
}

func (s *importSvc) prepare(ctx context.Context, actor *entities.User, rows source.Rows, opt service.Options) (*sheet, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("admin only")
	}
	cols, err := resolve(opt.Mapping)
	if err != nil {
		return nil, err
	}
	types, err := s.typeIndex(ctx)
	if err != nil {
		return nil, err
	}
	sh := &sheet{cols: cols, data: rows, types: types, first: 1}
	if opt.HasHeader && len(rows) > 0 {
		sh.data = rows[1:]
		sh.first = 2
	}
	return sh, nil
}

func (s *importSvc) Preview(ctx context.Context, actor *entities.User, rows source.Rows, opt service.Options) (*service.Preview, error) {
	sh, err := s.prepare(ctx, actor, rows, opt)
	if err != nil {
		return nil, err
	}

	out := &service.Preview{TotalRows: len(sh.data), Preview: []service.PreviewRow{}}
	for i, rec := range sh.data {
		if i == PreviewLimit {
			break
		}
		row, errs := read(rec, sh.cols)
		_, found := sh.types[strings.ToLower(row.Type)]
		if !found && row.Type != "" {
			errs = append(errs, fmt.Sprintf("type %q is not in the catalog", row.Type))
		}
		if errs == nil {
			errs = []string{}
			out.ValidRows++
		} else {
			out.InvalidRows++
		}
		out.Preview = append(out.Preview, service.PreviewRow{Row: sh.first + i, Data: row, TypeFound: found, Errors: errs})
	}
	return out, nil
}

func (s *importSvc) Execute(ctx context.Context, actor *entities.User, rows source.Rows, opt service.Options) (*service.Result, error) {
	switch opt.Mode {
	case "":
		opt.Mode = service.ModeAdd
	case service.ModeAdd, service.ModeUpdate:
	default:
		return nil, apperr.Validation("unknown mode %q", opt.Mode)
	}
	sh, err := s.prepare(ctx, actor, rows, opt)
	if err != nil {
		return nil, err
	}

	res := &service.Result{Errors: []string{}}
	for i, rec := range sh.data {
		n := sh.first + i
		row, errs := read(rec, sh.cols)
		if row.Batch == "" || row.Cell == "" || row.Type == "" {
			res.Skipped++
			continue
		}
		if len(errs) > 0 {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %s", n, strings.Join(errs, "; ")))
			continue
		}
		typ, ok := sh.types[strings.ToLower(row.Type)]
		if !ok {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: type %q is not in the catalog", n, row.Type))
			continue
		}

		updated, err := s.write(ctx, actor, opt.Mode, row, typ.ID)
		switch {
		case err != nil:
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", n, err))
		case updated:
			res.Updated++
		default:
			res.Created++
		}
	}
	log.Printf("[import] %s: created=%d updated=%d skipped=%d errors=%d",
		opt.Mode, res.Created, res.Updated, res.Skipped, len(res.Errors))
	return res, nil
}

// write stores one row and reports whether an existing task was updated.
func (s *importSvc) write(ctx context.Context, actor *entities.User, mode service.Mode, row service.Row, typeID uint) (bool, error) {
	if mode == service.ModeUpdate {
		existing, err := s.tasks.FindOpen(ctx, row.Batch, row.Cell)
		switch {
		case err == nil:
			_, err = s.tasks.Update(ctx, actor, existing.ID, taskSvc.TaskPatch{
				TypeID:         &typeID,
				QtyItems:       &row.QtyItems,
				ImpostsPerItem: &row.ImpostsPerItem,
				PlannedDate:    &row.PlannedDate,
			})
			return err == nil, err
		case !apperr.Is(err, apperr.KindNotFound):
			return false, err
		}
	}
	_, err := s.tasks.Create(ctx, actor, taskSvc.CreateInput{
		Batch:          row.Batch,
		Cell:           row.Cell,
		TypeID:         typeID,
		QtyItems:       row.QtyItems,
		ImpostsPerItem: row.ImpostsPerItem,
		PlannedDate:    row.PlannedDate,
	})
	return false, err
}
