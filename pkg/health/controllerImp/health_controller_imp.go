package controllerImp

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"pvc/entities"
)

var appStart = time.Now()

type HealthCtrl struct {
	db *gorm.DB
}

func NewHealthCtrl(db *gorm.DB) *HealthCtrl { return &HealthCtrl{db: db} }

type check struct {
	OK  bool   `json:"ok"`
	Err string `json:"err,omitempty"`
}

func (h *HealthCtrl) ping(ctx context.Context) check {
	if h.db == nil {
		return check{Err: "gorm db is nil"}
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		return check{Err: "db.DB(): " + err.Error()}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return check{Err: "ping: " + err.Error()}
	}
	return check{OK: true}
}

// taskCounts is the number of tasks per status, every status present.
func (h *HealthCtrl) taskCounts(ctx context.Context) (map[entities.TaskStatus]int64, error) {
	var rows []struct {
		Status entities.TaskStatus
		N      int64
	}
	err := h.db.WithContext(ctx).Model(&entities.Task{}).
		Select("status, count(*) as n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := map[entities.TaskStatus]int64{
		entities.TaskNew: 0, entities.TaskInProgress: 0, entities.TaskRework: 0, entities.TaskDone: 0,
	}
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}

// GET /health
func (h *HealthCtrl) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 800*time.Millisecond)
	defer cancel()

	db := h.ping(ctx)
	resp := map[string]any{
		"status":     map[string]any{"ok": db.OK},
		"uptime_sec": int(time.Since(appStart).Seconds()),
		"checks":     map[string]any{"database": db},
		"time":       time.Now().Format(time.RFC3339),
	}
	if !db.OK {
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	if counts, err := h.taskCounts(ctx); err == nil {
		resp["tasks"] = counts
	}
	return c.JSON(http.StatusOK, resp)
}
