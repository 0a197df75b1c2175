package controllerImp

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"pvc/pkg/apperr"
	"pvc/pkg/importer/controller"
	"pvc/pkg/importer/service"
	"pvc/pkg/importer/source"
	"pvc/pkg/middleware"
)

// Fetcher downloads a shared spreadsheet.
type Fetcher interface {
	Fetch(ctx context.Context, link, sheetName string) (source.Rows, error)
}

type ImportCtrl struct {
	s     service.ImportService
	sheet Fetcher
}

func New(s service.ImportService, f Fetcher) controller.ImportController {
	return &ImportCtrl{s: s, sheet: f}
}

// request is the JSON body for a linked sheet. Uploads send the same fields
// as multipart form values, with mapping as a JSON string and the workbook
// under "file".
type request struct {
	URL       string `json:"url"`
	SheetName string `json:"sheet_name"`
	service.Options
}

func (h *ImportCtrl) load(c echo.Context) (source.Rows, service.Options, error) {
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return h.upload(c)
	}
	var req request
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return nil, req.Options, apperr.Validation("invalid json")
	}
	if strings.TrimSpace(req.URL) == "" {
		return nil, req.Options, apperr.Validation("url is required")
	}
	rows, err := h.sheet.Fetch(c.Request().Context(), strings.TrimSpace(req.URL), req.SheetName)
	if err != nil {
		return nil, req.Options, apperr.Validation("%v", err)
	}
	return rows, req.Options, nil
}

func (h *ImportCtrl) upload(c echo.Context) (source.Rows, service.Options, error) {
	var opt service.Options
	if err := json.Unmarshal([]byte(c.FormValue("mapping")), &opt.Mapping); err != nil {
		return nil, opt, apperr.Validation("mapping: invalid json")
	}
	opt.HasHeader = c.FormValue("has_header") == "true"
	opt.Mode = service.Mode(c.FormValue("mode"))

	fh, err := c.FormFile("file")
	if err != nil {
		return nil, opt, apperr.Validation("file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, opt, err
	}
	defer f.Close()
	rows, err := source.ParseXLSX(f, c.FormValue("sheet_name"))
	if err != nil {
		return nil, opt, apperr.Validation("%v", err)
	}
	return rows, opt, nil
}

// POST /api/import/preview
func (h *ImportCtrl) Preview(c echo.Context) error {
	rows, opt, err := h.load(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	p, err := h.s.Preview(c.Request().Context(), middleware.Actor(c), rows, opt)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// POST /api/import/execute
func (h *ImportCtrl) Execute(c echo.Context) error {
	rows, opt, err := h.load(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	res, err := h.s.Execute(c.Request().Context(), middleware.Actor(c), rows, opt)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
