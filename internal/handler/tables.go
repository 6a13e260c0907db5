package handler

import (
    "context"
    "fmt"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/happycoon/coffee-table-reservation/internal/booking"
    "github.com/happycoon/coffee-table-reservation/internal/model"
)

// TableHandler serves the table inventory.  Invalidate, when set, is called
// after every inventory change so cached listings are dropped.
type TableHandler struct {
    Svc        *booking.Service
    Invalidate func(ctx context.Context)
}

func NewTableHandler(svc *booking.Service, invalidate func(ctx context.Context)) *TableHandler {
    if svc == nil {
        panic("nil service passed to NewTableHandler")
    }
    return &TableHandler{Svc: svc, Invalidate: invalidate}
}

type tableReq struct {
    TableType string `json:"table_type"`
}

type tableResp struct {
    ID        uint64    `json:"id"`
    TableType string    `json:"table_type"`
    Label     string    `json:"label"`
    CreatedAt time.Time `json:"created_at"`
}

func toTableResp(t model.Table) tableResp {
    return tableResp{ID: t.ID, TableType: string(t.Type), Label: t.Type.Label(), CreatedAt: t.CreatedAt}
}

// List returns every table ordered by id.  Public.
func (h *TableHandler) List(c echo.Context) error {
    ctx, cancel := requestCtx(c)
    defer cancel()

    tables, err := h.Svc.ListTables(ctx)
    if err != nil {
        return writeError(c, err)
    }
    out := make([]tableResp, 0, len(tables))
    for _, t := range tables {
        out = append(out, toTableResp(t))
    }
    return c.JSON(http.StatusOK, out)
}

// Create adds a table of the requested type.  Admin only.
func (h *TableHandler) Create(c echo.Context) error {
    var req tableReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    tt, ok := model.ParseTableType(req.TableType)
    if !ok {
        return writeError(c, booking.ErrInvalidTableType)
    }

    ctx, cancel := requestCtx(c)
    defer cancel()

    t, err := h.Svc.CreateTable(ctx, tt)
    if err != nil {
        return writeError(c, err)
    }
    h.invalidate(ctx)
    return c.JSON(http.StatusCreated, toTableResp(*t))
}

// Delete removes a table together with all of its bookings.  Admin only.
func (h *TableHandler) Delete(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }

    ctx, cancel := requestCtx(c)
    defer cancel()

    if err := h.Svc.DeleteTable(ctx, id); err != nil {
        return writeError(c, err)
    }
    h.invalidate(ctx)
    return c.JSON(http.StatusOK, echo.Map{"message": fmt.Sprintf("Table №%d deleted successfully", id)})
}

func (h *TableHandler) invalidate(ctx context.Context) {
    if h.Invalidate != nil {
        h.Invalidate(ctx)
    }
}
