package handler

import (
    "errors"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/happycoon/coffee-table-reservation/internal/booking"
    "github.com/happycoon/coffee-table-reservation/internal/model"
)

// BookingHandler exposes the booking lifecycle to authenticated users.
type BookingHandler struct {
    Svc *booking.Service
}

func NewBookingHandler(svc *booking.Service) *BookingHandler {
    if svc == nil {
        panic("nil service passed to NewBookingHandler")
    }
    return &BookingHandler{Svc: svc}
}

type bookingReq struct {
    TableType string `json:"table_type"`
    StartTime string `json:"start_time"`
    EndTime   string `json:"end_time"`
}

type bookingResp struct {
    ID        uint64    `json:"id"`
    UserID    uint64    `json:"user_id"`
    TableID   uint64    `json:"table_id"`
    StartTime string    `json:"start_time"`
    EndTime   string    `json:"end_time"`
    CreatedAt time.Time `json:"created_at"`
}

// naiveLayout renders booking times the way they were requested: wall
// clock, no offset.
const naiveLayout = "2006-01-02T15:04:05"

func toBookingResp(b model.Booking) bookingResp {
    return bookingResp{
        ID:        b.ID,
        UserID:    b.UserID,
        TableID:   b.TableID,
        StartTime: b.StartTime.Format(naiveLayout),
        EndTime:   b.EndTime.Format(naiveLayout),
        CreatedAt: b.CreatedAt,
    }
}

func toBookingList(bs []model.Booking) []bookingResp {
    out := make([]bookingResp, 0, len(bs))
    for _, b := range bs {
        out = append(out, toBookingResp(b))
    }
    return out
}

var timeLayouts = []string{
    "2006-01-02T15:04:05",
    "2006-01-02T15:04",
    "2006-01-02 15:04:05",
    "2006-01-02 15:04",
}

// parseBookingTime accepts RFC 3339 (the offset is dropped, the wall clock
// kept) or one of the offset-free layouts above.
func parseBookingTime(s string) (time.Time, error) {
    s = strings.TrimSpace(s)
    if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
        return booking.Naive(t), nil
    }
    for _, layout := range timeLayouts {
        if t, err := time.Parse(layout, s); err == nil {
            return t, nil
        }
    }
    return time.Time{}, errors.New("unrecognised time format")
}

// Create books the first free table of the requested type.
func (h *BookingHandler) Create(c echo.Context) error {
    actor, err := actorFrom(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req bookingReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    tt, ok := model.ParseTableType(req.TableType)
    if !ok {
        return writeError(c, booking.ErrInvalidTableType)
    }
    start, err := parseBookingTime(req.StartTime)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_time: " + err.Error()})
    }
    end, err := parseBookingTime(req.EndTime)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_time: " + err.Error()})
    }

    ctx, cancel := requestCtx(c)
    defer cancel()

    b, err := h.Svc.CreateBooking(ctx, actor, tt, start, end)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, toBookingResp(*b))
}

// My lists the caller's bookings.
func (h *BookingHandler) My(c echo.Context) error { return h.list(c, booking.ScopeAll) }

// MyUpcoming lists the caller's bookings that have not ended yet.
func (h *BookingHandler) MyUpcoming(c echo.Context) error { return h.list(c, booking.ScopeUpcoming) }

// MyPrevious lists the caller's bookings that have ended.
func (h *BookingHandler) MyPrevious(c echo.Context) error { return h.list(c, booking.ScopePrevious) }

func (h *BookingHandler) list(c echo.Context, scope booking.Scope) error {
    actor, err := actorFrom(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    bs, err := h.Svc.ListBookings(ctx, actor, scope)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, toBookingList(bs))
}

// All lists every booking.  Admin only.
func (h *BookingHandler) All(c echo.Context) error {
    actor, err := actorFrom(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := requestCtx(c)
    defer cancel()

    bs, err := h.Svc.ListAllBookings(ctx, actor)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, toBookingList(bs))
}

// Delete cancels a booking.  Owners may cancel their own upcoming bookings;
// admins may cancel any.
func (h *BookingHandler) Delete(c echo.Context) error {
    actor, err := actorFrom(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := parseID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }

    ctx, cancel := requestCtx(c)
    defer cancel()

    if err := h.Svc.DeleteBooking(ctx, actor, id); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": fmt.Sprintf("Booking №%d deleted successfully", id)})
}
