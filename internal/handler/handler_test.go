package handler

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/happycoon/coffee-table-reservation/internal/booking"
)

func TestParseBookingTime(t *testing.T) {
    want := time.Date(2030, 3, 5, 14, 0, 0, 0, time.UTC)
    for _, in := range []string{
        "2030-03-05T14:00:00",
        "2030-03-05T14:00",
        "2030-03-05 14:00:00",
        "2030-03-05 14:00",
        "2030-03-05T14:00:00Z",
        "2030-03-05T14:00:00+03:00",
        " 2030-03-05T14:00:00-07:00 ",
    } {
        got, err := parseBookingTime(in)
        require.NoError(t, err, in)
        assert.True(t, want.Equal(got), "%q parsed as %v", in, got)
    }

    for _, in := range []string{"", "tomorrow", "05.03.2030 14:00", "2030-03-05"} {
        _, err := parseBookingTime(in)
        assert.Error(t, err, in)
    }
}

func TestStatusFor(t *testing.T) {
    cases := map[error]int{
        booking.ErrInvalidTableType:                                    http.StatusBadRequest,
        booking.ErrInvalidInterval:                                     http.StatusBadRequest,
        booking.ErrInvalidDuration:                                     http.StatusBadRequest,
        booking.ErrInvalidAlignment:                                    http.StatusBadRequest,
        booking.ErrPastTime:                                            http.StatusBadRequest,
        booking.ErrOutsideBusinessHours:                                http.StatusBadRequest,
        booking.ErrNoTableAvailable:                                    http.StatusNotFound,
        fmt.Errorf("%w: booking 3", booking.ErrNotFound):               http.StatusNotFound,
        fmt.Errorf("%w: not yours", booking.ErrForbidden):              http.StatusForbidden,
        fmt.Errorf("%w: retries spent", booking.ErrStorageUnavailable): http.StatusServiceUnavailable,
        context.DeadlineExceeded:                                       http.StatusServiceUnavailable,
        errors.New("boom"):                                             http.StatusInternalServerError,
    }
    for err, want := range cases {
        assert.Equal(t, want, statusFor(err), err.Error())
    }
}

func TestWriteErrorHidesInternals(t *testing.T) {
    e := echo.New()
    rec := httptest.NewRecorder()
    c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

    require.NoError(t, writeError(c, errors.New("dial tcp 10.0.0.1:3306: refused")))
    assert.Equal(t, http.StatusInternalServerError, rec.Code)
    assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())

    rec = httptest.NewRecorder()
    c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
    require.NoError(t, writeError(c, booking.ErrPastTime))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.JSONEq(t, `{"error":"time must not be in the past"}`, rec.Body.String())
}

func TestParseID(t *testing.T) {
    e := echo.New()
    c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), httptest.NewRecorder())
    c.SetParamNames("id")

    c.SetParamValues("42")
    id, err := parseID(c, "id")
    require.NoError(t, err)
    assert.Equal(t, uint64(42), id)

    for _, bad := range []string{"0", "-1", "abc", ""} {
        c.SetParamValues(bad)
        _, err := parseID(c, "id")
        assert.Error(t, err, bad)
    }
}
