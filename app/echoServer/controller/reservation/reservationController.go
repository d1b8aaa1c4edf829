package reservation

import (
	"log/slog"
	"net/http"

	"rentalbooking/app/echoServer/jwtx"
	"rentalbooking/model"
	rs "rentalbooking/service/reservation"

	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc rs.Service
	Log *slog.Logger
}

// Create a reservation
// @Summary      Create reservation
// @Description  Book a listing for [start_date, end_date) as the calling tenant. The reservation starts pending.
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body  CreateReservationReq  true  "Booking request"
// @Success      201  {object}  ReservationResp
// @Failure      400  {object}  ErrorResp
// @Failure      401  {object}  ErrorResp
// @Failure      404  {object}  ErrorResp "listing not found"
// @Failure      409  {object}  ErrorResp "dates already booked"
// @Failure      503  {object}  ErrorResp "listing or identity service unavailable"
// @Router       /v1/reservations [post]
func (h *Controller) Create(c echo.Context) error {
	var req CreateReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResp{Message: "invalid JSON", Kind: string(rs.ErrInvalidInput)})
	}

	out, err := h.Svc.Create(c.Request().Context(), jwtx.Credential(c), rs.CreateInput{
		ListingID: req.ListingID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		return h.fail(c, "reservation create", err)
	}
	return c.JSON(http.StatusCreated, ReservationResp{Data: *out})
}

// ListMine
// @Summary      My reservations
// @Description  Tenants see what they booked, owners see bookings on their listings. Newest first.
// @Tags         reservations
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query  int  false  "page size (1-100)"
// @Param        offset  query  int  false  "offset"
// @Success      200  {object}  ReservationListResp
// @Failure      401  {object}  ErrorResp
// @Failure      403  {object}  ErrorResp
// @Router       /v1/reservations [get]
func (h *Controller) ListMine(c echo.Context) error {
	p, ok := h.page(c)
	if !ok {
		return nil
	}
	out, err := h.Svc.ListMine(c.Request().Context(), jwtx.Credential(c), p)
	if err != nil {
		return h.fail(c, "reservation list mine", err)
	}
	return c.JSON(http.StatusOK, ReservationListResp{Data: *out})
}

// ListAll
// @Summary      All reservations (admin)
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query  int  false  "page size (1-100)"
// @Param        offset  query  int  false  "offset"
// @Success      200  {object}  ReservationListResp
// @Failure      403  {object}  ErrorResp
// @Router       /v1/reservations/all [get]
func (h *Controller) ListAll(c echo.Context) error {
	p, ok := h.page(c)
	if !ok {
		return nil
	}
	out, err := h.Svc.ListAll(c.Request().Context(), jwtx.Credential(c), p)
	if err != nil {
		return h.fail(c, "reservation list all", err)
	}
	return c.JSON(http.StatusOK, ReservationListResp{Data: *out})
}

// GET /v1/reservations/:id
func (h *Controller) Get(c echo.Context) error {
	out, err := h.Svc.Get(c.Request().Context(), jwtx.Credential(c), c.Param("id"))
	if err != nil {
		return h.fail(c, "reservation get", err)
	}
	return c.JSON(http.StatusOK, ReservationResp{Data: *out})
}

// SetStatus
// @Summary      Confirm or reject
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string           true  "reservation id"
// @Param        payload  body  UpdateStatusReq  true  "confirmed | rejected, optional reason"
// @Success      200  {object}  ReservationResp
// @Failure      403  {object}  ErrorResp
// @Failure      409  {object}  ErrorResp "illegal transition"
// @Router       /v1/reservations/{id}/status [patch]
func (h *Controller) SetStatus(c echo.Context) error {
	var req UpdateStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResp{Message: "invalid JSON", Kind: string(rs.ErrInvalidInput)})
	}

	out, err := h.Svc.SetStatus(c.Request().Context(), jwtx.Credential(c), c.Param("id"), req.Status, req.Reason)
	if err != nil {
		return h.fail(c, "reservation set status", err)
	}
	return c.JSON(http.StatusOK, ReservationResp{Data: *out})
}

// PATCH /v1/reservations/:id/cancel
func (h *Controller) Cancel(c echo.Context) error {
	out, err := h.Svc.Cancel(c.Request().Context(), jwtx.Credential(c), c.Param("id"))
	if err != nil {
		return h.fail(c, "reservation cancel", err)
	}
	return c.JSON(http.StatusOK, ReservationResp{Message: "cancelled", Data: *out})
}

// DELETE /v1/reservations/:id
func (h *Controller) Delete(c echo.Context) error {
	if err := h.Svc.Delete(c.Request().Context(), jwtx.Credential(c), c.Param("id")); err != nil {
		return h.fail(c, "reservation delete", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}

func (h *Controller) page(c echo.Context) (model.Page, bool) {
	var q model.Page
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		_ = c.JSON(http.StatusBadRequest, ErrorResp{Message: "invalid pagination", Kind: string(rs.ErrInvalidInput)})
		return model.Page{}, false
	}
	if err := c.Validate(&q); err != nil {
		_ = c.JSON(http.StatusBadRequest, ErrorResp{Message: "invalid pagination", Kind: string(rs.ErrInvalidInput), Errors: err.Error()})
		return model.Page{}, false
	}
	return q, true
}

func (h *Controller) fail(c echo.Context, op string, err error) error {
	code := rs.Code(err)
	status := statusFor(code)
	if status == http.StatusInternalServerError {
		rid := c.Response().Header().Get(echo.HeaderXRequestID)
		h.Log.Error(op,
			"err", err,
			"req_id", rid,
			"path", c.Path(),
			"method", c.Request().Method,
		)
		return c.JSON(status, ErrorResp{Message: "internal error"})
	}
	if status == http.StatusServiceUnavailable {
		h.Log.Warn(op, "err", err)
	}
	return c.JSON(status, ErrorResp{Message: rs.Reason(err), Kind: string(code)})
}

func statusFor(code rs.ErrCode) int {
	switch code {
	case rs.ErrInvalidInput:
		return http.StatusBadRequest
	case rs.ErrUnauthorized:
		return http.StatusUnauthorized
	case rs.ErrForbidden:
		return http.StatusForbidden
	case rs.ErrNotFound:
		return http.StatusNotFound
	case rs.ErrConflict, rs.ErrInvalidTransition:
		return http.StatusConflict
	case rs.ErrDependencyUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
