package report

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc      *Service
	renderer *Renderer
}

func NewHandler(svc *Service, renderer *Renderer) *Handler {
	return &Handler{svc: svc, renderer: renderer}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/reports/appointments-encounters", h.AppointmentsEncounters)
}

// AppointmentsEncounters runs the reconciliation report for the requested
// date range.
//
// Query parameters: from (YYYY-MM-DD, default today), to (optional, empty
// means single-day), facility_id (optional UUID), details (true/1 for
// per-visit rows), format (html default, or json).
func (h *Handler) AppointmentsEncounters(c echo.Context) error {
	// No criteria at all means the report form has not been submitted yet;
	// show the prompt rather than an empty single-day run.
	if len(c.QueryParams()) == 0 {
		c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
		c.Response().WriteHeader(http.StatusOK)
		return h.renderer.RenderPlaceholder(c.Response())
	}

	params, err := paramsFromRequest(c)
	if err != nil {
		return err
	}

	rep, err := h.svc.Run(c.Request().Context(), params)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if c.QueryParam("format") == "json" {
		return c.JSON(http.StatusOK, rep)
	}

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return h.renderer.Render(c.Response(), rep)
}

func paramsFromRequest(c echo.Context) (Params, error) {
	today := time.Now().Truncate(24 * time.Hour)

	params := Params{
		From:    ParseDateOr(c.QueryParam("from"), today),
		Details: boolParam(c.QueryParam("details")),
	}

	if toStr := c.QueryParam("to"); toStr != "" {
		to := ParseDateOr(toStr, today)
		params.To = &to
	}

	if fac := c.QueryParam("facility_id"); fac != "" {
		id, err := uuid.Parse(fac)
		if err != nil {
			return Params{}, echo.NewHTTPError(http.StatusBadRequest, "invalid facility_id")
		}
		params.FacilityID = &id
	}

	return params, nil
}

func boolParam(s string) bool {
	return s == "1" || s == "true" || s == "yes"
}
