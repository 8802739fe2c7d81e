package dashboard

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sharavanan171081/AI-Stock-App/internal/marketdata/csvio"
)

// Download file names served by /api/downloads/:file.
const (
	PricesFile  = "stock_data.csv"
	LatestFile  = "latest_predictions.csv"
	HistoryFile = "predictions_history.csv"
)

type downloadQuery struct {
	File string `param:"file" validate:"required,oneof=stock_data.csv latest_predictions.csv predictions_history.csv"`
}

// Download streams one of the CSV exports as an attachment.
func (h *Handler) Download(c echo.Context) error {
	var q downloadQuery
	if bad := bindAndValidate(c, &q); bad != nil {
		return notFoundResponse(c, bad)
	}
	ctx := c.Request().Context()

	var buf bytes.Buffer
	switch q.File {
	case PricesFile:
		all, err := h.loadPrices(ctx)
		if err != nil {
			return internalErrorResponse(c, err)
		}
		if err := csvio.WritePrices(&buf, all); err != nil {
			return internalErrorResponse(c, err)
		}
	case LatestFile:
		recs, err := h.loadLatest(ctx)
		if err != nil {
			return internalErrorResponse(c, err)
		}
		if err := csvio.WritePredictions(&buf, recs, false); err != nil {
			return internalErrorResponse(c, err)
		}
	case HistoryFile:
		recs, err := h.loadHistory(ctx)
		if err != nil {
			return internalErrorResponse(c, err)
		}
		if err := csvio.WritePredictions(&buf, recs, true); err != nil {
			return internalErrorResponse(c, err)
		}
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+q.File+`"`)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
