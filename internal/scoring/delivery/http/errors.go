package http

import (
	"errors"
	"net/http"

	"golang-headline-signal/internal/entity"
	"golang-headline-signal/internal/scoring/dto"
	"golang-headline-signal/internal/scoring/service"

	"github.com/labstack/echo/v4"
)

// errorDetail maps a service error to its HTTP status and public detail.
func errorDetail(err error) dto.ErrorDetail {
	var (
		verr *entity.ValidationError
		cerr *entity.ClassificationError
		herr *echo.HTTPError
	)
	switch {
	case errors.As(err, &verr):
		return dto.ErrorDetail{Code: http.StatusBadRequest, Message: verr.Error(), Reason: "validation"}
	case errors.As(err, &cerr):
		code := http.StatusBadGateway
		switch cerr.Reason {
		case entity.ReasonTimeout:
			code = http.StatusGatewayTimeout
		case entity.ReasonMalformedInput:
			code = http.StatusBadRequest
		}
		return dto.ErrorDetail{Code: code, Message: "sentiment classification failed", Reason: string(cerr.Reason)}
	case errors.Is(err, service.ErrNotFound):
		return dto.ErrorDetail{Code: http.StatusNotFound, Message: "resource not found"}
	case errors.As(err, &herr):
		msg := http.StatusText(herr.Code)
		if s, ok := herr.Message.(string); ok {
			msg = s
		}
		return dto.ErrorDetail{Code: herr.Code, Message: msg}
	default:
		return dto.ErrorDetail{Code: http.StatusInternalServerError, Message: "internal server error"}
	}
}

func respondError(c echo.Context, err error) error {
	detail := errorDetail(err)
	return c.JSON(detail.Code, dto.ErrorResponse{Status: dto.StatusError, Error: detail})
}

func invalidPayload(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, dto.Error(http.StatusBadRequest, "Invalid request payload", "validation"))
}
