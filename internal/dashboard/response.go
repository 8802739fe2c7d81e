package dashboard

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// APIResponse is the envelope for every JSON endpoint.
type APIResponse struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// dataResponse writes data with the given status code.
func dataResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(statusCode, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

func successResponse(c echo.Context, data interface{}) error {
	return dataResponse(c, http.StatusOK, data)
}

func badRequestResponse(c echo.Context, data interface{}) error {
	return dataResponse(c, http.StatusBadRequest, data)
}

func notFoundResponse(c echo.Context, data interface{}) error {
	return dataResponse(c, http.StatusNotFound, data)
}

func unprocessableResponse(c echo.Context, data interface{}) error {
	return dataResponse(c, http.StatusUnprocessableEntity, data)
}

func internalErrorResponse(c echo.Context, err error) error {
	c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	return dataResponse(c, http.StatusInternalServerError, "Something went wrong")
}

var validate = validator.New()

// FieldError describes one rejected request parameter.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// bindAndValidate binds path and query parameters into req and validates it.
// On failure the returned value is the response payload.
func bindAndValidate(c echo.Context, req interface{}) interface{} {
	if err := c.Bind(req); err != nil {
		return err.Error()
	}
	if err := validate.Struct(req); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err.Error()
		}
		out := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, FieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
		}
		return out
	}
	return nil
}
