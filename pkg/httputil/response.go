package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/pharmacy-api/pkg/errors"
)

// exposeDetails controls whether the underlying error text is sent to clients.
var exposeDetails bool

// ExposeErrorDetails enables the `error` field on failed responses. It is
// switched on outside production.
func ExposeErrorDetails(enabled bool) {
	exposeDetails = enabled
}

// Response wraps all API responses
type Response struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Pagination represents pagination metadata
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes the page count for total records split by limit.
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

// RespondWithSuccess sends a 200 response carrying data
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// RespondWithMessage sends a 200 response with a message and optional data
func RespondWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message, Data: data})
}

// RespondCreated sends a 201 response
func RespondCreated(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Message: message, Data: data})
}

// RespondWithPagination sends a paginated list response
func RespondWithPagination(c *gin.Context, data interface{}, p Pagination) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data, Pagination: &p})
}

// RespondWithFailure sends an error envelope with an explicit status.
func RespondWithFailure(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Response{Success: false, Message: message})
}

// RespondWithError maps err to a status and sends the error envelope. The
// error is attached to the gin context so the error middleware logs it.
func RespondWithError(c *gin.Context, err error) {
	_ = c.Error(err)

	appErr, ok := errors.As(errors.FromDB(err))
	if !ok {
		appErr = errors.Internal(err)
	}

	resp := Response{Success: false, Message: appErr.Message}
	if exposeDetails && appErr.Err != nil {
		resp.Error = appErr.Err.Error()
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus(), resp)
}
