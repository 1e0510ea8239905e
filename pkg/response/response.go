package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ucu-innovators/hub/backend/pkg/logger"
)

// Response is the unified API envelope.
type Response struct {
	Success    bool         `json:"success"`
	Message    string       `json:"message,omitempty"`
	Data       interface{}  `json:"data,omitempty"`
	Pagination *Pagination  `json:"pagination,omitempty"`
	Errors     []FieldError `json:"errors,omitempty"`
}

// Pagination describes a page of a list result.
type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
}

// NewPagination computes pages = ceil(total/limit).
func NewPagination(total int64, page, limit int) *Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return &Pagination{Total: total, Page: page, Pages: pages}
}

// FieldError is a single input validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError represents a structured application error with HTTP status.
type AppError struct {
	HTTPStatus int          // HTTP status code (e.g. 400, 404, 500)
	Message    string       // Human-readable error message
	Errors     []FieldError // Field failures, validation errors only
}

func (e *AppError) Error() string {
	if e.Message == "" && len(e.Errors) > 0 {
		return e.Errors[0].Field + ": " + e.Errors[0].Message
	}
	return e.Message
}

// Pre-defined error constructors

func NewBadRequest(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Message: msg}
}

// NewValidation reports one or more field failures as a 400.
func NewValidation(errs ...FieldError) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Errors: errs}
}

func NewUnauthorized(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusUnauthorized, Message: msg}
}

func NewForbidden(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusForbidden, Message: msg}
}

func NewNotFound(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusNotFound, Message: msg}
}

func NewServerError(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusInternalServerError, Message: msg}
}

// --- Gin response helpers ---

// Success sends a 200 OK response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// Paginated sends a 200 OK list response with pagination metadata.
func Paginated(c *gin.Context, data interface{}, p *Pagination) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data, Pagination: p})
}

// Created sends a 201 Created response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// Message sends a 200 OK response carrying only a message.
func Message(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, Response{Success: true, Message: msg})
}

// Error sends an error response. If err is an *AppError, its status and
// message are used; otherwise the error is logged and a generic 500 is
// returned without exposing its text.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, Response{
			Success: false,
			Message: appErr.Message,
			Errors:  appErr.Errors,
		})
		return
	}

	logger.Request(c, logger.Error()).
		Err(err).
		Str("path", c.Request.URL.Path).
		Msg("unhandled error")
	ServerError(c, "Server Error")
}

// AbortWithError is Error followed by aborting the handler chain.
func AbortWithError(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// Convenience error response functions

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Message: msg})
}

func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, Response{Success: false, Message: msg})
}

func Forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, Response{Success: false, Message: msg})
}

func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, Response{Success: false, Message: msg})
}

func ServerError(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, Response{Success: false, Message: msg})
}
