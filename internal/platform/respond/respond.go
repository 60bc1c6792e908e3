// Copyright (c) 2026 Scriptorium. All rights reserved.

// Package respond provides HTTP response helpers used by all API handlers.
//
// # Architecture
//
// This package centralizes the presentation logic for HTTP responses.
// Every operation (success or error) returns the same envelope:
//
//	{succeed: bool, code?: string, data?: any, pagination?: {...}}
//
// This consistency is what lets the dashboard tables and forms branch on
// machine codes instead of parsing free-text messages.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/verseworks/scriptorium/internal/platform/apperr"
	"github.com/verseworks/scriptorium/internal/platform/ctxkey"
	"github.com/verseworks/scriptorium/pkg/pagination"
)

// Envelope is the uniform response contract of the API.
type Envelope struct {
	Succeed    bool                `json:"succeed"`
	Code       string              `json:"code,omitempty"`
	Data       interface{}         `json:"data"`
	Pagination *pagination.Meta    `json:"pagination,omitempty"`
	Details    []apperr.FieldError `json:"details,omitempty"`
}

// JSON writes a JSON response with the given status code.
func JSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// OK writes a 200 response with data wrapped in the standard success envelope.
func OK(writer http.ResponseWriter, data interface{}) {
	JSON(writer, http.StatusOK, Envelope{Succeed: true, Code: apperr.CodeSuccess, Data: data})
}

// Created writes a 201 response with data wrapped in the standard success envelope.
func Created(writer http.ResponseWriter, data interface{}) {
	JSON(writer, http.StatusCreated, Envelope{Succeed: true, Code: apperr.CodeSuccess, Data: data})
}

// Paginated writes a 200 response with list data and a pagination block.
func Paginated(writer http.ResponseWriter, data interface{}, meta pagination.Meta) {
	JSON(writer, http.StatusOK, Envelope{
		Succeed:    true,
		Code:       apperr.CodeSuccess,
		Data:       data,
		Pagination: &meta,
	})
}

// Null writes the canonical "not found" shape for read paths:
// succeed=true with data=null, not an error code. Read paths stay
// idempotent and cache-friendly this way.
func Null(writer http.ResponseWriter) {
	JSON(writer, http.StatusOK, Envelope{Succeed: true, Code: apperr.CodeSuccess, Data: nil})
}

// Partial writes a 200 response for bulk operations where some ids failed.
// The aggregate code names the dominant failure; per-id outcomes ride in data.
func Partial(writer http.ResponseWriter, code string, data interface{}) {
	JSON(writer, http.StatusOK, Envelope{Succeed: false, Code: code, Data: data})
}

// Error converts any Go error into a standardized JSON API error response.
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	var appError *apperr.AppError
	if !errors.As(err, &appError) {
		// Unexpected internal error: log full details but hide them from the client for security.
		logger := getLoggerFromContext(request)
		logger.ErrorContext(request.Context(), "unhandled_error_swallowed",
			slog.String("error", err.Error()),
			slog.String("request_id", getRequestIDFromContext(request)),
		)
		appError = apperr.Internal(err)
	}

	// Always log 5xx errors as they indicate server-side issues.
	if appError.HTTPStatus >= 500 {
		logger := getLoggerFromContext(request)
		logger.ErrorContext(request.Context(), "api_server_error",
			slog.String("code", appError.Code),
			slog.String("request_id", getRequestIDFromContext(request)),
			slog.Any("cause", appError.Cause),
		)
	}

	JSON(writer, appError.HTTPStatus, Envelope{
		Succeed: false,
		Code:    appError.Code,
		Details: appError.Details,
	})
}

// getLoggerFromContext extracts the per-request logger.
func getLoggerFromContext(request *http.Request) *slog.Logger {
	if logger, ok := request.Context().Value(ctxkey.KeyLogger).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// getRequestIDFromContext extracts the X-Request-ID for log correlation.
func getRequestIDFromContext(request *http.Request) string {
	if id, ok := request.Context().Value(ctxkey.KeyRequestID).(string); ok {
		return id
	}
	return ""
}
