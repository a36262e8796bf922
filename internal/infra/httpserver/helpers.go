package httpserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/trace"
)

type ErrorResponse struct {
	Message string `json:"message,omitempty"`
}

func ReplyWithError(w http.ResponseWriter, statusCode int, errMsg string) {
	errResponse := &ErrorResponse{
		Message: errMsg,
	}
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(errResponse)
}

func ReplyJSONResponse(w http.ResponseWriter, statusCode int, output any) {
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(output)
}

func DecodeJSONBody(r *http.Request, placeholder any) error {
	reqBody, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("reading request body: %w", err)
	}

	if err := json.Unmarshal(reqBody, placeholder); err != nil {
		return fmt.Errorf("marshaling json: %w", err)
	}

	return nil
}

func GetPathParam(r *http.Request, name string) string {
	return r.PathValue(name)
}

func GetQueryParam(r *http.Request, name string) string {
	val := r.URL.Query().Get(name)
	return val
}

// GetSpanFromContext returns the request's active span. A no-op span is
// returned when the tracing middleware is not installed.
func GetSpanFromContext(r *http.Request) trace.Span {
	return trace.SpanFromContext(r.Context())
}

type PaginationParams struct {
	Page  int
	Limit int
}

func DefaultPaginationParams() PaginationParams {
	return PaginationParams{Page: 1, Limit: 10}
}

// ExtractPaginationParams reads page and limit from the query string, falling
// back to the defaults on anything invalid or out of range.
func ExtractPaginationParams(r *http.Request) PaginationParams {
	params := DefaultPaginationParams()

	if page, err := strconv.Atoi(GetQueryParam(r, "page")); err == nil && page > 0 {
		params.Page = page
	}
	if limit, err := strconv.Atoi(GetQueryParam(r, "limit")); err == nil && limit > 0 && limit <= 100 {
		params.Limit = limit
	}

	return params
}

type PaginatedResponse struct {
	Data       any `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

func ReplyWithPaginatedData(w http.ResponseWriter, statusCode int, data any, total int, params PaginationParams) {
	totalPages := total / params.Limit
	if total%params.Limit > 0 {
		totalPages++
	}

	ReplyJSONResponse(w, statusCode, PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: totalPages,
	})
}
