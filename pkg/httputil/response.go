package httputil

import (
	"encoding/json"
	"net/http"
)

// Envelope is the uniform response body shape. Every endpoint responds
// with this structure, success and failure alike.
type Envelope struct {
	Code    int         `json:"code"`
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Pagination describes a page of a larger result set
type Pagination struct {
	Page    int  `json:"page"`
	Pages   int  `json:"pages"`
	PerPage int  `json:"per_page"`
	Total   int  `json:"total"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

// NewPagination computes page metadata from a total row count
func NewPagination(page, perPage, total int) Pagination {
	pages := 0
	if perPage > 0 {
		pages = (total + perPage - 1) / perPage
	}
	return Pagination{
		Page:    page,
		Pages:   pages,
		PerPage: perPage,
		Total:   total,
		HasNext: page < pages,
		HasPrev: page > 1 && total > 0,
	}
}

// WriteEnvelope writes an envelope with the given status code
func WriteEnvelope(w http.ResponseWriter, code int, success bool, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(Envelope{
		Code:    code,
		Success: success,
		Message: message,
		Data:    data,
	})
}

// WriteSuccess writes a 200 success envelope
func WriteSuccess(w http.ResponseWriter, message string, data interface{}) {
	WriteEnvelope(w, http.StatusOK, true, message, data)
}

// WriteError writes a failure envelope with the given status code
func WriteError(w http.ResponseWriter, code int, message string) {
	WriteEnvelope(w, code, false, message, nil)
}

// WriteBadRequest writes a 400 failure envelope
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

// WriteUnauthorized writes a 401 failure envelope
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message)
}

// WriteForbidden writes a 403 failure envelope
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message)
}

// WriteNotFound writes a 404 failure envelope
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

// WriteInternalError writes a generic 500 failure envelope. The underlying
// error is never included in the response; callers log it server-side.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message)
}
