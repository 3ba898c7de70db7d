package handlers

import (
	"errors"
	"net/http"

	"essentia-system/internal/orders"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

func successResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func errorResponse(message string) APIResponse {
	return APIResponse{
		Success: false,
		Message: message,
	}
}

func successWithMetaResponse(message string, data interface{}, meta interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    meta,
	}
}

// orderErrorStatus maps engine failures onto HTTP statuses for the read and
// status-update paths. The create paths answer 400 for every business
// failure instead, matching the catch-all contract of order placement.
func orderErrorStatus(err error) int {
	switch {
	case errors.Is(err, orders.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, orders.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, orders.ErrInsufficientStock), errors.Is(err, orders.ErrValidation):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
