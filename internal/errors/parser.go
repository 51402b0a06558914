package errors

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/cart-service/internal/app/service"
)

// ErrorInfo is a classified error ready for an HTTP response
type ErrorInfo struct {
	Status  int
	Code    string
	Message string
}

// ParseError classifies a service error into a status, code and message.
// Sensitive internals stay hidden; the message tells the caller what they
// can do about it.
func ParseError(err error) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Status:  http.StatusInternalServerError,
			Code:    InternalServerError,
			Message: "An internal error occurred",
		}
	}

	switch {
	case errors.Is(err, service.ErrInvalidQuantity):
		return ErrorInfo{
			Status:  http.StatusBadRequest,
			Code:    CartInvalidQuantity,
			Message: "Quantity must be between 1 and 100",
		}
	case errors.Is(err, service.ErrQuantityLimitExceeded):
		return ErrorInfo{
			Status:  http.StatusBadRequest,
			Code:    CartQuantityLimit,
			Message: "Requested quantity exceeds the per-item limit",
		}
	case errors.Is(err, service.ErrItemNotFound):
		return ErrorInfo{
			Status:  http.StatusNotFound,
			Code:    CartItemNotFound,
			Message: "Item is not in the cart",
		}
	case errors.Is(err, service.ErrProductNotFound):
		return ErrorInfo{
			Status:  http.StatusNotFound,
			Code:    CatalogProductNotFound,
			Message: "Product not found",
		}
	case errors.Is(err, service.ErrCatalogUnavailable):
		return ErrorInfo{
			Status:  http.StatusServiceUnavailable,
			Code:    CatalogUnavailable,
			Message: "Product catalog is temporarily unavailable. Please try again",
		}
	case errors.Is(err, service.ErrStorageUnavailable):
		return ErrorInfo{
			Status:  http.StatusServiceUnavailable,
			Code:    StorageUnavailable,
			Message: "Cart storage is temporarily unavailable. Please try again",
		}
	}

	// Network-level failures that escaped classification
	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "timeout") {
		return ErrorInfo{
			Status:  http.StatusServiceUnavailable,
			Code:    StorageUnavailable,
			Message: "A backing service is temporarily unavailable. Please try again",
		}
	}

	return ErrorInfo{
		Status:  http.StatusInternalServerError,
		Code:    InternalServerError,
		Message: "An internal error occurred. Please try again later",
	}
}

// Respond writes the classified error for err
func Respond(c *gin.Context, err error) {
	info := ParseError(err)
	RespondWithError(c, info.Status, info.Code, info.Message)
}
