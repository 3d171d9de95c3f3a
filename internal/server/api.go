package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error is an HTTP error returned by a handler.
type Error struct {
	Code    int
	Message string
}

// HandlerFunc returns either a JSON-serialisable result or an Error.
type HandlerFunc func(ctx *gin.Context) (any, *Error)

// ResolveEndpoint adapts h to gin, writing the result as JSON with 200 or
// the error as {"error": message} with its code.
func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, apiErr := h(ctx)
		if apiErr != nil {
			ctx.JSON(apiErr.Code, gin.H{"error": apiErr.Message})
			return
		}

		ctx.JSON(http.StatusOK, result)
	}
}

func badRequest(msg string) *Error {
	return &Error{Code: http.StatusBadRequest, Message: msg}
}
