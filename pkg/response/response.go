package response

import "github.com/gin-gonic/gin"

// ErrorBody is the body of every non-2xx response.
type ErrorBody struct {
	Message string `json:"message"`
}

func Error(message string) *ErrorBody {
	return &ErrorBody{Message: message}
}

// APIResponse is the success envelope. Use OKT to construct instances.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data,omitempty"`
}

// OKT returns a successful response with data.
func OKT[T any](data T) *APIResponse[T] {
	return &APIResponse[T]{Success: true, Data: data}
}

// Abort stops the handler chain with an error body.
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Error(message))
}
