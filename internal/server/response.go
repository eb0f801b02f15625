package server

import "github.com/gin-gonic/gin"

// Every response uses the same envelope so clients can branch on `success`
// before inspecting the payload.
type successEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

type errorEnvelope struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Error   errorBody `json:"error"`
}

func respondOK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, successEnvelope{Success: true, Message: message, Data: data})
}

func respondError(c *gin.Context, status int, message, code string, details any) {
	c.AbortWithStatusJSON(status, errorEnvelope{
		Success: false,
		Message: message,
		Error:   errorBody{Code: code, Details: details},
	})
}
