package handlers

import (
	"github.com/gin-gonic/gin"
)

// Envelope is the body of every users endpoint response.
type Envelope struct {
	Success bool         `json:"success"`
	Data    interface{}  `json:"data,omitempty"`
	Message string       `json:"message,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

func RespondSuccess(ctx *gin.Context, status int, data interface{}) {
	ctx.JSON(status, Envelope{Success: true, Data: data})
}

// RespondFailure sends a fixed, human readable message. Never pass err.Error()
// of a store error here.
func RespondFailure(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, Envelope{Success: false, Message: message})
}

func RespondValidation(ctx *gin.Context, status int, fields []FieldError) {
	ctx.JSON(status, Envelope{Success: false, Message: msgInvalidBody, Errors: fields})
}
