package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Created is the standard response for new items
type Created struct {
	ID string `json:"id"`
}

// ChoiceCreated is returned by POST /choices
type ChoiceCreated struct {
	Message string      `json:"message"`
	Choice  interface{} `json:"choice"`
}

// Verified is returned by POST /choices/verify
type Verified struct {
	Verified bool   `json:"verified"`
	Message  string `json:"message"`
}

// abortWithError maps err to the std response; only server problems are logged
func (ctrl *Controller) abortWithError(c *gin.Context, err error) {
	status, apiError := HandleError(err)
	if status >= 500 {
		ctrl.Log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(status, apiError)
}

// abortWithCode sends a std response for a known error code
func abortWithCode(c *gin.Context, status int, code int32) {
	apiError := ErrorResponse{Code: code}
	apiError.Message = apiError.String(code)
	c.AbortWithStatusJSON(status, apiError)
}
