package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CountRequests returns the number of tracked client requests
func (ctrl *Controller) CountRequests(c *gin.Context) {
	c.JSON(http.StatusOK, ctrl.Requests.Count())
}

// DumpRequests lists the tracked client requests
func (ctrl *Controller) DumpRequests(c *gin.Context) {
	c.JSON(http.StatusOK, ctrl.Requests.Dump(50))
}

// FlushRequests drops expired entries
func (ctrl *Controller) FlushRequests(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"flushed": ctrl.Requests.Flush()})
}
