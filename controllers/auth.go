package controllers

import (
	"net/http"
	"strings"

	"choice-app/apperror"
	"choice-app/authentication"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	EMail    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login checks the credentials and sends a new token pair as cookie
func (ctrl *Controller) Login(c *gin.Context) {
	var data loginRequest

	if err := c.ShouldBindJSON(&data); err != nil {
		abortWithCode(c, http.StatusBadRequest, InvalidJSON)
		return
	}

	// check for required fields
	data.EMail = strings.TrimSpace(data.EMail)
	data.Password = strings.TrimSpace(data.Password)
	if data.EMail == "" || data.Password == "" {
		abortWithCode(c, http.StatusUnauthorized, InvalidRequest)
		return
	}

	user, err := ctrl.Users.CheckCredentials(c.Request.Context(), data.EMail, data.Password)
	if err != nil {
		ctrl.abortWithError(c, err)
		return
	}

	// create, register & save pair of AT/RT
	td, err := ctrl.Sessions.CreateTokens(c, user.ID.Hex())
	if err != nil {
		ctrl.abortWithError(c, err)
		return
	}

	// password is never sent back
	user.Password = ""

	c.JSON(http.StatusOK, gin.H{
		"user":        user,
		"accessToken": td.AccessToken,
	})
}

// Refresh exchanges the refresh token of the cookie for a new pair.
// The access token is not checked here, it is usually expired.
func (ctrl *Controller) Refresh(c *gin.Context) {
	userID, err := ctrl.Sessions.Refresh(c)
	if err != nil {
		ctrl.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"userId": userID})
}

// Logout always succeeds so the client can drop its session
func (ctrl *Controller) Logout(c *gin.Context) {
	ctrl.Sessions.Logout(c)
	c.Status(http.StatusOK)
}

// Me returns the profile of the logged in user
func (ctrl *Controller) Me(c *gin.Context) {
	userID := c.GetString(authentication.ContextUserID)
	if userID == "" {
		ctrl.abortWithError(c, apperror.ErrUnauthorized)
		return
	}

	user, err := ctrl.Users.GetUser(c.Request.Context(), userID)
	if err != nil {
		ctrl.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
