package controllers

import (
	"context"
	"net/http"

	"choice-app/lookups"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FinderResponse is the resolved entity and its kind
type FinderResponse struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// FindEntity resolves an id to an event or a producer. ?type= restricts the search.
func (ctrl *Controller) FindEntity(c *gin.Context) {
	id := c.Param("id")

	hint, err := lookups.ParseHint(c.Query("type"))
	if err != nil {
		ctrl.abortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	key := "finder:" + string(hint) + ":" + id

	var res FinderResponse
	if ctrl.Cache != nil {
		hit, err := ctrl.Cache.GetJSON(ctx, key, &res)
		if err != nil {
			ctrl.Log.Debug("finder cache unavailable", zap.Error(err))
		}
		if hit {
			ctrl.trackLookup(c.ClientIP(), id, lookups.Kind(res.Type), true)
			c.JSON(http.StatusOK, res)
			return
		}
	}

	m, err := ctrl.Resolver.Resolve(ctx, id, hint)
	if err != nil {
		ctrl.abortWithError(c, err)
		return
	}
	if m == nil {
		ctrl.trackLookup(c.ClientIP(), id, hint, false)
		c.JSON(http.StatusNotFound, gin.H{"message": "Entity not found"})
		return
	}

	res = FinderResponse{Type: string(m.Kind), Data: m.Document}
	if ctrl.Cache != nil {
		if err := ctrl.Cache.SetJSON(ctx, key, res, ctrl.CacheTTL); err != nil {
			ctrl.Log.Debug("finder response not cached", zap.Error(err))
		}
	}

	ctrl.trackLookup(c.ClientIP(), id, m.Kind, true)
	c.JSON(http.StatusOK, res)
}

func (ctrl *Controller) trackLookup(clientIP string, id string, kind lookups.Kind, found bool) {
	if !ctrl.Tracker.Enabled() {
		return
	}
	ctrl.submit(ctrl.Log, jobTrackLookup, func(ctx context.Context) error {
		return ctrl.Tracker.SaveLookup(ctx, clientIP, id, kind, found)
	})
}
