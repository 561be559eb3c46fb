package controllers

import (
	"context"
	"net/http"
	"strings"

	"choice-app/analytics"
	"choice-app/apperror"
	"choice-app/finder"
	"choice-app/helpers"
	"choice-app/lookups"
	"choice-app/metrics"
	"choice-app/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// background job names
const (
	jobLinkUser    = "link-user-choice"
	jobAggregate   = "aggregate-ratings"
	jobCreatePost  = "create-post"
	jobTrackChoice = "track-choice"
	jobTrackLookup = "track-lookup"
)

// producers of an unknown location type are searched in this order
var unknownLocationOrder = []lookups.Kind{lookups.KindRestaurant, lookups.KindProducer, lookups.KindWellness}

type choiceRequest struct {
	UserID       string             `json:"userId" binding:"required"`
	LocationID   string             `json:"locationId" binding:"required"`
	LocationType string             `json:"locationType" binding:"required"`
	Ratings      map[string]float64 `json:"ratings"`
	Comment      string             `json:"comment"`
	MenuItems    []string           `json:"menuItems"`
	Emotions     []string           `json:"emotions"`
	CreatePost   bool               `json:"createPost"`
}

// CreateChoice stores a choice and hands the follow-up work to the background runner.
// The response does not wait for any of the jobs.
func (ctrl *Controller) CreateChoice(c *gin.Context) {
	var data choiceRequest

	// use 'shouldBind' so we can send customized messages
	if err := c.ShouldBindJSON(&data); err != nil {
		abortWithCode(c, http.StatusBadRequest, InvalidJSON)
		return
	}

	if !helpers.IsObjectID(data.UserID) || !helpers.IsObjectID(data.LocationID) {
		ctrl.abortWithError(c, apperror.ErrInvalidID)
		return
	}

	lt, err := lookups.ParseLocationType(strings.TrimSpace(data.LocationType))
	if err != nil {
		ctrl.abortWithError(c, err)
		return
	}

	choice := &models.Choice{
		UserID:       helpers.ObjectID(data.UserID),
		LocationID:   helpers.ObjectID(data.LocationID),
		LocationType: lt,
		Ratings:      data.Ratings,
		Comment:      data.Comment,
		MenuItems:    data.MenuItems,
		Emotions:     data.Emotions,
	}

	if err = ctrl.Choices.Create(c.Request.Context(), choice); err != nil {
		ctrl.abortWithError(c, err)
		return
	}
	metrics.ChoicesCreated.WithLabelValues(string(lt)).Inc()

	ctrl.submitChoiceJobs(choice, data.CreatePost)

	c.JSON(http.StatusCreated, ChoiceCreated{
		Message: "Choice created",
		Choice:  choice,
	})
}

// submitChoiceJobs queues the work derived from a stored choice. A job that
// cannot be queued is logged; the choice itself is already stored.
func (ctrl *Controller) submitChoiceJobs(choice *models.Choice, createPost bool) {
	snapshot := *choice
	log := ctrl.Log.With(zap.String("choiceId", choice.ID.Hex()))

	ctrl.submit(log, jobLinkUser, func(ctx context.Context) error {
		return ctrl.Users.LinkChoice(ctx, snapshot.UserID, snapshot.ID)
	})

	ctrl.submit(log, jobAggregate, func(ctx context.Context) error {
		res, err := ctrl.Aggregator.Apply(ctx, snapshot.LocationType, snapshot.LocationID.Hex(), snapshot.RatingsMap())
		if err != nil {
			return err
		}

		ctrl.submit(log, jobTrackChoice, func(ctx context.Context) error {
			return ctrl.Tracker.SaveChoice(ctx, analytics.ChoiceEvent{
				ChoiceID:     snapshot.ID.Hex(),
				UserID:       snapshot.UserID.Hex(),
				LocationID:   snapshot.LocationID.Hex(),
				LocationType: snapshot.LocationType,
				Aspects:      len(snapshot.Ratings),
				Applied:      res.Applied,
				HasComment:   snapshot.HasComment(),
			})
		})
		return nil
	})

	if createPost && snapshot.HasComment() {
		ctrl.submit(log, jobCreatePost, func(ctx context.Context) error {
			_, err := ctrl.Posts.CreateFromChoice(ctx, &snapshot)
			return err
		})
	}
}

func (ctrl *Controller) submit(log *zap.Logger, name string, job func(ctx context.Context) error) {
	if err := ctrl.Runner.Submit(name, job); err != nil {
		log.Warn("background job not queued", zap.String("job", name), zap.Error(err))
	}
}

// ListUserChoices returns a user's choices, newest first, each with a summary of its location
func (ctrl *Controller) ListUserChoices(c *gin.Context) {
	userID := c.Param("userId")
	if !helpers.IsObjectID(userID) {
		ctrl.abortWithError(c, apperror.ErrInvalidID)
		return
	}

	choices, err := ctrl.Choices.ListByUser(c.Request.Context(), userID)
	if err != nil {
		ctrl.abortWithError(c, err)
		return
	}

	// users often rate the same place several times
	seen := make(map[string]*models.ProducerSummary)

	items := make([]models.ChoiceListItem, 0, len(choices))
	for _, choice := range choices {
		key := string(choice.LocationType) + ":" + choice.LocationID.Hex()
		summary, ok := seen[key]
		if !ok {
			summary = ctrl.summarize(c.Request.Context(), choice.LocationType, choice.LocationID.Hex())
			seen[key] = summary
		}
		items = append(items, models.ChoiceListItem{Choice: choice, Location: summary})
	}

	c.JSON(http.StatusOK, items)
}

// summarize returns nil when the location cannot be found; the list is still served
func (ctrl *Controller) summarize(ctx context.Context, lt lookups.LocationType, id string) *models.ProducerSummary {
	kind, ok := lt.Kind()
	if !ok {
		return nil
	}

	m, err := ctrl.Resolver.Locate(ctx, kind, id)
	if err != nil {
		ctrl.Log.Debug("location summary unavailable", zap.String("locationId", id), zap.Error(err))
		return nil
	}
	if m == nil {
		return nil
	}
	return models.Summarize(m.Document)
}

type verifyRequest struct {
	UserID       string `json:"userId" binding:"required"`
	LocationID   string `json:"locationId" binding:"required"`
	LocationType string `json:"locationType"`
}

// VerifyVisit checks that a user could have visited a location. There is no
// visit history yet, so a known user at a known location is approved.
func (ctrl *Controller) VerifyVisit(c *gin.Context) {
	var data verifyRequest

	if err := c.ShouldBindJSON(&data); err != nil {
		abortWithCode(c, http.StatusBadRequest, InvalidJSON)
		return
	}

	if !helpers.IsObjectID(data.UserID) || !helpers.IsObjectID(data.LocationID) {
		ctrl.abortWithError(c, apperror.ErrInvalidID)
		return
	}

	if ctrl.Users == nil || ctrl.Resolver == nil {
		c.JSON(http.StatusOK, Verified{Verified: true, Message: "verification not configured, approved"})
		return
	}

	ctx := c.Request.Context()

	exists, err := ctrl.Users.Exists(ctx, helpers.ObjectID(data.UserID))
	if err != nil {
		ctrl.abortWithError(c, err)
		return
	}
	if !exists {
		c.JSON(http.StatusOK, Verified{Verified: false, Message: "unknown user"})
		return
	}

	lt := lookups.LocationType(strings.TrimSpace(data.LocationType))
	m, err := ctrl.locateLocation(ctx, lt, data.LocationID)
	if err != nil {
		ctrl.abortWithError(c, err)
		return
	}
	if m == nil {
		c.JSON(http.StatusOK, Verified{Verified: false, Message: "unknown location"})
		return
	}

	c.JSON(http.StatusOK, Verified{Verified: true, Message: "visit verified"})
}

func (ctrl *Controller) locateLocation(ctx context.Context, lt lookups.LocationType, id string) (*finder.Match, error) {
	if kind, ok := lt.Kind(); ok {
		return ctrl.Resolver.Locate(ctx, kind, id)
	}

	for _, kind := range unknownLocationOrder {
		m, err := ctrl.Resolver.Locate(ctx, kind, id)
		if err != nil || m != nil {
			return m, err
		}
	}
	return nil, nil
}
