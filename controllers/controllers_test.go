package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"choice-app/apperror"
	"choice-app/authentication"
	"choice-app/background"
	"choice-app/client"
	"choice-app/config"
	"choice-app/database"
	"choice-app/database/databasetest"
	"choice-app/finder"
	"choice-app/lookups"
	"choice-app/models"
	"choice-app/ratings"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// syncRunner runs every job before Submit returns
type syncRunner struct {
	mu   sync.Mutex
	jobs []string
	errs map[string]error
}

func (r *syncRunner) Submit(name string, job background.Job) error {
	err := job(context.Background())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, name)
	if r.errs == nil {
		r.errs = map[string]error{}
	}
	r.errs[name] = err
	return nil
}

type fakeChoices struct {
	stored []models.Choice
	err    error
}

func (f *fakeChoices) Create(_ context.Context, choice *models.Choice) error {
	if err := choice.Validate(); err != nil {
		return err
	}
	if f.err != nil {
		return f.err
	}
	choice.ID = primitive.NewObjectID()
	choice.CreatedAt = time.Now().UTC()
	f.stored = append(f.stored, *choice)
	return nil
}

func (f *fakeChoices) ListByUser(_ context.Context, userID string) ([]models.Choice, error) {
	out := []models.Choice{}
	for _, c := range f.stored {
		if c.UserID.Hex() == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type fakePosts struct {
	created []primitive.ObjectID
}

func (f *fakePosts) CreateFromChoice(_ context.Context, choice *models.Choice) (string, error) {
	f.created = append(f.created, choice.ID)
	return primitive.NewObjectID().Hex(), nil
}

type fakeUsers struct {
	users  map[primitive.ObjectID]*models.User
	linked map[primitive.ObjectID][]primitive.ObjectID
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{
		users:  map[primitive.ObjectID]*models.User{},
		linked: map[primitive.ObjectID][]primitive.ObjectID{},
	}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetUser(_ context.Context, userID string) (*models.User, error) {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, apperror.ErrInvalidID
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.ErrNoData
	}
	cp := *u
	cp.Password = ""
	return &cp, nil
}

func (f *fakeUsers) Exists(_ context.Context, userID primitive.ObjectID) (bool, error) {
	_, ok := f.users[userID]
	return ok, nil
}

func (f *fakeUsers) CheckCredentials(_ context.Context, email string, password string) (*models.User, error) {
	for _, u := range f.users {
		if u.EMail == email && u.Password == password {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.ErrInvalidLogin
}

func (f *fakeUsers) LinkChoice(_ context.Context, userID primitive.ObjectID, choiceID primitive.ObjectID) error {
	if _, ok := f.users[userID]; !ok {
		return apperror.ErrNoData
	}
	f.linked[userID] = append(f.linked[userID], choiceID)
	return nil
}

type memCache struct {
	data map[string][]byte
}

func (m *memCache) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	b, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (m *memCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = b
	return nil
}

type fakeSessions struct {
	refreshErr error
	loggedOut  bool
}

func (f *fakeSessions) CreateTokens(_ *gin.Context, userID string) (*authentication.TokenDetails, error) {
	return &authentication.TokenDetails{AccessToken: "at-" + userID}, nil
}

func (f *fakeSessions) Refresh(_ *gin.Context) (string, error) {
	if f.refreshErr != nil {
		return "", f.refreshErr
	}
	return "user", nil
}

func (f *fakeSessions) Logout(_ *gin.Context) {
	f.loggedOut = true
}

type fixture struct {
	ctrl     *Controller
	router   *gin.Engine
	store    *databasetest.MemStore
	catalog  database.Catalog
	choices  *fakeChoices
	posts    *fakePosts
	users    *fakeUsers
	runner   *syncRunner
	cache    *memCache
	sessions *fakeSessions
	user     *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cat := database.NewCatalog(&config.Config{
		DBLeisure:     "Loisir&Culture",
		DBRestaurants: "Restauration_Officielle",
		DBWellness:    "Beauty_Wellness",
	})
	store := databasetest.New()
	resolver := finder.New(store, cat, time.Second, zap.NewNop())

	user := &models.User{ID: primitive.NewObjectID(), Name: "Léa", EMail: "lea@example.com", Password: "secret"}

	f := &fixture{
		store:    store,
		catalog:  cat,
		choices:  &fakeChoices{},
		posts:    &fakePosts{},
		users:    newFakeUsers(user),
		runner:   &syncRunner{},
		cache:    &memCache{data: map[string][]byte{}},
		sessions: &fakeSessions{},
		user:     user,
	}

	f.ctrl = New(Deps{
		Choices:    f.choices,
		Posts:      f.posts,
		Users:      f.users,
		Resolver:   resolver,
		Aggregator: ratings.NewAggregator(resolver, store, ratings.DefaultWeight, false, zap.NewNop()),
		Runner:     f.runner,
		Sessions:   f.sessions,
		Cache:      f.cache,
		CacheTTL:   time.Minute,
		Requests:   client.NewRegistry(time.Minute, 10),
	})

	r := gin.New()
	r.POST("/choices", f.ctrl.CreateChoice)
	r.POST("/choices/verify", f.ctrl.VerifyVisit)
	r.GET("/choices/user/:userId", f.ctrl.ListUserChoices)
	r.GET("/finder/:id", f.ctrl.FindEntity)
	r.POST("/auth/login", f.ctrl.Login)
	r.POST("/auth/refresh", f.ctrl.Refresh)
	r.POST("/auth/logout", f.ctrl.Logout)
	r.GET("/auth/me", func(c *gin.Context) {
		if id := c.GetHeader("X-User"); id != "" {
			c.Set(authentication.ContextUserID, id)
		}
		f.ctrl.Me(c)
	})
	r.GET("/health", f.ctrl.Health)
	r.GET("/monitor/requests/count", f.ctrl.CountRequests)
	f.router = r

	return f
}

func (f *fixture) do(t *testing.T, method string, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) restaurant(doc bson.M) primitive.ObjectID {
	id := primitive.NewObjectID()
	doc["_id"] = id
	f.store.Insert(f.catalog[lookups.KindRestaurant][0], doc)
	return id
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestCreateChoice_RunsBackgroundJobs(t *testing.T) {
	f := newFixture(t)
	locID := f.restaurant(bson.M{"name": "Chez Marcel"})

	w := f.do(t, http.MethodPost, "/choices", gin.H{
		"userId":       f.user.ID.Hex(),
		"locationId":   locID.Hex(),
		"locationType": "restaurant",
		"ratings":      gin.H{"service": 8},
		"comment":      "great",
		"createPost":   true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res struct {
		Message string        `json:"message"`
		Choice  models.Choice `json:"choice"`
	}
	decode(t, w, &res)
	assert.Equal(t, "Choice created", res.Message)
	assert.False(t, res.Choice.ID.IsZero())
	assert.Equal(t, lookups.LTrestaurant, res.Choice.LocationType)

	assert.ElementsMatch(t, []string{jobLinkUser, jobAggregate, jobTrackChoice, jobCreatePost}, f.runner.jobs)
	for name, err := range f.runner.errs {
		assert.NoError(t, err, name)
	}

	doc := f.store.Get(f.catalog[lookups.KindRestaurant][0], locID)
	require.NotNil(t, doc)
	assert.Equal(t, map[string]interface{}{"service": 5.3}, doc["ratings"])
	assert.Equal(t, int64(1), doc["ratingsCount"])

	assert.Equal(t, []primitive.ObjectID{res.Choice.ID}, f.users.linked[f.user.ID])
	assert.Equal(t, []primitive.ObjectID{res.Choice.ID}, f.posts.created)
}

func TestCreateChoice_NoPostWithoutComment(t *testing.T) {
	f := newFixture(t)
	locID := f.restaurant(bson.M{"name": "Chez Marcel"})

	w := f.do(t, http.MethodPost, "/choices", gin.H{
		"userId":       f.user.ID.Hex(),
		"locationId":   locID.Hex(),
		"locationType": "restaurant",
		"comment":      "   ",
		"createPost":   true,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	assert.NotContains(t, f.runner.jobs, jobCreatePost)
	assert.Empty(t, f.posts.created)
}

func TestCreateChoice_MissingProducerStillCreated(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/choices", gin.H{
		"userId":       f.user.ID.Hex(),
		"locationId":   primitive.NewObjectID().Hex(),
		"locationType": "wellness",
		"ratings":      gin.H{"ambiance": 9},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 0, f.store.Updates)
	assert.NoError(t, f.runner.errs[jobAggregate])
}

func TestCreateChoice_BadRequests(t *testing.T) {
	f := newFixture(t)
	valid := primitive.NewObjectID().Hex()

	tests := []struct {
		name string
		body interface{}
		code int32
	}{
		{"missing user", gin.H{"locationId": valid, "locationType": "restaurant"}, InvalidJSON},
		{"malformed user id", gin.H{"userId": "abc", "locationId": valid, "locationType": "restaurant"}, InvalidID},
		{"malformed location id", gin.H{"userId": valid, "locationId": "123", "locationType": "restaurant"}, InvalidID},
		{"unknown location type", gin.H{"userId": valid, "locationId": valid, "locationType": "museum"}, UnknownLocationType},
		{"rating out of range", gin.H{"userId": valid, "locationId": valid, "locationType": "event", "ratings": gin.H{"x": 11}}, InvalidRating},
		{"rating not a number", gin.H{"userId": valid, "locationId": valid, "locationType": "event", "ratings": gin.H{"x": "good"}}, InvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/choices", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var res ErrorResponse
			decode(t, w, &res)
			assert.Equal(t, tt.code, res.Code)
		})
	}

	assert.Empty(t, f.choices.stored)
	assert.Empty(t, f.runner.jobs)
}

func TestCreateChoice_InsertFailure(t *testing.T) {
	f := newFixture(t)
	f.choices.err = errors.New("connection reset")

	w := f.do(t, http.MethodPost, "/choices", gin.H{
		"userId":       f.user.ID.Hex(),
		"locationId":   primitive.NewObjectID().Hex(),
		"locationType": "event",
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, f.runner.jobs)
}

func TestListUserChoices(t *testing.T) {
	f := newFixture(t)
	locID := f.restaurant(bson.M{"name": "Chez Marcel", "adresse": "1 rue de Paris", "category": bson.A{"bistrot"}})
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	f.choices.stored = []models.Choice{
		{ID: primitive.NewObjectID(), UserID: f.user.ID, LocationID: locID, LocationType: lookups.LTrestaurant, CreatedAt: older},
		{ID: primitive.NewObjectID(), UserID: f.user.ID, LocationID: primitive.NewObjectID(), LocationType: lookups.LTunknown, CreatedAt: older.Add(time.Hour)},
	}

	w := f.do(t, http.MethodGet, "/choices/user/"+f.user.ID.Hex(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var items []models.ChoiceListItem
	decode(t, w, &items)
	require.Len(t, items, 2)

	assert.Equal(t, lookups.LTunknown, items[0].LocationType)
	assert.Nil(t, items[0].Location)

	require.NotNil(t, items[1].Location)
	assert.Equal(t, "Chez Marcel", items[1].Location.Name)
	assert.Equal(t, "1 rue de Paris", items[1].Location.Address)
	assert.Equal(t, []string{"bistrot"}, items[1].Location.Category)
}

func TestListUserChoices_InvalidID(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/choices/user/nope", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFindEntity(t *testing.T) {
	f := newFixture(t)
	id := primitive.NewObjectID()
	f.store.Insert(f.catalog[lookups.KindEvent][0], bson.M{"_id": id, "intitulé": "Concert"})

	w := f.do(t, http.MethodGet, "/finder/"+id.Hex(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		Type string                 `json:"type"`
		Data map[string]interface{} `json:"data"`
	}
	decode(t, w, &res)
	assert.Equal(t, "event", res.Type)
	assert.Equal(t, "Concert", res.Data["intitulé"])
	assert.Equal(t, id.Hex(), res.Data["_id"])

	// second request is served from the cache
	finds := len(f.store.Finds)
	w = f.do(t, http.MethodGet, "/finder/"+id.Hex(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, f.store.Finds, finds)
}

func TestFindEntity_NotFound(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/finder/"+primitive.NewObjectID().Hex()+"?type=producer", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	var res map[string]string
	decode(t, w, &res)
	assert.Equal(t, "Entity not found", res["message"])
}

func TestFindEntity_InvalidType(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/finder/abc?type=restaurant", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var res ErrorResponse
	decode(t, w, &res)
	assert.Equal(t, UnknownEntityType, res.Code)
}

func TestVerifyVisit(t *testing.T) {
	f := newFixture(t)
	locID := f.restaurant(bson.M{"name": "Chez Marcel"})

	tests := []struct {
		name     string
		userID   string
		locID    string
		lt       string
		verified bool
	}{
		{"known user and location", f.user.ID.Hex(), locID.Hex(), "restaurant", true},
		{"location of unknown type", f.user.ID.Hex(), locID.Hex(), "", true},
		{"unknown user", primitive.NewObjectID().Hex(), locID.Hex(), "restaurant", false},
		{"unknown location", f.user.ID.Hex(), primitive.NewObjectID().Hex(), "restaurant", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/choices/verify", gin.H{
				"userId": tt.userID, "locationId": tt.locID, "locationType": tt.lt,
			})
			require.Equal(t, http.StatusOK, w.Code)

			var res Verified
			decode(t, w, &res)
			assert.Equal(t, tt.verified, res.Verified)
			assert.NotEmpty(t, res.Message)
		})
	}
}

func TestVerifyVisit_NotConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctrl := New(Deps{})
	r := gin.New()
	r.POST("/choices/verify", ctrl.VerifyVisit)

	body := `{"userId":"` + primitive.NewObjectID().Hex() + `","locationId":"` + primitive.NewObjectID().Hex() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/choices/verify", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var res Verified
	decode(t, w, &res)
	assert.True(t, res.Verified)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/auth/login", gin.H{"email": "lea@example.com", "password": "secret"})
	require.Equal(t, http.StatusOK, w.Code)

	var res map[string]interface{}
	decode(t, w, &res)
	assert.Equal(t, "at-"+f.user.ID.Hex(), res["accessToken"])
	assert.NotContains(t, w.Body.String(), "secret")

	w = f.do(t, http.MethodPost, "/auth/login", gin.H{"email": "lea@example.com", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	var apiErr ErrorResponse
	decode(t, w, &apiErr)
	assert.Equal(t, InvalidLogin, apiErr.Code)
}

func TestRefreshAndLogout(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/auth/refresh", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	f.sessions.refreshErr = authentication.ErrUnauthorized
	w = f.do(t, http.MethodPost, "/auth/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodPost, "/auth/logout", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, f.sessions.loggedOut)
}

func TestMe(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("X-User", f.user.ID.Hex())
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var u models.User
	decode(t, w, &u)
	assert.Equal(t, "Léa", u.Name)

	w = f.do(t, http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	f.ctrl.Ping = func(context.Context) error { return errors.New("no primary") }
	w = f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCountRequests(t *testing.T) {
	f := newFixture(t)
	f.ctrl.Requests.Continue("1.2.3.4", "x")

	w := f.do(t, http.MethodGet, "/monitor/requests/count", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Body.String())
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   int32
	}{
		{apperror.ErrInvalidID, http.StatusBadRequest, InvalidID},
		{apperror.ErrUnknownLocationType, http.StatusBadRequest, UnknownLocationType},
		{models.ErrInvalidRating, http.StatusBadRequest, InvalidRating},
		{apperror.ErrNoData, http.StatusNotFound, NotFound},
		{apperror.ErrInvalidLogin, http.StatusUnauthorized, InvalidLogin},
		{authentication.ErrNotLoggedIn, http.StatusUnauthorized, Unauthorized},
		{errors.New("boom"), http.StatusInternalServerError, SystemError},
	}

	for _, tt := range tests {
		status, apiErr := HandleError(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.code, apiErr.Code, tt.err.Error())
		assert.NotEmpty(t, apiErr.Message)
	}
}
