package authentication

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"choice-app/helpers"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/twinj/uuid"
)

// token types
const (
	AT = "access_token"
	RT = "refresh_token"
)

// ContextUserID is the gin context key of the authenticated user
const ContextUserID = "userID"

// when a user holds this many refresh tokens, all of them are revoked on refresh
const maxRefreshTokens = 5

// custom error types
var (
	ErrUnauthorized = errors.New("unauthorized") // invalid token/cookie
	ErrNotLoggedIn  = errors.New("requires authorization")
)

// TokenDetails holds both tokens of a pair and their metadata
type TokenDetails struct {
	AccessToken  string
	RefreshToken string
	AccessUUID   string
	RefreshUUID  string
	AtExpires    int64
	RtExpires    int64
}

// AccessDetails is the token metadata looked up in the registry
type AccessDetails struct {
	TokenUUID string
	UserID    string
}

// Manager issues, verifies and revokes token pairs
type Manager struct {
	registry      TokenRegistry
	jar           *helpers.CookieJar
	accessSecret  []byte
	refreshSecret []byte

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	now        func() time.Time
}

// NewManager creates a manager; the token pair travels in the jar's cookie
func NewManager(registry TokenRegistry, jar *helpers.CookieJar, accessSecret string, refreshSecret string) *Manager {
	return &Manager{
		registry:      registry,
		jar:           jar,
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		now:           time.Now,
	}
}

// CreateTokens creates a token pair, registers it and sends it as a cookie
func (m *Manager) CreateTokens(c *gin.Context, userID string) (*TokenDetails, error) {
	td, err := m.CreateToken(userID)
	if err != nil {
		return nil, err
	}

	if err = m.CreateAuth(c.Request.Context(), userID, td); err != nil {
		return nil, err
	}

	tokens := map[string]string{
		AT: td.AccessToken,
		RT: td.RefreshToken,
	}
	if err = m.jar.Set(c, tokens); err != nil {
		return nil, err
	}

	return td, nil
}

// CreateToken signs a new pair of AT & RT
func (m *Manager) CreateToken(userID string) (*TokenDetails, error) {
	var err error
	now := m.now()

	td := &TokenDetails{
		AtExpires:   now.Add(m.AccessTTL).Unix(),
		AccessUUID:  "at_" + uuid.NewV4().String(),
		RtExpires:   now.Add(m.RefreshTTL).Unix(),
		RefreshUUID: "rt_" + uuid.NewV4().String(),
	}

	atClaims := jwt.MapClaims{
		"authorized":  true,
		"access_uuid": td.AccessUUID,
		"user_id":     userID,
		"exp":         td.AtExpires,
	}
	at := jwt.NewWithClaims(jwt.SigningMethodHS256, atClaims)
	if td.AccessToken, err = at.SignedString(m.accessSecret); err != nil {
		return nil, err
	}

	rtClaims := jwt.MapClaims{
		"refresh_uuid": td.RefreshUUID,
		"user_id":      userID,
		"exp":          td.RtExpires,
	}
	rt := jwt.NewWithClaims(jwt.SigningMethodHS256, rtClaims)
	if td.RefreshToken, err = rt.SignedString(m.refreshSecret); err != nil {
		return nil, err
	}

	return td, nil
}

// CreateAuth registers both uuids until their tokens expire
func (m *Manager) CreateAuth(ctx context.Context, userID string, td *TokenDetails) error {
	now := m.now()

	if err := m.registry.Register(ctx, td.AccessUUID, userID, time.Unix(td.AtExpires, 0).Sub(now)); err != nil {
		return err
	}
	return m.registry.Register(ctx, td.RefreshUUID, userID, time.Unix(td.RtExpires, 0).Sub(now))
}

// ExtractToken returns the still encoded token. An access token may also be
// sent as "Authorization: Bearer <token>".
func (m *Manager) ExtractToken(tokenType string, r *http.Request) (string, error) {
	if tokenType == AT {
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")), nil
		}
	}

	tokens := make(map[string]string)
	if err := m.jar.Get(r, &tokens); err != nil {
		return "", ErrNotLoggedIn
	}

	token, ok := tokens[tokenType]
	if !ok || token == "" {
		return "", ErrNotLoggedIn
	}
	return token, nil
}

// VerifyToken checks the signature and expiry
func (m *Manager) VerifyToken(tokenType string, r *http.Request) (*jwt.Token, error) {
	tokenString, err := m.ExtractToken(tokenType, r)
	if err != nil {
		return nil, err
	}

	secret := m.accessSecret
	if tokenType == RT {
		secret = m.refreshSecret
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// make sure the token method conforms to "SigningMethodHMAC"
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	return token, nil
}

// ExtractTokenMetadata reads the uuid and user of a valid token
func (m *Manager) ExtractTokenMetadata(tokenType string, r *http.Request) (*AccessDetails, error) {
	token, err := m.VerifyToken(tokenType, r)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrUnauthorized
	}

	uuidClaim := "access_uuid"
	if tokenType == RT {
		uuidClaim = "refresh_uuid"
	}

	tokenUUID, ok := claims[uuidClaim].(string)
	if !ok {
		return nil, ErrUnauthorized
	}
	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, ErrUnauthorized
	}

	return &AccessDetails{TokenUUID: tokenUUID, UserID: userID}, nil
}

// FetchAuth looks the token up in the registry and returns its user
func (m *Manager) FetchAuth(ctx context.Context, ad *AccessDetails) (string, error) {
	userID, err := m.registry.Lookup(ctx, ad.TokenUUID)
	if err != nil {
		return "", err
	}
	if userID != ad.UserID {
		return "", ErrUnauthorized
	}
	return userID, nil
}

// Authenticate checks the access token of a request and returns the user id
func (m *Manager) Authenticate(r *http.Request) (string, error) {
	ad, err := m.ExtractTokenMetadata(AT, r)
	if err != nil {
		return "", err
	}
	return m.FetchAuth(r.Context(), ad)
}

// Refresh exchanges a registered refresh token for a new pair
func (m *Manager) Refresh(c *gin.Context) (string, error) {
	ad, err := m.ExtractTokenMetadata(RT, c.Request)
	if err != nil {
		return "", err
	}

	userID, err := m.FetchAuth(c.Request.Context(), ad)
	if err != nil {
		return "", err
	}

	deleted, err := m.DeleteAuths(c.Request.Context(), RT, userID, ad.TokenUUID)
	if err != nil {
		return "", err
	}
	if deleted == 0 {
		return "", ErrUnauthorized
	}

	if _, err = m.CreateTokens(c, userID); err != nil {
		return "", err
	}
	return userID, nil
}

// DeleteAuths revokes the current token of a type. If the user holds too many
// of them, all are revoked as a security measure.
func (m *Manager) DeleteAuths(ctx context.Context, tokenType string, userID string, currentUUID string) (int64, error) {
	prefix := "at_"
	if tokenType == RT {
		prefix = "rt_"
	}

	usrKeys, err := m.registry.UserTokens(ctx, prefix, userID)
	if err != nil {
		return 0, err
	}

	if len(usrKeys) >= maxRefreshTokens {
		return m.registry.Revoke(ctx, usrKeys...)
	}
	if len(usrKeys) >= 1 {
		return m.registry.Revoke(ctx, currentUUID)
	}
	return 0, nil
}

// Logout revokes both tokens and deletes the cookie. It never fails, so the
// client can always clear its session.
func (m *Manager) Logout(c *gin.Context) {
	ctx := c.Request.Context()

	if ad, err := m.ExtractTokenMetadata(AT, c.Request); err == nil {
		_, _ = m.registry.Revoke(ctx, ad.TokenUUID)
	}
	if ad, err := m.ExtractTokenMetadata(RT, c.Request); err == nil {
		_, _ = m.registry.Revoke(ctx, ad.TokenUUID)
	}

	_ = m.jar.Delete(c)
}

// TokenAuthMiddleware rejects requests without a valid, registered access token
// and stores the user id in the context
func (m *Manager) TokenAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := m.Authenticate(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": ErrNotLoggedIn.Error()})
			return
		}

		c.Set(ContextUserID, userID)
		c.Next()
	}
}
