package helpers

import (
	"encoding/json"
	"net/http"

	"github.com/chmike/securecookie"
	"github.com/gin-gonic/gin"
)

// https://github.com/chmike/securecookie

var cookieParams = securecookie.Params{
	Path:     "/",              // cookie received only when URL starts with this path
	Domain:   "",               // cookie received only when URL domain matches this one
	MaxAge:   3600 * 24 * 7,    // cookie becomes invalid 1 week after it is set (default 3600 seconds)
	HTTPOnly: true,             // disallow access by remote javascript code
	Secure:   false,            // set by NewCookieJar in production
	SameSite: securecookie.Lax, // cookie received with same or sub-domain names
}

// CookieJar reads and writes one encrypted, authenticated cookie
type CookieJar struct {
	name   string
	key    []byte
	params securecookie.Params
}

// NewCookieJar validates the key once; securecookie needs at least 32 bytes
func NewCookieJar(name string, key string, secure bool) (*CookieJar, error) {
	params := cookieParams
	params.Secure = secure

	// fail early instead of on the first login
	if _, err := securecookie.New(name, []byte(key), params); err != nil {
		return nil, err
	}

	return &CookieJar{name: name, key: []byte(key), params: params}, nil
}

// Name of the cookie
func (j *CookieJar) Name() string {
	return j.name
}

// Set serializes value to JSON and sends it as the cookie
func (j *CookieJar) Set(c *gin.Context, value interface{}) error {
	sck, err := securecookie.New(j.name, j.key, j.params)
	if err != nil {
		return err
	}

	b, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return sck.SetValue(c.Writer, b)
}

// Get decodes the cookie into value
func (j *CookieJar) Get(r *http.Request, value interface{}) error {
	sck, err := securecookie.New(j.name, j.key, j.params)
	if err != nil {
		return err
	}

	val, err := sck.GetValue(nil, r)
	if err != nil {
		return err
	}

	return json.Unmarshal(val, value)
}

// Delete sets a new cookie with the same name and negative MaxAge
func (j *CookieJar) Delete(c *gin.Context) error {
	sck, err := securecookie.New(j.name, j.key, j.params)
	if err != nil {
		return err
	}

	return sck.Delete(c.Writer)
}
