package browser

import (
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lesson-extract/internal/session"
)

func TestCookieParams(t *testing.T) {
	params := cookieParams([]session.Token{
		{Name: "sid", Value: "abc", Domain: ".lymcampus.jp", Path: "/", Expires: 1767225600.5, HTTPOnly: true, Secure: true, SameSite: "Lax"},
		{Name: "pref", Value: "ja", Domain: "lymcampus.jp", Path: "/", Expires: -1},
	})
	require.Len(t, params, 2)

	sid := params[0]
	assert.Equal(t, "sid", sid.Name)
	assert.True(t, sid.HTTPOnly)
	assert.True(t, sid.Secure)
	assert.Equal(t, network.CookieSameSiteLax, sid.SameSite)
	require.NotNil(t, sid.Expires)
	assert.Equal(t, time.Unix(1767225600, 500_000_000).UTC(), sid.Expires.Time().UTC())

	pref := params[1]
	assert.Nil(t, pref.Expires, "session cookies carry no expiry")
	assert.Equal(t, network.CookieSameSite(""), pref.SameSite)
}

func TestTokensFromCookies(t *testing.T) {
	tokens := tokensFromCookies([]*network.Cookie{
		{Name: "sid", Value: "abc", Domain: ".lymcampus.jp", Path: "/", Expires: 1767225600, HTTPOnly: true, Secure: true, SameSite: network.CookieSameSiteNone},
		{Name: "tmp", Value: "1", Domain: "lymcampus.jp", Path: "/", Expires: 0, Session: true},
	})

	assert.Equal(t, []session.Token{
		{Name: "sid", Value: "abc", Domain: ".lymcampus.jp", Path: "/", Expires: 1767225600, HTTPOnly: true, Secure: true, SameSite: "None"},
		{Name: "tmp", Value: "1", Domain: "lymcampus.jp", Path: "/", Expires: -1},
	}, tokens)
}

func TestCookieRoundTrip(t *testing.T) {
	in := []session.Token{{Name: "a", Value: "b", Domain: "lymcampus.jp", Path: "/", Expires: 1800000000, SameSite: "Strict"}}

	params := cookieParams(in)
	cookies := make([]*network.Cookie, len(params))
	for i, p := range params {
		cookies[i] = &network.Cookie{
			Name: p.Name, Value: p.Value, Domain: p.Domain, Path: p.Path,
			Expires: float64(p.Expires.Time().Unix()), SameSite: p.SameSite,
		}
	}
	assert.Equal(t, in, tokensFromCookies(cookies))
}
