package handlers

import (
	"net/http"
	"time"

	"github.com/nkiryanov/usermanagement/internal/models"
)

const (
	refreshCookieName = "refreshToken"
	accessHeaderName  = "Authorization"
	accessAuthScheme  = "Bearer"
)

// Set access token header and refresh token cookie
func setTokens(w http.ResponseWriter, pair models.TokenPair) {
	w.Header().Set(accessHeaderName, accessAuthScheme+" "+pair.Access.Value)

	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    pair.Refresh.Value,
		Path:     "/",
		Expires:  pair.Refresh.ExpiresAt,
		MaxAge:   int(time.Until(pair.Refresh.ExpiresAt).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// Empty string if cookie not set
func refreshFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
