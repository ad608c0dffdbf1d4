package handlers

import (
	"net/http"
	"time"

	"github.com/handsomefox/moodreel/internal/env"
)

const sessionCookieName = "moodreel_session"
const sessionCookieHours = 12

func sessionCookie(r *http.Request) string {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, id string) {
	expiration := time.Now().Add(time.Hour * sessionCookieHours)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		Expires:  expiration,
		MaxAge:   int((time.Hour * sessionCookieHours).Seconds()),
		HttpOnly: true,
		SameSite: sameSite(h.env),
		Secure:   secure(h.env),
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: sameSite(h.env),
		Secure:   secure(h.env),
	})
}

func sameSite(e env.Environment) http.SameSite {
	switch e {
	case env.Production:
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func secure(e env.Environment) bool {
	return e.IsProduction()
}
