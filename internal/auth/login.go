package auth

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"ms-storefront/internal/logger"
	"ms-storefront/internal/utils"

	"golang.org/x/crypto/bcrypt"
)

// LoginHandler exchanges admin credentials for a session cookie.
type LoginHandler struct {
	Sessions     *JWTSessions
	Username     string
	PasswordHash string
	// SecureCookie marks the cookie Secure; enable behind TLS.
	SecureCookie bool
	LoginPath    string
	RedirectTo   string
	Logger       *logger.Logger
}

func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 16<<10)
	if err := r.ParseForm(); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request")
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	if !h.checkCredentials(username, password) {
		h.Logger.LogSecurity("LOGIN_FAILED", fmt.Sprintf("username=%q from %s", username, r.RemoteAddr))
		utils.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := h.Sessions.Issue(username)
	if err != nil {
		h.Logger.Error("AUTH", fmt.Sprintf("failed to issue session: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.Sessions.SetCookie(w, token, expiresAt, h.SecureCookie)
	h.Logger.Info("AUTH", fmt.Sprintf("admin %s logged in", username))
	http.Redirect(w, r, h.redirectTo(), http.StatusSeeOther)
}

func (h *LoginHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.ClearCookie(w, h.SecureCookie)
	http.Redirect(w, r, h.LoginPath, http.StatusSeeOther)
}

func (h *LoginHandler) checkCredentials(username, password string) bool {
	if h.PasswordHash == "" || username == "" || password == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(h.Username)) == 1
	// bcrypt runs even for an unknown username.
	passOK := bcrypt.CompareHashAndPassword([]byte(h.PasswordHash), []byte(password)) == nil
	return userOK && passOK
}

func (h *LoginHandler) redirectTo() string {
	if h.RedirectTo == "" {
		return "/admin"
	}
	return h.RedirectTo
}
