package api

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/acbay/co2survey/internal/middleware"
	"github.com/acbay/co2survey/internal/services"
	"github.com/acbay/co2survey/internal/utils"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// readCredentials accepts JSON bodies and the url-encoded forms htmx posts.
func readCredentials(w http.ResponseWriter, r *http.Request) (credentials, error) {
	var c credentials
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := decodeJSON(w, r, &c); err != nil {
			return c, services.NewInvalidError("invalid json")
		}
		return c, nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := r.ParseForm(); err != nil {
		return c, services.NewInvalidError("invalid form")
	}
	c.Email = r.PostForm.Get("email")
	c.Password = r.PostForm.Get("password")
	c.Name = r.PostForm.Get("name")
	return c, nil
}

// POST /api/auth/login
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	c, err := readCredentials(w, r)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	res, err := rt.svc.Auth.Login(r.Context(), c.Email, c.Password)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /api/auth/register
func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	c, err := readCredentials(w, r)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	res, err := rt.svc.Auth.Register(r.Context(), c.Email, c.Password, c.Name)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// GET /api/auth/me
func (rt *Router) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := rt.svc.Auth.Me(r.Context(), actorFrom(r).ID)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

var hxMessage = template.Must(template.New("hx").Parse(`<div class="text-sm {{.Class}}">{{.Text}}</div>`))

func writeHxMessage(w http.ResponseWriter, status int, ok bool, text string) {
	class := "text-red-700"
	if ok {
		class = "text-emerald-700"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = hxMessage.Execute(w, struct{ Class, Text string }{class, text})
}

// setAuthChanged tells the page to store the new session.
func setAuthChanged(w http.ResponseWriter, res *services.AuthResult) {
	payload, err := json.Marshal(map[string]any{
		"authChanged": map[string]string{"token": res.Token, "role": string(res.Role)},
	})
	if err == nil {
		w.Header().Set("HX-Trigger", string(payload))
	}
}

// POST /api/auth/login-hx
func (rt *Router) handleLoginHx(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	c, err := readCredentials(w, r)
	if err != nil || strings.TrimSpace(c.Email) == "" || c.Password == "" {
		writeHxMessage(w, http.StatusBadRequest, false, utils.T(locale, "auth.missing"))
		return
	}
	res, err := rt.svc.Auth.Login(r.Context(), c.Email, c.Password)
	if err != nil {
		if se, ok := services.AsServiceError(err); !ok || se.Code != services.ErrorUnauthorized {
			rt.log.Error().Err(err).Msg("hx login failed")
		}
		writeHxMessage(w, http.StatusUnauthorized, false, utils.T(locale, "auth.login_failed"))
		return
	}
	setAuthChanged(w, res)
	writeHxMessage(w, http.StatusOK, true, fmt.Sprintf(utils.T(locale, "auth.login_ok"), res.Role))
}

// POST /api/auth/register-hx
func (rt *Router) handleRegisterHx(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	c, err := readCredentials(w, r)
	if err != nil || strings.TrimSpace(c.Email) == "" || c.Password == "" {
		writeHxMessage(w, http.StatusBadRequest, false, utils.T(locale, "auth.missing"))
		return
	}
	res, err := rt.svc.Auth.Register(r.Context(), c.Email, c.Password, c.Name)
	if err != nil {
		key := "auth.register_fail"
		if se, ok := services.AsServiceError(err); ok && se.Code == services.ErrorConflict {
			key = "auth.register_taken"
		} else {
			rt.log.Error().Err(err).Msg("hx register failed")
		}
		writeHxMessage(w, http.StatusBadRequest, false, utils.T(locale, key))
		return
	}
	setAuthChanged(w, res)
	writeHxMessage(w, http.StatusOK, true, fmt.Sprintf(utils.T(locale, "auth.register_ok"), res.Role))
}
