package httpapi

import (
	"errors"
	"net/http"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/finance"
	"github.com/tinoosan/fintrack/internal/service/auth"
	"github.com/tinoosan/fintrack/internal/session"
)

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.serviceErr(w, r, err)
		return
	}
	u, err := s.authSvc.Register(r.Context(), auth.RegisterInput{
		Email:            req.Email,
		Password:         req.Password,
		SecurityQuestion: req.SecurityQuestion,
		SecurityAnswer:   req.SecurityAnswer,
		Tracking:         finance.TrackingOption(req.TrackingOption),
	})
	if errors.Is(err, errs.ErrExists) {
		writeErr(w, http.StatusBadRequest, "Email already registered")
		return
	}
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	if !s.setSession(w, r, u) {
		return
	}
	toJSON(w, http.StatusCreated, toUserResponse(u))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.serviceErr(w, r, err)
		return
	}
	u, err := s.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	if !s.setSession(w, r, u) {
		return
	}
	toJSON(w, http.StatusOK, toUserResponse(u))
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, session.ClearCookie())
	toJSON(w, http.StatusOK, deleteResponse{Success: true, Message: "Logged out"})
}

func (s *Server) securityQuestion(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeErr(w, http.StatusBadRequest, "email is required")
		return
	}
	q, err := s.authSvc.SecurityQuestion(r.Context(), email)
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, map[string]string{"securityQuestion": q})
}

func (s *Server) recoverPassword(w http.ResponseWriter, r *http.Request) {
	var req recoverRequest
	if err := decodeJSON(r, &req); err != nil {
		s.serviceErr(w, r, err)
		return
	}
	if err := s.authSvc.ResetPassword(r.Context(), req.Email, req.SecurityAnswer, req.NewPassword); err != nil {
		s.serviceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, deleteResponse{Success: true, Message: "Password updated"})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	u, err := s.authSvc.User(r.Context(), userID(r))
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toUserResponse(u))
}

func (s *Server) updateTracking(w http.ResponseWriter, r *http.Request) {
	var req trackingRequest
	if err := decodeJSON(r, &req); err != nil {
		s.serviceErr(w, r, err)
		return
	}
	u, err := s.authSvc.UpdateTracking(r.Context(), userID(r), finance.TrackingOption(req.TrackingOption))
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toUserResponse(u))
}

// setSession issues a session token and sets the cookie. It reports false
// after writing an error response.
func (s *Server) setSession(w http.ResponseWriter, r *http.Request, u finance.User) bool {
	token, expires, err := s.sessions.Issue(u.ID)
	if err != nil {
		s.serviceErr(w, r, err)
		return false
	}
	http.SetCookie(w, session.Cookie(token, expires, s.opts.SecureCookies))
	return true
}
