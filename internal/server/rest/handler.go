package rest

import (
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

func (s *HTTPServer) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON parse error")
		return
	}

	user, err := s.users.Register(r.Context(), in)
	s.metrics.RecordOperation("register", outcome(err))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newProfileResponse(user))
}

func (s *HTTPServer) login(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if err := decodeJSON(r, &in); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON parse error")
		return
	}

	res, err := s.users.Login(r.Context(), in)
	s.metrics.RecordOperation("login", outcome(err))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: res.Token, Email: res.Email})
}

func (s *HTTPServer) getProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	profile, err := s.users.GetProfile(r.Context(), user.ID)
	s.metrics.RecordOperation("get_profile", outcome(err))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newProfileResponse(profile))
}

func (s *HTTPServer) updateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var patch services.ProfilePatch
	if err := decodeJSON(r, &patch); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON parse error")
		return
	}

	updated, err := s.users.UpdateProfile(r.Context(), user.ID, patch)
	s.metrics.RecordOperation("update_profile", outcome(err))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newProfileResponse(updated))
}

// logout answers with an empty 200; the replacement token is not returned.
func (s *HTTPServer) logout(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	err := s.users.Logout(r.Context(), user.ID)
	s.metrics.RecordOperation("logout", outcome(err))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *HTTPServer) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var in services.ForgotPasswordInput
	if err := decodeJSON(r, &in); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON parse error")
		return
	}

	msg, err := s.users.ForgotPassword(r.Context(), in)
	s.metrics.RecordOperation("forgot_password", outcome(err))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}

func (s *HTTPServer) resetPassword(w http.ResponseWriter, r *http.Request) {
	var in services.ResetPasswordInput
	if err := decodeJSON(r, &in); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON parse error")
		return
	}

	err := s.users.ResetPassword(r.Context(), in)
	s.metrics.RecordOperation("reset_password", outcome(err))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// currentUser answers 401 when no authenticated user is on the request.
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := UserFromContext(r.Context())
	if !ok || user == nil {
		writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return nil, false
	}
	return user, true
}
