package rest

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type detailResponse struct {
	Detail string `json:"detail"`
}

type profileResponse struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	Username    string  `json:"username"`
	City        string  `json:"city"`
	Region      string  `json:"region"`
	PhoneNumber *string `json:"phone_number"`
}

func newProfileResponse(u *models.User) profileResponse {
	return profileResponse{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		City:        u.City,
		Region:      u.Region,
		PhoneNumber: u.PhoneNumber,
	}
}

type loginResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, detailResponse{Detail: detail})
}

// decodeJSON reads the request body into dst. Unknown fields are ignored.
func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
