package api

import (
	"context"
	"encoding/json"
	"io"

	"github.com/alphapie77/booklending-go/internal/catalog"
)

type LoginResponse struct {
	Token          string     `json:"token"`
	UserID         catalog.ID `json:"user_id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	ProfilePicture string     `json:"profile_picture"`
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
}

type RegisterResponse struct {
	Token    string     `json:"token"`
	UserID   catalog.ID `json:"user_id"`
	Username string     `json:"username"`
}

type UserPayload struct {
	ID        catalog.ID `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
}

// UpdateUserResponse is the update-user payload: the extended profile at the
// top level plus the embedded core user record.
type UpdateUserResponse struct {
	User           UserPayload
	ProfilePicture string
	Profile        catalog.Profile
}

func (r *UpdateUserResponse) UnmarshalJSON(b []byte) error {
	var head struct {
		User           UserPayload `json:"user"`
		ProfilePicture string      `json:"profile_picture"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}
	if err := json.Unmarshal(b, &r.Profile); err != nil {
		return err
	}
	r.User = head.User
	r.ProfilePicture = head.ProfilePicture
	if r.Profile.ProfilePicture == "" {
		r.Profile.ProfilePicture = head.ProfilePicture
	}
	return nil
}

// ProfileUpdate carries the mutable account fields. Only keys present in
// Fields are submitted; Picture, when set, is uploaded as a form file.
type ProfileUpdate struct {
	Fields      map[string]string
	PictureName string
	Picture     io.Reader
}

func (c *Client) Login(ctx context.Context, username, password string) (LoginResponse, error) {
	body := map[string]string{"username": username, "password": password}
	var out LoginResponse
	if err := c.post(ctx, "/api/auth/login/", body, &out); err != nil {
		return LoginResponse{}, err
	}
	return out, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	var out RegisterResponse
	if err := c.post(ctx, "/api/auth/register/", req, &out); err != nil {
		return RegisterResponse{}, err
	}
	return out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, "/api/auth/logout/", nil, nil)
}

func (c *Client) UpdateUser(ctx context.Context, update ProfileUpdate) (UpdateUserResponse, error) {
	form := &multipartForm{
		fields:   update.Fields,
		fileName: update.PictureName,
		filePart: "profile_picture",
		file:     update.Picture,
	}
	var out UpdateUserResponse
	if err := c.put(ctx, "/api/auth/update-user/", form, &out); err != nil {
		return UpdateUserResponse{}, err
	}
	return out, nil
}

func (c *Client) MyProfile(ctx context.Context) (catalog.Profile, error) {
	var out catalog.Profile
	if err := c.get(ctx, "/api/profiles/my_profile/", nil, &out); err != nil {
		return catalog.Profile{}, err
	}
	return out, nil
}
