package apiclient

import (
	"context"
	"net/http"

	"taskflow-cli/internal/model"
)

const loginPath = "/api/auth/login/"

// Login exchanges credentials for a session token. It never sends an Authorization
// header and does not persist anything; see session.Session.Login.
func (c *Client) Login(ctx context.Context, username, password string) (model.LoginResponse, error) {
	const op = "login"
	raw, err := c.do(ctx, op, http.MethodPost, loginPath, model.Credentials{Username: username, Password: password}, false)
	if err != nil {
		return model.LoginResponse{}, err
	}
	var out model.LoginResponse
	if err := decodeInto(op, raw, &out); err != nil {
		return model.LoginResponse{}, err
	}
	return out, nil
}
