package auth

import (
	"context"
	"fmt"
)

// ProfileParams carries the mutable profile fields. Empty fields are omitted
// so the backend leaves them untouched.
type ProfileParams struct {
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// UpdateProfile mutates the profile and stores the returned user.
func (m *Manager) UpdateProfile(ctx context.Context, params ProfileParams) error {
	var user User
	endpoint := m.client.AuthRoot() + "/update_profile/"
	if err := m.client.Put(ctx, endpoint, params, &user); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	m.setUser(&user)
	return nil
}

// ChangePassword replaces the account password. The session and its tokens
// stay valid.
func (m *Manager) ChangePassword(ctx context.Context, current, next string) error {
	body := map[string]string{
		"current_password": current,
		"new_password":     next,
	}
	if err := m.client.Put(ctx, m.client.AuthRoot()+"/changepassword/", body, nil); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	return nil
}

// ChangeEmail updates the account email, then reloads the full profile since
// the backend derives more than the address from it.
func (m *Manager) ChangeEmail(ctx context.Context, email, password string) error {
	body := map[string]string{
		"email":    email,
		"password": password,
	}
	if err := m.client.Put(ctx, m.client.AuthRoot()+"/changeemail/", body, nil); err != nil {
		return fmt.Errorf("failed to change email: %w", err)
	}

	return m.loadUser(ctx, false)
}

// DeleteAccount removes the account on the backend and tears down the local
// session.
func (m *Manager) DeleteAccount(ctx context.Context) error {
	if err := m.client.Delete(ctx, m.client.AuthRoot()+"/delete_user/", nil); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	if err := m.client.Tokens().Clear(); err != nil {
		m.logger.Error("failed to clear token store", "error", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = nil
	m.state = StateAnonymous
	return nil
}
