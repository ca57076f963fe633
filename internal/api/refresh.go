package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/scribeworks/scribe/internal/shared"
)

// refreshResponse is the token payload from the refresh endpoint. The backend
// may omit a rotated refresh token, in which case the stored one is retained.
type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// refreshTokens exchanges the stored refresh token for a new access token.
//
// Concurrent callers are coalesced onto a single HTTP call and observe the
// same resolution, so a page-load burst of expired requests costs one refresh,
// not N. On failure the token store is cleared and the unauthorized hook fires
// exactly once, inside the coalesced call.
func (c *Client) refreshTokens(ctx context.Context) error {
	_, err, _ := c.refreshing.Do("refresh", func() (any, error) {
		err := c.doRefresh(ctx)
		if err != nil {
			c.logger.Warn("token refresh failed, clearing session", "error", err)
			if clearErr := c.tokens.Clear(); clearErr != nil {
				c.logger.Error("failed to clear token store", "error", clearErr)
			}
			if c.onUnauthorized != nil {
				c.onUnauthorized()
			}
		}
		return nil, err
	})
	return err
}

// doRefresh performs the actual token exchange.
//
// The call itself is skip-auth: it must never attach the expired access token
// nor recurse into the 401-retry policy.
func (c *Client) doRefresh(ctx context.Context) error {
	pair, ok := c.tokens.Pair()
	if !ok || pair.Refresh == "" {
		return shared.ErrNoRefreshToken
	}

	var resp refreshResponse
	body := map[string]string{"refresh": pair.Refresh}
	if err := c.Do(ctx, http.MethodPost, c.authRoot+"/refresh/", body, &resp, SkipAuth()); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	if resp.Access == "" {
		return fmt.Errorf("%w: response missing access token", shared.ErrRefreshFailed)
	}

	if err := c.tokens.Update(resp.Access, resp.Refresh); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	c.logger.Debug("access token refreshed", "rotated_refresh", resp.Refresh != "")
	return nil
}
