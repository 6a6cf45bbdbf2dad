package api

import (
	"context"
	"encoding/json"
	"fmt"

	"optiondash-desktop/internal/models"
)

// GetProfile fetches the signed-in user's plan and usage counters
func (c *Client) GetProfile(ctx context.Context) (*models.UserProfile, error) {
	resp, err := c.request(c.query).
		SetContext(ctx).
		Get(c.buildURL("api/users/me"))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("failed to fetch profile: %w", newStatusError(resp))
	}

	var profile models.UserProfile
	if err := json.Unmarshal(resp.Body(), &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return &profile, nil
}
