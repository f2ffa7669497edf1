package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"standupbot/db"
	"standupbot/secrets"
)

// MemberInfo is one entry from the tenant's member directory.
type MemberInfo struct {
	ID       string
	RealName string
}

// SlackClient is the messaging gateway. It satisfies standup.Gateway.
type SlackClient struct {
	cipher *secrets.Cipher
	client *http.Client
	log    *logrus.Logger
}

func NewSlackClient(cipher *secrets.Cipher, log *logrus.Logger) *SlackClient {
	return &SlackClient{
		cipher: cipher,
		client: &http.Client{Timeout: 15 * time.Second},
		log:    log,
	}
}

func (c *SlackClient) token(tenant *db.Tenant) (string, error) {
	token, err := c.cipher.Decrypt(tenant.AccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt credential for tenant %s: %w", tenant.TenantID, err)
	}
	return token, nil
}

// Post sends text to a channel or direct conversation.
func (c *SlackClient) Post(ctx context.Context, tenant *db.Tenant, channelID, text string) error {
	token, err := c.token(tenant)
	if err != nil {
		return err
	}

	var result slackPostResponse
	err = c.postJSON(ctx, token, slackPostMessageURL, slackPostRequest{Channel: channelID, Text: text}, &result)
	if err != nil {
		return fmt.Errorf("Post: failed to send to %s: %w", channelID, err)
	}
	if !result.Ok {
		return fmt.Errorf("Post: Slack API error: %s", result.Error)
	}
	return nil
}

// OpenDirectChannel opens (or re-fetches) the direct conversation with a
// member. Slack returns the existing conversation if one is already open.
func (c *SlackClient) OpenDirectChannel(ctx context.Context, tenant *db.Tenant, memberID string) (string, error) {
	token, err := c.token(tenant)
	if err != nil {
		return "", err
	}

	var result slackOpenResponse
	err = c.postJSON(ctx, token, slackConversationsOpenURL, map[string]string{"users": memberID}, &result)
	if err != nil {
		return "", fmt.Errorf("OpenDirectChannel: request failed for %s: %w", memberID, err)
	}
	if !result.Ok {
		return "", fmt.Errorf("OpenDirectChannel: Slack API error: %s", result.Error)
	}
	return result.Channel.ID, nil
}

// ListMembers enumerates the tenant's human members, following pagination
// and skipping bots, deleted users and Slackbot.
func (c *SlackClient) ListMembers(ctx context.Context, tenant *db.Tenant) ([]MemberInfo, error) {
	token, err := c.token(tenant)
	if err != nil {
		return nil, err
	}

	var members []MemberInfo
	cursor := ""
	for {
		endpoint := slackUsersListURL
		if cursor != "" {
			endpoint += "?cursor=" + url.QueryEscape(cursor)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("ListMembers: failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("ListMembers: request failed: %w", err)
		}

		var result slackUsersListResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()
		if decodeErr != nil {
			return nil, fmt.Errorf("ListMembers: failed to decode response: %w", decodeErr)
		}
		if !result.Ok {
			return nil, fmt.Errorf("ListMembers: Slack API error: %s", result.Error)
		}

		for _, m := range result.Members {
			if m.ID == "" || m.ID == "USLACKBOT" || m.IsBot || m.Deleted {
				continue
			}
			name := m.Profile.RealName
			if name == "" {
				name = m.Name
			}
			members = append(members, MemberInfo{ID: m.ID, RealName: name})
		}

		cursor = result.ResponseMetadata.NextCursor
		if cursor == "" {
			break
		}
	}
	return members, nil
}

func (c *SlackClient) postJSON(ctx context.Context, token, endpoint string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Slack API responded with status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
