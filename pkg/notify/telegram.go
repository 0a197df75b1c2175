package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pvc/entities"
)

// UserLookup resolves a recipient to their telegram chat.
type UserLookup interface {
	FindByID(ctx context.Context, id uint) (*entities.User, error)
}

type Telegram struct {
	apiURL string
	token  string
	users  UserLookup
	httpc  *http.Client
}

func NewTelegram(apiURL, token string, users UserLookup) *Telegram {
	return &Telegram{
		apiURL: strings.TrimRight(apiURL, "/"),
		token:  token,
		users:  users,
		httpc:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *Telegram) Notify(ctx context.Context, ev Event) error {
	return t.SendText(ctx, ev.RecipientID, Format(ev))
}

func (t *Telegram) SendText(ctx context.Context, userID uint, text string) error {
	u, err := t.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("recipient %d: %w", userID, err)
	}
	if u.Role == entities.RoleBanned {
		return nil
	}

	body, err := json.Marshal(map[string]any{
		"chat_id":    u.TelegramID,
		"text":       text,
		"parse_mode": "HTML",
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.apiURL+"/bot"+t.token+"/sendMessage", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("sendMessage: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("sendMessage: decode (status %d): %w", resp.StatusCode, err)
	}
	if !out.OK {
		return fmt.Errorf("sendMessage: %s", out.Description)
	}
	return nil
}
