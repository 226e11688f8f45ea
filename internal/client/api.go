package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"comaze/pkg/types"
)

// ErrNotFound marks a 404 from the room server: the data simply has
// not been written yet. Callers treat it as "not yet initialized".
var ErrNotFound = errors.New("not found")

// API is a thin JSON client for the room server. Every call is bounded
// by the configured per-request timeout on top of the caller's context.
type API struct {
	base string
	http *http.Client
}

func NewAPI(base string, timeout time.Duration) *API {
	return &API{
		base: base,
		http: &http.Client{Timeout: timeout},
	}
}

func (a *API) do(ctx context.Context, method, path string, in, out any) error {
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, a.base+path, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e types.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, e.Error)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (a *API) PostPosition(ctx context.Context, room string, x, y int) error {
	return a.do(ctx, http.MethodPost, "/api/position/"+room,
		types.PositionRequest{X: &x, Y: &y}, nil)
}

func (a *API) Position(ctx context.Context, room string) (types.PositionResponse, error) {
	var out types.PositionResponse
	err := a.do(ctx, http.MethodGet, "/api/position/"+room, nil, &out)
	return out, err
}

func (a *API) SetRole(ctx context.Context, room, slot, role string) (map[string]string, error) {
	var out types.RolesResponse
	err := a.do(ctx, http.MethodPost, "/api/role/"+room,
		types.RoleRequest{Role: role, PlayerID: slot}, &out)
	return out.Roles, err
}

func (a *API) Roles(ctx context.Context, room string) (map[string]string, error) {
	var out types.RolesResponse
	err := a.do(ctx, http.MethodGet, "/api/role/"+room, nil, &out)
	return out.Roles, err
}

func (a *API) SwitchRoles(ctx context.Context, room string) (map[string]string, error) {
	var out types.RolesResponse
	err := a.do(ctx, http.MethodPost, "/api/switch-roles/"+room, nil, &out)
	return out.Roles, err
}

func (a *API) SetGameState(ctx context.Context, room, phase string, level int) error {
	return a.do(ctx, http.MethodPost, "/api/game-state/"+room,
		types.GameStateRequest{Phase: phase, CurrentLevel: level}, nil)
}

func (a *API) GameState(ctx context.Context, room string) (types.GameStateResponse, error) {
	var out types.GameStateResponse
	err := a.do(ctx, http.MethodGet, "/api/game-state/"+room, nil, &out)
	return out, err
}

func (a *API) Join(ctx context.Context, room, slot string) (types.JoinResponse, error) {
	var out types.JoinResponse
	err := a.do(ctx, http.MethodPost, "/api/join/"+room,
		types.JoinRequest{PlayerID: slot}, &out)
	return out, err
}

func (a *API) RoomStatus(ctx context.Context, room string) (types.RoomStatusResponse, error) {
	var out types.RoomStatusResponse
	err := a.do(ctx, http.MethodGet, "/api/room-status/"+room, nil, &out)
	return out, err
}

func (a *API) Ready(ctx context.Context, room, slot string) (types.ReadyResponse, error) {
	var out types.ReadyResponse
	err := a.do(ctx, http.MethodPost, "/api/player-ready/"+room,
		types.ReadyRequest{PlayerID: slot}, &out)
	return out, err
}

func (a *API) ReadyStatus(ctx context.Context, room string) (types.ReadyStatusResponse, error) {
	var out types.ReadyStatusResponse
	err := a.do(ctx, http.MethodGet, "/api/player-ready/"+room, nil, &out)
	return out, err
}
