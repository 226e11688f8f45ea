package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"comaze/internal/room"
	"comaze/pkg/types"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func PostPosition(s *room.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "room")
		var req types.PositionRequest
		if !decode(w, r, &req) {
			return
		}
		if req.X == nil || req.Y == nil {
			writeError(w, http.StatusBadRequest, "invalid position data")
			return
		}
		pos := s.SetPosition(code, *req.X, *req.Y)
		log.Debug("position updated",
			zap.String("room", code), zap.Int("x", pos.X), zap.Int("y", pos.Y))
		writeJSON(w, http.StatusOK, types.SuccessResponse{Success: true})
	}
}

func GetPosition(s *room.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "room")
		pos, err := s.Position(code)
		if err != nil {
			writeError(w, http.StatusNotFound, "position not found")
			return
		}
		writeJSON(w, http.StatusOK, types.PositionResponse{
			X: pos.X, Y: pos.Y, Timestamp: pos.Timestamp,
		})
	}
}

func PostRole(s *room.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "room")
		var req types.RoleRequest
		if !decode(w, r, &req) {
			return
		}
		roles, err := s.SetRole(code, req.PlayerID, req.Role)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Info("roles assigned",
			zap.String("room", code), zap.String("slot", req.PlayerID), zap.String("role", req.Role))
		writeJSON(w, http.StatusOK, types.RolesResponse{Roles: roles})
	}
}

func GetRole(s *room.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "room")
		writeJSON(w, http.StatusOK, types.RolesResponse{Roles: s.Roles(code)})
	}
}

func PostSwitchRoles(s *room.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "room")
		roles, err := s.SwitchRoles(code)
		if errors.Is(err, room.ErrNoRoles) {
			writeError(w, http.StatusNotFound, "no roles to switch")
			return
		}
		log.Info("roles switched", zap.String("room", code))
		writeJSON(w, http.StatusOK, types.RolesResponse{Roles: roles})
	}
}

func PostGameState(s *room.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "room")
		var req types.GameStateRequest
		if !decode(w, r, &req) {
			return
		}
		state, err := s.SetGameState(code, req.Phase, req.CurrentLevel)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Info("game state updated",
			zap.String("room", code), zap.String("phase", state.Phase), zap.Int("level", state.CurrentLevel))
		writeJSON(w, http.StatusOK, types.SuccessResponse{Success: true})
	}
}

func GetGameState(s *room.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "room")
		state := s.GameState(code)
		writeJSON(w, http.StatusOK, types.GameStateResponse{
			Phase:        state.Phase,
			CurrentLevel: state.CurrentLevel,
			Initialized:  state.Initialized,
		})
	}
}

func PostJoin(s *room.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "room")
		var req types.JoinRequest
		if !decode(w, r, &req) {
			return
		}
		both, players, err := s.Join(code, req.PlayerID)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Info("player joined",
			zap.String("room", code), zap.String("slot", req.PlayerID), zap.Bool("bothJoined", both))
		writeJSON(w, http.StatusOK, types.JoinResponse{
			Success: true, BothPlayersJoined: both, Players: players,
		})
	}
}

func GetRoomStatus(s *room.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "room")
		exists, both, players := s.Status(code)
		writeJSON(w, http.StatusOK, types.RoomStatusResponse{
			Exists: exists, BothPlayersJoined: both, Players: players,
		})
	}
}

func PostPlayerReady(s *room.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "room")
		var req types.ReadyRequest
		if !decode(w, r, &req) {
			return
		}
		both, ready, err := s.Ready(code, req.PlayerID)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Info("player ready",
			zap.String("room", code), zap.String("slot", req.PlayerID), zap.Bool("bothReady", both))
		writeJSON(w, http.StatusOK, types.ReadyResponse{
			Success: true, BothPlayersReady: both, PlayersReady: ready,
		})
	}
}

func GetPlayerReady(s *room.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "room")
		both, ready := s.ReadyStatus(code)
		writeJSON(w, http.StatusOK, types.ReadyStatusResponse{
			BothPlayersReady: both, PlayersReady: ready,
		})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
