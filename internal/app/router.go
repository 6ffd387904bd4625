package app

import (
	"log/slog"

	"ito/internal/domain"
)

// Router applies inbound protocol events. Validation, authorization and
// rate limiting happen here; room mutation happens inside the session
// under its lock. Validation failures never mutate room state.
type Router struct {
	registry *Registry
	limiter  *SubmitLimiter
	logger   *slog.Logger
}

// NewRouter creates a router over the given registry and limiter
func NewRouter(registry *Registry, limiter *SubmitLimiter, logger *slog.Logger) *Router {
	return &Router{
		registry: registry,
		limiter:  limiter,
		logger:   logger,
	}
}

// JoinRoom validates the room name and nickname, then joins the
// connection to the room
func (rt *Router) JoinRoom(conn ClientConn, roomName, nickname string) error {
	if err := domain.ValidateRoomName(roomName); err != nil {
		return err
	}
	if err := domain.ValidateNickname(nickname); err != nil {
		return err
	}

	_, err := rt.registry.Join(conn, roomName, nickname)
	return err
}

// SubmitAnswer stores a player's clue. Submissions arriving inside the
// rate-limit interval are dropped silently, without touching room state.
func (rt *Router) SubmitAnswer(playerID, answer string) error {
	if !rt.limiter.Allow(playerID) {
		rt.logger.Debug("submission throttled", "player", playerID)
		return nil
	}

	if err := domain.ValidateAnswer(answer); err != nil {
		return err
	}

	session, err := rt.registry.RoomOf(playerID)
	if err != nil {
		return err
	}

	return session.SubmitAnswer(playerID, answer)
}

// UpdateOrder replaces the caller's room ordering
func (rt *Router) UpdateOrder(playerID string, orderedIDs []string) error {
	session, err := rt.registry.RoomOf(playerID)
	if err != nil {
		return err
	}

	return session.UpdateOrder(playerID, orderedIDs)
}

// ShowResult reveals the round outcome. Host only.
func (rt *Router) ShowResult(playerID string) error {
	return rt.hostOp("show_result", playerID, func(s *RoomSession) error {
		return s.ShowResult(playerID)
	})
}

// ResetGame starts a new round under a fresh theme. Host only.
func (rt *Router) ResetGame(playerID string) error {
	return rt.hostOp("reset_game", playerID, func(s *RoomSession) error {
		return s.ResetRound(playerID)
	})
}

// DisbandRoom removes the caller's room entirely. Host only.
func (rt *Router) DisbandRoom(playerID string) (err error) {
	defer rt.recoverHostOp("disband_room", playerID, &err)
	return rt.registry.Disband(playerID)
}

// Disconnect handles a closed connection: the player's number returns to
// the pool, host authority moves on if needed and the room is removed
// when it empties
func (rt *Router) Disconnect(playerID string) {
	rt.limiter.Forget(playerID)
	rt.registry.Leave(playerID)
}

// hostOp resolves the caller's room and runs a host-only action with
// panic recovery, so one faulting event cannot take the process down
func (rt *Router) hostOp(name, playerID string, fn func(*RoomSession) error) (err error) {
	session, e := rt.registry.RoomOf(playerID)
	if e != nil {
		return e
	}

	defer rt.recoverHostOp(name, playerID, &err)
	return fn(session)
}

func (rt *Router) recoverHostOp(name, playerID string, err *error) {
	if rec := recover(); rec != nil {
		rt.logger.Error("host action failed", "action", name, "player", playerID, "panic", rec)
		*err = domain.ErrInternal
	}
}
