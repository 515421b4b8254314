package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"duel-game-bot/internal/config"
	"duel-game-bot/internal/game"
	"duel-game-bot/internal/model"
	"duel-game-bot/internal/pkg/scheduler"
	"duel-game-bot/internal/session"
)

// Status is the result code of a coordinator operation.
type Status int

// Statuses. GameOver is a success that carries the final snapshot.
const (
	StatusSuccess Status = iota
	StatusGameOver
	StatusGameNotFound
	StatusNotPlayerInGame
	StatusNotPlayerTurn
	StatusInvalidMove
	StatusAlreadyChosen
	StatusWrongPhase
	StatusPlayersInvalid
	StatusInternalConflict
	StatusError
)

var statusNames = map[Status]string{
	StatusSuccess:          "success",
	StatusGameOver:         "game_over",
	StatusGameNotFound:     "game_not_found",
	StatusNotPlayerInGame:  "not_player_in_game",
	StatusNotPlayerTurn:    "not_player_turn",
	StatusInvalidMove:      "invalid_move",
	StatusAlreadyChosen:    "already_chosen",
	StatusWrongPhase:       "wrong_phase",
	StatusPlayersInvalid:   "players_invalid",
	StatusInternalConflict: "internal_conflict",
	StatusError:            "error",
}

// String returns the snake_case status name.
func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "unknown"
}

// moveErrors maps match validation errors to statuses.
var moveErrors = []struct {
	err    error
	status Status
}{
	{game.ErrNotPlayerInGame, StatusNotPlayerInGame},
	{game.ErrNotPlayerTurn, StatusNotPlayerTurn},
	{game.ErrInvalidMove, StatusInvalidMove},
	{game.ErrAlreadyChosen, StatusAlreadyChosen},
	{game.ErrWrongPhase, StatusWrongPhase},
	{game.ErrPlayersInvalid, StatusPlayersInvalid},
}

func statusFor(err error) Status {
	for _, m := range moveErrors {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return StatusError
}

// Messages shown for statuses that carry no error text.
const (
	msgGameNotFound = "This game is no longer active."
	msgConflict     = "A game is already running here."
	msgBotsDisabled = "Bot opponents are disabled for this game."
	msgInternal     = "Something went wrong, please try again."
	msgRatingFailed = "The game is over, but ratings could not be updated."
)

// CreateRequest starts a session. An empty Key gets a generated one.
type CreateRequest struct {
	Variant    model.Variant
	Key        string
	Challenger game.Player
	Opponent   game.Player
	GuildID    int64
}

// CreationResult is returned by CreateGame.
type CreationResult struct {
	Status   Status
	Key      string
	Snapshot game.Snapshot
	Message  string
}

// UpdateResult is returned by SubmitMove. Rating is set when a finished
// match was rated. A finished human match whose rating update failed comes
// back as StatusError with its final snapshot.
type UpdateResult struct {
	Status   Status
	Snapshot game.Snapshot
	Message  string
	Rating   *RatingUpdate
}

// Final reports whether r carries the snapshot of a session that has ended.
// That is a GameOver, or an Error raised after the match finished.
func (r UpdateResult) Final() bool {
	switch r.Status {
	case StatusGameOver:
		return true
	case StatusError:
		return r.Snapshot != nil && r.Snapshot.Result().Over
	}
	return false
}

// MatchSink receives a record of every finished or expired match.
type MatchSink interface {
	Record(ctx context.Context, m *model.MatchRecord) error
}

// ExpiryListener is told when a session times out.
type ExpiryListener interface {
	SessionExpired(variant model.Variant, key string, snap game.Snapshot)
}

// liveSession is one registered match. mu serializes every access to
// match; closed is set once the session has left its registry.
type liveSession struct {
	mu        sync.Mutex
	variant   model.Variant
	key       string
	guildID   int64
	match     game.Match
	startedAt time.Time
	closed    bool
}

// Coordinator is the entry point for creating sessions and submitting
// moves across all variants.
type Coordinator struct {
	engines    *game.Registry
	registries map[model.Variant]*session.Registry[*liveSession]
	games      config.GamesConfig
	ratings    *RatingService
	sinks      []MatchSink
	now        func() time.Time

	mu        sync.RWMutex
	listeners []ExpiryListener
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithMatchSinks adds match history sinks.
func WithMatchSinks(sinks ...MatchSink) CoordinatorOption {
	return func(c *Coordinator) { c.sinks = append(c.sinks, sinks...) }
}

// WithClock replaces time.Now for match timestamps.
func WithClock(now func() time.Time) CoordinatorOption {
	return func(c *Coordinator) { c.now = now }
}

// NewCoordinator creates a coordinator with one session registry per
// engine in engines, all scheduling timeouts on sched.
func NewCoordinator(engines *game.Registry, sched scheduler.Scheduler, games config.GamesConfig, ratings *RatingService, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		engines:    engines,
		registries: make(map[model.Variant]*session.Registry[*liveSession]),
		games:      games,
		ratings:    ratings,
		now:        time.Now,
	}
	for _, v := range engines.Variants() {
		c.registries[v] = session.NewRegistry[*liveSession](sched)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddExpiryListener registers l for timeout notifications.
func (c *Coordinator) AddExpiryListener(l ExpiryListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// CreateGame starts a session for req. Exactly one of several concurrent
// requests for the same key succeeds; the rest get InternalConflict.
func (c *Coordinator) CreateGame(ctx context.Context, req CreateRequest) CreationResult {
	engine, ok := c.engines.Get(req.Variant)
	reg := c.registries[req.Variant]
	cfg, hasCfg := c.games.For(req.Variant)
	if !ok || reg == nil || !hasCfg {
		log.Error().Str("variant", string(req.Variant)).Msg("No engine registered for variant")
		return CreationResult{Status: StatusError, Message: msgInternal}
	}

	if (req.Challenger.Bot || req.Opponent.Bot) && !cfg.AllowBot {
		return CreationResult{Status: StatusPlayersInvalid, Message: msgBotsDisabled}
	}

	match, err := engine.NewMatch(req.Challenger, req.Opponent)
	if err != nil {
		status := statusFor(err)
		if status == StatusError {
			log.Error().Err(err).Str("variant", string(req.Variant)).Msg("Failed to create match")
			return CreationResult{Status: StatusError, Message: msgInternal}
		}
		return CreationResult{Status: status, Message: err.Error()}
	}

	key := req.Key
	if key == "" {
		key = uuid.NewString()
	}

	ls := &liveSession{
		variant:   req.Variant,
		key:       key,
		guildID:   req.GuildID,
		match:     match,
		startedAt: c.now(),
	}
	// Held until the timeout is installed so no move can finish the
	// session before it has one.
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if _, created := reg.TryCreate(key, func() *liveSession { return ls }); !created {
		log.Debug().
			Str("variant", string(req.Variant)).
			Str("session", key).
			Msg("Session key already in use")
		return CreationResult{Status: StatusInternalConflict, Key: key, Message: msgConflict}
	}
	reg.ScheduleTimeout(key, cfg.Timeout, c.expire)

	log.Info().
		Str("variant", string(req.Variant)).
		Str("session", key).
		Int64("guild_id", req.GuildID).
		Int64("challenger", req.Challenger.ID).
		Int64("opponent", req.Opponent.ID).
		Msg("Session created")

	return CreationResult{Status: StatusSuccess, Key: key, Snapshot: match.Snapshot()}
}

// SubmitMove applies mv by actorID to the session under key. Validation
// failures leave the session untouched. A finishing move removes the
// session, rates the match when both players are human and records it to
// every sink.
func (c *Coordinator) SubmitMove(ctx context.Context, variant model.Variant, key string, actorID int64, mv game.Move) UpdateResult {
	reg := c.registries[variant]
	if reg == nil {
		return UpdateResult{Status: StatusGameNotFound, Message: msgGameNotFound}
	}
	ls, ok := reg.Get(key)
	if !ok {
		return UpdateResult{Status: StatusGameNotFound, Message: msgGameNotFound}
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	// A timeout may have removed ls before its expiry callback got the lock.
	if cur, ok := reg.Get(key); ls.closed || !ok || cur != ls {
		return UpdateResult{Status: StatusGameNotFound, Message: msgGameNotFound}
	}

	if err := ls.match.Apply(actorID, mv); err != nil {
		return UpdateResult{Status: statusFor(err), Snapshot: ls.match.Snapshot(), Message: err.Error()}
	}

	out := ls.match.Outcome()
	if !out.Over {
		if cfg, _ := c.games.For(variant); cfg.RefreshOnMove {
			reg.ScheduleTimeout(key, cfg.Timeout, c.expire)
		}
		return UpdateResult{Status: StatusSuccess, Snapshot: ls.match.Snapshot()}
	}

	reg.CancelTimeout(key)
	if _, removed := reg.Remove(key); !removed {
		// The timeout fired first and owns the ending.
		return UpdateResult{Status: StatusGameNotFound, Message: msgGameNotFound}
	}
	ls.closed = true

	result := UpdateResult{Status: StatusGameOver, Snapshot: ls.match.Snapshot()}
	if rated(ls.match.Players()) {
		rating, err := c.rate(ctx, ls, out)
		if err != nil {
			log.Error().Err(err).
				Str("variant", string(variant)).
				Str("session", key).
				Msg("Failed to update ratings")
			result.Status = StatusError
			result.Message = msgRatingFailed
		}
		result.Rating = rating
	}

	reason := model.EndCompleted
	if out.Forfeit {
		reason = model.EndForfeit
	}
	c.record(ctx, ls, out, reason, result.Rating)

	log.Info().
		Str("variant", string(variant)).
		Str("session", key).
		Int64("winner", out.WinnerID).
		Bool("tie", out.Tie).
		Str("reason", reason).
		Msg("Session finished")

	return result
}

// GetActiveSession returns a snapshot of the live session under key.
func (c *Coordinator) GetActiveSession(variant model.Variant, key string) (game.Snapshot, bool) {
	reg := c.registries[variant]
	if reg == nil {
		return nil, false
	}
	ls, ok := reg.Get(key)
	if !ok {
		return nil, false
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	if cur, ok := reg.Get(key); ls.closed || !ok || cur != ls {
		return nil, false
	}
	return ls.match.Snapshot(), true
}

// ActiveCounts returns the number of live sessions per variant.
func (c *Coordinator) ActiveCounts() map[model.Variant]int {
	counts := make(map[model.Variant]int, len(c.registries))
	for v, reg := range c.registries {
		counts[v] = reg.Len()
	}
	return counts
}

// Close cancels every pending timeout and drops all live sessions.
func (c *Coordinator) Close() {
	for v, reg := range c.registries {
		n := reg.Len()
		reg.Close()
		if n > 0 {
			log.Info().Str("variant", string(v)).Int("sessions", n).Msg("Dropped live sessions on shutdown")
		}
	}
}

// expire runs after a timeout removed ls from its registry.
func (c *Coordinator) expire(ls *liveSession) {
	ls.mu.Lock()
	if ls.closed {
		ls.mu.Unlock()
		return
	}
	ls.closed = true
	snap := ls.match.Snapshot()
	ls.mu.Unlock()

	log.Info().
		Str("variant", string(ls.variant)).
		Str("session", ls.key).
		Msg("Session timed out")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.record(ctx, ls, game.Outcome{Over: true}, model.EndExpired, nil)

	c.mu.RLock()
	listeners := append([]ExpiryListener(nil), c.listeners...)
	c.mu.RUnlock()
	for _, l := range listeners {
		l.SessionExpired(ls.variant, ls.key, snap)
	}
}

// rated reports whether a match between players affects ratings.
func rated(players [2]game.Player) bool {
	return !players[0].Bot && !players[1].Bot
}

func (c *Coordinator) rate(ctx context.Context, ls *liveSession, out game.Outcome) (*RatingUpdate, error) {
	if c.ratings == nil {
		return nil, nil
	}
	players := ls.match.Players()
	first, second := players[0], players[1]
	if !out.Tie {
		if players[1].ID == out.WinnerID {
			first, second = players[1], players[0]
		}
	}
	return c.ratings.RecordResult(ctx, first, second, ls.guildID, ls.variant, out.Tie)
}

func (c *Coordinator) record(ctx context.Context, ls *liveSession, out game.Outcome, reason string, rating *RatingUpdate) {
	if len(c.sinks) == 0 {
		return
	}
	players := ls.match.Players()
	rec := &model.MatchRecord{
		ID:         uuid.New(),
		SessionKey: ls.key,
		Variant:    ls.variant,
		GuildID:    ls.guildID,
		Player1ID:  players[0].ID,
		Player2ID:  players[1].ID,
		WinnerID:   out.WinnerID,
		Tie:        out.Tie,
		Reason:     reason,
		Rated:      rating != nil,
		StartedAt:  ls.startedAt,
		EndedAt:    c.now(),
	}
	if rating != nil {
		deltas := map[int64]float64{
			rating.First.PlayerID:  rating.FirstDelta,
			rating.Second.PlayerID: rating.SecondDelta,
		}
		rec.Player1Diff = deltas[rec.Player1ID]
		rec.Player2Diff = deltas[rec.Player2ID]
	}

	for _, sink := range c.sinks {
		if err := sink.Record(ctx, rec); err != nil {
			log.Warn().Err(err).
				Str("variant", string(ls.variant)).
				Str("session", ls.key).
				Msg("Failed to record match")
		}
	}
}
