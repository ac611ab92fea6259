// Package ws bridges the chat transport to the game core over Socket.IO.
// It translates command events into session operations and error kinds into
// user-facing messages; the core itself never produces user-facing text.
package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog/log"

	"github.com/Megaleo/dixit-telegram-bot/internal/game"
	"github.com/Megaleo/dixit-telegram-bot/internal/persist"
	"github.com/Megaleo/dixit-telegram-bot/internal/render"
)

type Server struct {
	manager  *game.GameManager
	store    *persist.Store
	renderer render.Renderer
	pictures render.PictureProvider

	criterion game.EndCriterion
	threshold int
}

func New(m *game.GameManager, store *persist.Store, renderer render.Renderer, criterion game.EndCriterion, threshold int) *Server {
	return &Server{manager: m, store: store, renderer: renderer, criterion: criterion, threshold: threshold}
}

// SetPictureProvider installs the best-effort profile picture source.
func (srv *Server) SetPictureProvider(p render.PictureProvider) { srv.pictures = p }

type userPayload struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (u userPayload) user() game.User {
	return game.User{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName}
}

func room(chatID int64) string { return strconv.FormatInt(chatID, 10) }

// Mount attaches the Socket.IO server with all command handlers to the given
// Gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)

	io.OnConnect("/", func(s socketio.Conn) error {
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	// game:new
	io.OnEvent("/", "game:new", func(s socketio.Conn, payload struct {
		ChatID int64       `json:"chatId"`
		User   userPayload `json:"user"`
	}) map[string]any {
		g, err := srv.manager.NewGame(payload.ChatID, payload.User.user(), srv.criterion, srv.threshold)
		if err != nil {
			return srv.fail(s, payload.User.user(), err)
		}
		s.Join(room(payload.ChatID))
		srv.saveSnapshot(payload.ChatID, g)
		master, _ := g.Master()
		log.Info().Int64("chat", payload.ChatID).Int64("master", master.ID).Msg("game:new")
		return ok(map[string]any{
			"gameId":  g.GameID().String(),
			"message": fmt.Sprintf("Let's play Dixit! The master %s has created a new game. Send /joingame to join and /startgame to start playing!", master.Name),
		})
	})

	// game:join
	io.OnEvent("/", "game:join", func(s socketio.Conn, payload struct {
		ChatID int64       `json:"chatId"`
		User   userPayload `json:"user"`
	}) map[string]any {
		u := payload.User.user()
		placement, err := srv.manager.Join(payload.ChatID, u)
		if err != nil {
			return srv.fail(s, u, err)
		}
		s.Join(room(payload.ChatID))
		g, _ := srv.manager.Get(payload.ChatID)
		srv.saveSnapshot(payload.ChatID, g)
		log.Info().Int64("chat", payload.ChatID).Int64("user", u.ID).Str("placement", string(placement)).Msg("game:join")

		var msg string
		switch placement {
		case game.PlacedSeated:
			msg = fmt.Sprintf("%s was added to the game!", u.DisplayName())
		case game.PlacedSeatedDealt:
			msg = fmt.Sprintf("%s joins the round with a fresh hand!", u.DisplayName())
		case game.PlacedWaitingCards:
			msg = fmt.Sprintf("Welcome %s! There are not enough cards to deal you in, you may play when a new round starts.", u.DisplayName())
		case game.PlacedWaitingVote:
			msg = fmt.Sprintf("Welcome %s! A vote is in progress, you may play when a new round starts.", u.DisplayName())
		default: // PlacedWaitingRound
			msg = fmt.Sprintf("Welcome %s! You will be dealt in when the next round starts.", u.DisplayName())
		}
		io.BroadcastToRoom("/", room(payload.ChatID), "game:message", map[string]any{"text": msg})
		return ok(map[string]any{"placement": string(placement)})
	})

	// game:start
	io.OnEvent("/", "game:start", func(s socketio.Conn, payload struct {
		ChatID int64 `json:"chatId"`
		UserID int64 `json:"userId"`
	}) map[string]any {
		g, err := srv.manager.Get(payload.ChatID)
		if err != nil {
			return srv.failID(s, payload.UserID, err)
		}
		if err := g.StartGame(payload.UserID); err != nil {
			return srv.failID(s, payload.UserID, err)
		}
		s.Join(room(payload.ChatID))
		srv.saveSnapshot(payload.ChatID, g)
		st, _ := g.Storyteller()
		log.Info().Int64("chat", payload.ChatID).Int64("storyteller", st.ID).Msg("game:start")
		io.BroadcastToRoom("/", room(payload.ChatID), "game:message", map[string]any{
			"text": fmt.Sprintf("The game has begun! %s is the storyteller. Please write a clue and pick a card.", st.Name),
		})
		return ok(nil)
	})

	// game:storyteller
	io.OnEvent("/", "game:storyteller", func(s socketio.Conn, payload struct {
		ChatID int64  `json:"chatId"`
		UserID int64  `json:"userId"`
		CardID int    `json:"cardId"`
		Clue   string `json:"clue"`
	}) map[string]any {
		g, err := srv.manager.Get(payload.ChatID)
		if err != nil {
			return srv.failID(s, payload.UserID, err)
		}
		if err := g.StorytellerTurn(payload.UserID, payload.CardID, payload.Clue); err != nil {
			return srv.failID(s, payload.UserID, err)
		}
		srv.saveSnapshot(payload.ChatID, g)
		log.Info().Int64("chat", payload.ChatID).Str("clue", g.Clue()).Msg("game:storyteller")
		io.BroadcastToRoom("/", room(payload.ChatID), "game:message", map[string]any{
			"text": fmt.Sprintf("Now, let the others send their cards!\nClue: %s", g.Clue()),
		})
		return ok(nil)
	})

	// game:play
	io.OnEvent("/", "game:play", func(s socketio.Conn, payload struct {
		ChatID int64 `json:"chatId"`
		UserID int64 `json:"userId"`
		CardID int   `json:"cardId"`
	}) map[string]any {
		g, err := srv.manager.Get(payload.ChatID)
		if err != nil {
			return srv.failID(s, payload.UserID, err)
		}
		if err := g.PlayerTurn(payload.UserID, payload.CardID); err != nil {
			return srv.failID(s, payload.UserID, err)
		}
		srv.saveSnapshot(payload.ChatID, g)
		log.Info().Int64("chat", payload.ChatID).Int("table", g.TableCount()).Int("players", g.PlayerCount()).Msg("game:play")
		if g.Stage() == game.StageVote {
			io.BroadcastToRoom("/", room(payload.ChatID), "game:message", map[string]any{
				"text": fmt.Sprintf("Hear ye, hear ye! Time to vote!\nClue: %s", g.Clue()),
			})
		}
		return ok(map[string]any{"played": g.TableCount(), "players": g.PlayerCount()})
	})

	// game:vote
	io.OnEvent("/", "game:vote", func(s socketio.Conn, payload struct {
		ChatID int64 `json:"chatId"`
		UserID int64 `json:"userId"`
		CardID int   `json:"cardId"`
	}) map[string]any {
		g, err := srv.manager.Get(payload.ChatID)
		if err != nil {
			return srv.failID(s, payload.UserID, err)
		}
		if err := g.VotingTurn(payload.UserID, payload.CardID); err != nil {
			return srv.failID(s, payload.UserID, err)
		}
		log.Info().Int64("chat", payload.ChatID).Int("votes", g.VoteCount()).Msg("game:vote")

		if g.Stage() == game.StageLobby {
			srv.finishRound(io, payload.ChatID, g)
		}
		srv.saveSnapshot(payload.ChatID, g)
		return ok(nil)
	})

	// game:hand answers the inline-query equivalent: the player's own cards,
	// or the table during a vote.
	io.OnEvent("/", "game:hand", func(s socketio.Conn, payload struct {
		UserID int64 `json:"userId"`
	}) map[string]any {
		_, g, err := srv.manager.FindUserGame(payload.UserID)
		if err != nil {
			return srv.failID(s, payload.UserID, err)
		}
		var cards []game.Card
		if g.Stage() == game.StageVote {
			cards = g.TableCards()
		} else {
			cards, err = g.Hand(payload.UserID)
			if err != nil {
				return srv.failID(s, payload.UserID, err)
			}
		}
		list := make([]map[string]any, 0, len(cards))
		for _, c := range cards {
			list = append(list, map[string]any{"id": c.ID, "url": c.URL()})
		}
		return ok(map[string]any{"stage": string(g.Stage()), "cards": list})
	})

	// game:restart
	io.OnEvent("/", "game:restart", func(s socketio.Conn, payload struct {
		ChatID int64 `json:"chatId"`
		UserID int64 `json:"userId"`
	}) map[string]any {
		g, err := srv.manager.Get(payload.ChatID)
		if err != nil {
			return srv.failID(s, payload.UserID, err)
		}
		if master, okm := g.Master(); !okm || master.ID != payload.UserID {
			return srv.failID(s, payload.UserID, fmt.Errorf("user %d: %w", payload.UserID, game.ErrNotMaster))
		}
		if err := g.RestartGame(); err != nil {
			return srv.failID(s, payload.UserID, err)
		}
		srv.saveSnapshot(payload.ChatID, g)
		st, _ := g.Storyteller()
		log.Info().Int64("chat", payload.ChatID).Int("game", g.GameNumber()).Msg("game:restart")
		io.BroadcastToRoom("/", room(payload.ChatID), "game:message", map[string]any{
			"text": fmt.Sprintf("A new game begins! %s is the storyteller.", st.Name),
		})
		return ok(nil)
	})

	// game:end discards the session entirely.
	io.OnEvent("/", "game:end", func(s socketio.Conn, payload struct {
		ChatID int64 `json:"chatId"`
		UserID int64 `json:"userId"`
	}) map[string]any {
		g, err := srv.manager.Get(payload.ChatID)
		if err != nil {
			return srv.failID(s, payload.UserID, err)
		}
		if master, okm := g.Master(); !okm || master.ID != payload.UserID {
			return srv.failID(s, payload.UserID, fmt.Errorf("user %d: %w", payload.UserID, game.ErrNotMaster))
		}
		srv.manager.Remove(payload.ChatID)
		if srv.store != nil {
			if err := srv.store.Delete(payload.ChatID); err != nil {
				log.Error().Err(err).Int64("chat", payload.ChatID).Msg("failed to delete snapshot")
			}
		}
		log.Info().Int64("chat", payload.ChatID).Msg("game:end")
		io.BroadcastToRoom("/", room(payload.ChatID), "game:message", map[string]any{"text": "The game is over. Thanks for playing!"})
		return ok(nil)
	})

	// game:state
	io.OnEvent("/", "game:state", func(s socketio.Conn, payload struct {
		ChatID int64 `json:"chatId"`
	}) map[string]any {
		g, err := srv.manager.Get(payload.ChatID)
		if err != nil {
			return srv.failID(s, 0, err)
		}
		return ok(srv.state(g))
	})

	io.OnError("/", func(s socketio.Conn, e error) {
		log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
	})
	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	go io.Serve()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))
	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}

// finishRound runs the round-end side effects once the closing vote has been
// scored: render the results, then either announce game over or open the
// next round.
func (srv *Server) finishRound(io *socketio.Server, chatID int64, g *game.DixitGame) {
	res := g.LastResults()
	if res == nil {
		return
	}
	if srv.renderer != nil {
		if err := srv.renderer.RenderRound(context.Background(), chatID, res); err != nil {
			log.Error().Err(err).Int64("chat", chatID).Msg("failed to render results")
		}
	}
	stCard := res.Table[res.Storyteller.ID]
	results := map[string]any{
		"clue":            res.Clue,
		"storyteller":     res.Storyteller,
		"storytellerCard": map[string]any{"id": stCard.ID, "url": stCard.URL()},
		"votes":           res.Votes,
		"score":           res.Score,
	}
	if srv.pictures != nil {
		if pic, err := srv.pictures.ProfilePicture(context.Background(), res.Storyteller.ID); err != nil {
			log.Debug().Err(err).Int64("user", res.Storyteller.ID).Msg("no profile picture")
		} else {
			results["storytellerPicture"] = pic
		}
	}
	io.BroadcastToRoom("/", room(chatID), "game:results", results)

	if g.HasEnded() {
		log.Info().Int64("chat", chatID).Int("round", res.RoundNumber).Msg("game over")
		io.BroadcastToRoom("/", room(chatID), "game:ended", map[string]any{"score": res.Score})
		return
	}
	if err := g.NewRound(); err != nil {
		log.Error().Err(err).Int64("chat", chatID).Msg("failed to open new round")
		return
	}
	st, _ := g.Storyteller()
	io.BroadcastToRoom("/", room(chatID), "game:message", map[string]any{
		"text": fmt.Sprintf("Round %d! %s is the storyteller. Please write a clue and pick a card.", g.RoundNumber(), st.Name),
	})
}

func (srv *Server) state(g *game.DixitGame) map[string]any {
	state := map[string]any{
		"gameId":  g.GameID().String(),
		"stage":   string(g.Stage()),
		"round":   g.RoundNumber(),
		"game":    g.GameNumber(),
		"players": g.Players(),
		"waiting": g.Waiting(),
		"score":   g.ScoreBoard(),
	}
	if st, okSt := g.Storyteller(); okSt {
		state["storyteller"] = st
	}
	if clue := g.Clue(); clue != "" {
		state["clue"] = clue
	}
	return state
}

func (srv *Server) saveSnapshot(chatID int64, g *game.DixitGame) {
	if srv.store == nil {
		return
	}
	if err := srv.store.Save(chatID, g.Snapshot()); err != nil {
		log.Error().Err(err).Int64("chat", chatID).Msg("failed to persist session")
	}
}

func ok(extra map[string]any) map[string]any {
	out := map[string]any{"ok": true}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func (srv *Server) fail(s socketio.Conn, u game.User, err error) map[string]any {
	return srv.emitError(s, u.DisplayName(), err)
}

func (srv *Server) failID(s socketio.Conn, userID int64, err error) map[string]any {
	name := "stranger"
	if userID != 0 {
		if _, g, ferr := srv.manager.FindUserGame(userID); ferr == nil {
			for _, p := range g.Players() {
				if p.ID == userID {
					name = p.Name
					break
				}
			}
		}
	}
	return srv.emitError(s, name, err)
}

func (srv *Server) emitError(s socketio.Conn, name string, err error) map[string]any {
	code, msg := userMessage(name, err)
	log.Debug().Str("code", code).Err(err).Msg("command rejected")
	s.Emit("error", map[string]any{"code": code, "message": msg})
	return map[string]any{"error": msg, "code": code}
}

// userMessage turns an error kind into the message shown in the chat.
func userMessage(name string, err error) (code, msg string) {
	switch {
	case errors.Is(err, game.ErrAlreadyInGame):
		return "already_in_game", fmt.Sprintf("Damn you, %s! You have already joined the game!", name)
	case errors.Is(err, game.ErrTooManyPlayers):
		return "too_many_players", "There are only enough cards to supply the players already in, unfortunately!"
	case errors.Is(err, game.ErrNotMaster):
		return "not_master", fmt.Sprintf("Damn you, %s! You are not the master!", name)
	case errors.Is(err, game.ErrGameAlreadyStarted):
		return "already_started", fmt.Sprintf("Damn you, %s! This is not the time to start a game!", name)
	case errors.Is(err, game.ErrPlayerNotFound):
		return "not_playing", fmt.Sprintf("You, %s, are not playing the game!", name)
	case errors.Is(err, game.ErrCardNotFound):
		return "no_such_card", fmt.Sprintf("This card doesn't exist, %s!", name)
	case errors.Is(err, game.ErrPlayerNotStoryteller):
		return "not_storyteller", fmt.Sprintf("Damn you, %s! You are not the storyteller!", name)
	case errors.Is(err, game.ErrPlayerIsStoryteller):
		return "is_storyteller", fmt.Sprintf("Damn you, %s! The storyteller cannot do that!", name)
	case errors.Is(err, game.ErrClueNotGiven):
		return "clue_not_given", fmt.Sprintf("You forgot to give us a clue, %s!", name)
	case errors.Is(err, game.ErrCardHasNoSender):
		return "card_has_no_sender", fmt.Sprintf("This card belongs to no one, %s!", name)
	case errors.Is(err, game.ErrSelfVote):
		return "self_vote", fmt.Sprintf("Damn you, %s! You cannot vote for your own card!", name)
	case errors.Is(err, game.ErrWrongStage):
		return "wrong_stage", fmt.Sprintf("Damn you, %s! This is not the time for that!", name)
	case errors.Is(err, game.ErrGameNotFound):
		return "no_game", fmt.Sprintf("Damn you, %s! First, create a new game with /newgame!", name)
	case errors.Is(err, game.ErrGameExists):
		return "game_exists", fmt.Sprintf("Damn you, %s! There's a game in progress already!", name)
	case errors.Is(err, game.ErrPlayerInOtherGame):
		return "in_other_game", fmt.Sprintf("Damn you, %s! You are in another game already!", name)
	case errors.Is(err, game.ErrHand), errors.Is(err, game.ErrNoCards):
		return "card_supply", "Something went wrong with the card supply, sorry!"
	default:
		return "internal", "Something went wrong, sorry!"
	}
}
