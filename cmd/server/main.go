package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Megaleo/dixit-telegram-bot/internal/config"
	"github.com/Megaleo/dixit-telegram-bot/internal/game"
	"github.com/Megaleo/dixit-telegram-bot/internal/persist"
	"github.com/Megaleo/dixit-telegram-bot/internal/profile"
	"github.com/Megaleo/dixit-telegram-bot/internal/render"
	"github.com/Megaleo/dixit-telegram-bot/internal/ws"
)

const version = "v1.0.0"

func newCmd(cfg *config.Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("DIXIT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "dixit-server",
		Short:         "Session and rules engine for Dixit played over a chat interface.",
		Args:          cobra.ExactArgs(0),
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: DIXIT_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 8080, "port to listen on (env: DIXIT_PORT)")
	fs.StringVar(&cfg.DataDir, "data-dir", "data", "directory for persisted sessions (env: DIXIT_DATA_DIR)")
	fs.StringVar(&cfg.ResultsFile, "results-file", "data/dixit-results.txt", "path of the round results log (env: DIXIT_RESULTS_FILE)")
	fs.StringVar(&cfg.BotToken, "bot-token", "", "Telegram bot token for profile pictures (env: DIXIT_BOT_TOKEN)")
	fs.StringVar(&cfg.TelegramBaseURL, "telegram-base-url", "", "custom Telegram API base URL (env: DIXIT_TELEGRAM_BASE_URL)")
	fs.StringVar(&cfg.EndCriterion, "end-criterion", string(game.EndLastCard), "end criterion: LastCard, Points, Rounds or Endless (env: DIXIT_END_CRITERION)")
	fs.IntVar(&cfg.EndThreshold, "end-threshold", 30, "threshold for the Points and Rounds criteria (env: DIXIT_END_THRESHOLD)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "display debug output (env: DIXIT_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("dixit-server {{.Version}}\n")

	return cmd
}

func serve(cfg *config.Config) error {
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	log.Logger = log.Output(cw)
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") {
			return
		}
		log.Info().Str("path", path).Int("status", c.Writer.Status()).Dur("dur", time.Since(start)).Msg("http")
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})

	store, err := persist.NewStore(cfg.DataDir)
	if err != nil {
		return err
	}

	manager := game.NewManager()
	restoreSessions(manager, store)

	renderer := render.NewTextRenderer(cfg.ResultsFile)
	sock := ws.New(manager, store, renderer, cfg.Criterion(), cfg.EndThreshold)
	if cfg.BotToken != "" {
		sock.SetPictureProvider(profile.New(cfg.BotToken, cfg.TelegramBaseURL))
	}
	io := sock.Mount(r)
	defer io.Close()

	// Read-only status API alongside the socket transport.
	r.GET("/api/chats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"chats": manager.ChatIDs()})
	})
	r.GET("/api/chat/:chatId/state", func(c *gin.Context) {
		chatID, err := strconv.ParseInt(c.Param("chatId"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_chat_id"})
			return
		}
		g, err := manager.Get(chatID)
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		out := gin.H{
			"gameId":  g.GameID().String(),
			"stage":   string(g.Stage()),
			"round":   g.RoundNumber(),
			"game":    g.GameNumber(),
			"players": g.Players(),
			"waiting": g.Waiting(),
			"score":   g.ScoreBoard(),
			"ended":   g.HasEnded(),
		}
		c.JSON(http.StatusOK, out)
	})

	log.Info().Str("addr", cfg.Addr()).Msg("listening")
	return r.Run(cfg.Addr())
}

// restoreSessions rehydrates every persisted game so a restart picks up
// running games where they left off.
func restoreSessions(manager *game.GameManager, store *persist.Store) {
	snaps, errs := store.LoadAll()
	for _, err := range errs {
		log.Warn().Err(err).Msg("skipping unreadable snapshot")
	}
	for chatID, snap := range snaps {
		g, err := game.RestoreGame(snap)
		if err != nil {
			log.Warn().Err(err).Int64("chat", chatID).Msg("skipping corrupt snapshot")
			continue
		}
		manager.Restore(chatID, g)
		log.Info().Int64("chat", chatID).Str("stage", string(g.Stage())).Msg("restored session")
	}
}

func main() {
	cfg := &config.Config{}
	if err := newCmd(cfg).Execute(); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
