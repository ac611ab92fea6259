package config

import (
	"fmt"
	"net"
	"strconv"

	"github.com/Megaleo/dixit-telegram-bot/internal/game"
)

type Config struct {
	Bind            string
	Port            int
	DataDir         string
	ResultsFile     string
	BotToken        string
	TelegramBaseURL string
	EndCriterion    string
	EndThreshold    int
	Verbose         bool
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if _, err := game.ParseEndCriterion(c.EndCriterion); err != nil {
		return err
	}
	return nil
}

// Criterion returns the validated end criterion.
func (c *Config) Criterion() game.EndCriterion {
	criterion, err := game.ParseEndCriterion(c.EndCriterion)
	if err != nil {
		return game.EndLastCard
	}
	return criterion
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}
