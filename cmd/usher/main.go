package main

import (
	"fmt"
	"os"
	"time"

	"github.com/ivahaev/timer"
	"github.com/rs/zerolog"

	"github.com/usherd/usher/internal/base"
	"github.com/usherd/usher/internal/crypt"
	"github.com/usherd/usher/internal/handoff"
	"github.com/usherd/usher/internal/login"
	"github.com/usherd/usher/internal/net/host"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()

	conf, err := LoadConfig("usher.json")
	if err != nil {
		log.Fatal().Err(err).Msg("could not load config")
	}

	priv, err := crypt.LoadPrivateKey(conf.PrivateKeyPath)
	if err != nil {
		log.Fatal().Err(err).Msg("could not load private key")
	}

	loginHost, err := host.Listen(fmt.Sprintf("%s:%d", conf.ListenAddress, conf.LoginPort))
	if err != nil {
		log.Fatal().Err(err).Msg("could not bind login service")
	}
	baseHost, err := host.Listen(fmt.Sprintf("%s:%d", conf.ListenAddress, conf.BasePort))
	if err != nil {
		log.Fatal().Err(err).Msg("could not bind base service")
	}

	ttl := time.Duration(conf.HandoffTTLSeconds) * time.Second
	handoffs := handoff.NewRegistry(ttl)
	if ttl > 0 {
		startSweeping(handoffs, ttl, log)
	}

	loginService := login.NewService(loginHost, priv, baseHost.Addr().String(), handoffs, login.Permissive(), conf.MessageOfTheDay, log)
	baseService := base.NewService(baseHost, handoffs, conf.UpdateFrequency, log)

	loginInc := loginHost.Service()
	baseInc := baseHost.Service()

	log.Info().
		Int("login_port", conf.LoginPort).
		Int("base_port", conf.BasePort).
		Msg("server running")

	for {
		select {
		case ev := <-loginInc:
			loginService.HandleEvent(ev)
		case ev := <-baseInc:
			if err := baseService.HandleEvent(ev); err != nil {
				log.Fatal().Err(err).Msg("base service stopped")
			}
		}
	}
}

// startSweeping drops expired handoff entries every half TTL.
func startSweeping(handoffs *handoff.Registry, ttl time.Duration, log zerolog.Logger) {
	var schedule func()
	schedule = func() {
		t := timer.AfterFunc(ttl/2, func() {
			if n := handoffs.Sweep(); n > 0 {
				log.Info().Int("expired", n).Msg("swept abandoned handoffs")
			}
			schedule()
		})
		t.Start()
	}
	schedule()
}
