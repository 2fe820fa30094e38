// Command admintoken prints a signed admin JWT for the /admin and
// /notifications endpoints.  It reads ADMIN_JWT_SECRET and
// ADMIN_TOKEN_TTL the same way the server does.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/facility-reservation/internal/config"
	"github.com/iliyamo/facility-reservation/internal/router"
	"github.com/iliyamo/facility-reservation/internal/utils"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	subject := flag.String("sub", "admin", "token subject, usually the operator's e-mail")
	role := flag.String("role", router.RoleAdmin, "role claim")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to ADMIN_TOKEN_TTL)")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		log.Fatal().Err(err).Msg("load .env")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if *ttl <= 0 {
		*ttl = cfg.AdminTokenTTL
	}
	if cfg.AdminJWTSecret == "" {
		log.Fatal().Msg("ADMIN_JWT_SECRET is not set")
	}

	tok, err := utils.NewAccessToken(cfg.AdminJWTSecret, *subject, *role, *ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("sign token")
	}
	log.Info().Str("sub", *subject).Time("expires", tok.Exp).Msg("admin token issued")
	fmt.Println(tok.Token)
}
