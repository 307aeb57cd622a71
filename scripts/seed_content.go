package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/khoahotran/reel-forge/internal/config"
	"github.com/khoahotran/reel-forge/pkg/auth"
)

// Seeds one content row and prints an operator token for calling the admin API locally.
func main() {
	idea := flag.String("idea", "", "content idea to seed (skipped when empty)")
	contentType := flag.String("type", "reel", "content type: reel or story")
	operator := flag.String("operator", "local-operator", "operator name in the token")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	if *idea != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DB.DSN)
		if err != nil {
			log.Fatalf("cannot connect DB: %v", err)
		}
		defer pool.Close()

		var id int64
		query := `INSERT INTO contents (idea, content_type) VALUES ($1, $2) RETURNING id`
		if err := pool.QueryRow(context.Background(), query, *idea, *contentType).Scan(&id); err != nil {
			log.Fatalf("cannot add content: %v", err)
		}
		fmt.Printf("added content %d: %q\n", id, *idea)
	}

	token, err := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan).GenerateToken(*operator, auth.RoleOperator)
	if err != nil {
		log.Fatalf("cannot issue token: %v", err)
	}
	fmt.Printf("operator token for '%s':\n%s\n", *operator, token)
}
