// The apikeygen binary mints a widget/webhook API key: it stores the
// bcrypt hash and prints the plaintext once.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"

	"prospectchat_backend/internal/apikey"
	"prospectchat_backend/internal/config"
	"prospectchat_backend/internal/db"
)

func main() {
	label := flag.String("label", "", "human-readable label for the key")
	flag.Parse()

	if *label == "" {
		panic("usage: apikeygen -label <name>")
	}

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		panic("failed to generate key: " + err.Error())
	}
	key := "pk_" + hex.EncodeToString(raw)

	hash, err := apikey.HashKey(key)
	if err != nil {
		panic("failed to hash key: " + err.Error())
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO widget_api_keys (label, key_hash) VALUES ($1, $2)`,
		*label, hash)
	if err != nil {
		panic("failed to store key: " + err.Error())
	}

	fmt.Printf("API key for %q (store it now, it is not retrievable):\n%s\n", *label, key)
}
