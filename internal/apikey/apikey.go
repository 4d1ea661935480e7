// Package apikey authenticates machine callers (webhook gateways,
// operator tooling) against hashed API keys stored in Postgres.
package apikey

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"prospectchat_backend/platform/logger"
)

// HeaderName is where callers put their key.
const HeaderName = "X-API-Key"

// cacheTTL bounds how long the hash list is reused before re-reading
// the table, so revocation takes effect quickly without a query per
// request.
const cacheTTL = time.Minute

// Verifier checks presented API keys against the stored bcrypt hashes.
type Verifier struct {
	pool *pgxpool.Pool
	log  *logger.Logger

	mu        sync.Mutex
	hashes    [][]byte
	refreshed time.Time
}

func NewVerifier(pool *pgxpool.Pool, log *logger.Logger) *Verifier {
	return &Verifier{pool: pool, log: log}
}

// Verify reports whether the presented key matches any active hash.
func (v *Verifier) Verify(ctx context.Context, key string) bool {
	if key == "" {
		return false
	}
	hashes, err := v.activeHashes(ctx)
	if err != nil {
		v.log.DatabaseError("load api key hashes", err)
		return false
	}
	for _, h := range hashes {
		if bcrypt.CompareHashAndPassword(h, []byte(key)) == nil {
			return true
		}
	}
	return false
}

func (v *Verifier) activeHashes(ctx context.Context) ([][]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if time.Since(v.refreshed) < cacheTTL && v.hashes != nil {
		return v.hashes, nil
	}

	rows, err := v.pool.Query(ctx,
		`SELECT key_hash FROM widget_api_keys WHERE revoked_at IS NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hashes [][]byte
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		hashes = append(hashes, []byte(h))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	v.hashes = hashes
	v.refreshed = time.Now()
	return hashes, nil
}

// Middleware rejects requests without a valid key.
func (v *Verifier) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !v.Verify(c.Request.Context(), c.GetHeader(HeaderName)) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		c.Next()
	}
}

// HashKey produces the bcrypt hash to store for a new key.
func HashKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
