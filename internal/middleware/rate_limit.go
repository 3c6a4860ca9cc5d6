package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	LoginMaxAttempts = 5
	LoginCooldown    = 15 * time.Minute

	APIMaxRequests = 100 // par minute et par IP
	APICooldown    = 1 * time.Minute
)

// RateLimiter compte les tentatives par identité dans Redis, avec
// éviction par TTL. L'état vit dans le store partagé, pas dans le
// processus : plusieurs instances voient les mêmes compteurs.
type RateLimiter struct {
	client *redis.Client
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// LoginRateLimit bloque une identité (email) après LoginMaxAttempts échecs
// de connexion, pour la durée de LoginCooldown.
func (rl *RateLimiter) LoginRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Lire le body sans le consommer
		bodyBytes, _ := io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		var input struct {
			Email string `json:"email"`
		}
		if err := json.Unmarshal(bodyBytes, &input); err != nil || input.Email == "" {
			c.Next()
			return
		}

		ctx := context.Background()
		key := "login_attempts:" + input.Email
		cooldownKey := "login_cooldown:" + input.Email

		if rl.client.Exists(ctx, cooldownKey).Val() > 0 {
			ttl := rl.client.TTL(ctx, cooldownKey).Val()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop de tentatives échouées. Réessayez dans %d minutes", int(ttl.Minutes())+1),
				"code":        "RATE_LIMITED",
				"retry_after": int(ttl.Seconds()),
			})
			c.Abort()
			return
		}

		attempts, _ := rl.client.Get(ctx, key).Int()
		if attempts >= LoginMaxAttempts {
			rl.client.Set(ctx, cooldownKey, "1", LoginCooldown)
			rl.client.Del(ctx, key)

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop de tentatives échouées. Compte bloqué pendant %d minutes", int(LoginCooldown.Minutes())),
				"code":        "RATE_LIMITED",
				"retry_after": int(LoginCooldown.Seconds()),
			})
			c.Abort()
			return
		}

		c.Next()

		// Échec de connexion : on incrémente. Succès : on repart de zéro.
		switch c.Writer.Status() {
		case http.StatusUnauthorized:
			rl.client.Incr(ctx, key)
			rl.client.Expire(ctx, key, LoginCooldown)
		case http.StatusOK:
			rl.client.Del(ctx, key, cooldownKey)
		}
	}
}

// APIRateLimit limite le nombre de requêtes par IP (général).
func (rl *RateLimiter) APIRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		key := "api_requests:" + c.ClientIP()

		requests, _ := rl.client.Get(ctx, key).Int()
		if requests >= APIMaxRequests {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Trop de requêtes. Réessayez dans 1 minute",
				"code":        "RATE_LIMITED",
				"retry_after": 60,
			})
			c.Abort()
			return
		}

		pipe := rl.client.Pipeline()
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, APICooldown)
		pipe.Exec(ctx)

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", APIMaxRequests))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", APIMaxRequests-requests-1))

		c.Next()
	}
}
