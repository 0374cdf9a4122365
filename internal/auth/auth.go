// Package auth stores the bearer token sent to the to-do API.
package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Makepad-fr/tada/internal/store/jsonstore"
)

const (
	credFileName = "credentials.json"
	TokenEnv     = "TADA_TOKEN"
)

type TokenInfo struct {
	Token     string     `json:"token"`
	Source    string     `json:"source"`     // "env" | "file"
	CreatedAt time.Time  `json:"created_at"` // when we saved to file
	ExpiresAt *time.Time `json:"expires_at"` // optional (JWT or server-provided)
}

func credsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".tada"), nil
}

func credFilePath() (string, error) {
	dir, err := credsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, credFileName), nil
}

// GetToken returns the configured token, or nil when not logged in.
func GetToken() (*TokenInfo, error) {
	// 1) env override
	env := strings.TrimSpace(os.Getenv(TokenEnv))
	if env != "" {
		return &TokenInfo{Token: stripBearer(env), Source: "env"}, nil
	}

	// 2) file
	p, err := credFilePath()
	if err != nil {
		return nil, err
	}
	var ti TokenInfo
	found, err := jsonstore.Load(p, &ti)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	if !found {
		return nil, nil
	}
	ti.Token = stripBearer(ti.Token)
	return &ti, nil
}

// SetToken saves token under ~/.tada with owner-only permissions.
// When expires is nil and the token is a JWT carrying exp, that is used.
func SetToken(token string, expires *time.Time) error {
	token = stripBearer(strings.TrimSpace(token))
	if token == "" {
		return fmt.Errorf("empty token")
	}
	if expires == nil {
		if c, err := Claims(token); err == nil {
			if exp, err := c.GetExpirationTime(); err == nil && exp != nil {
				t := exp.Time
				expires = &t
			}
		}
	}
	p, err := credFilePath()
	if err != nil {
		return err
	}
	ti := TokenInfo{
		Token:     token,
		Source:    "file",
		CreatedAt: time.Now(),
		ExpiresAt: expires,
	}
	if err := jsonstore.Save(p, ti, 0o600); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

func DeleteToken() error {
	p, err := credFilePath()
	if err != nil {
		return err
	}
	return jsonstore.Remove(p)
}

// Claims decodes a JWT payload without verifying its signature.
// Opaque tokens return an error.
func Claims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("not a jwt: %w", err)
	}
	return claims, nil
}

func stripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}
