/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package device remembers, per browser, which name it joined each group
// under and any admin token it was handed.
//
// The cookie is authenticated and encrypted, but it is a convenience only:
// admin tokens read back from it are still verified by the server.
package device

import (
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/hkdf"
)

const (
	CookieName = "secretsanta_device"
	maxGroups  = 20
	maxAge     = 90 * 24 * time.Hour
)

// Entry is what one device knows about one group.
type Entry struct {
	Name       string `json:"n,omitempty"`
	AdminToken string `json:"a,omitempty"`
	Seen       int64  `json:"s"`
}

// Memory maps group codes to entries.
type Memory map[string]Entry

type Jar struct {
	sc     *securecookie.SecureCookie
	secure bool
	path   string
}

// NewJar derives independent signing and encryption keys from secret.
func NewJar(secret []byte, path string, secure bool) (*Jar, error) {
	kdf := hkdf.New(sha256.New, secret, nil, []byte("secretsanta device cookie"))

	hashKey := make([]byte, 32)
	blockKey := make([]byte, 32)
	if _, err := io.ReadFull(kdf, hashKey); err != nil {
		return nil, fmt.Errorf("failed to derive hash key: %w", err)
	}
	if _, err := io.ReadFull(kdf, blockKey); err != nil {
		return nil, fmt.Errorf("failed to derive block key: %w", err)
	}

	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(maxAge.Seconds()))
	sc.SetSerializer(securecookie.JSONEncoder{})

	if path == "" {
		path = "/"
	}

	return &Jar{sc: sc, secure: secure, path: path}, nil
}

// Load returns the device memory. A missing, expired, or tampered cookie
// yields an empty Memory.
func (j *Jar) Load(r *http.Request) Memory {
	mem := Memory{}

	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return mem
	}

	if err := j.sc.Decode(CookieName, c.Value, &mem); err != nil {
		return Memory{}
	}

	return mem
}

// Save writes mem back, dropping the least recently seen groups beyond
// the limit.
func (j *Jar) Save(w http.ResponseWriter, mem Memory) error {
	mem.prune(maxGroups)

	value, err := j.sc.Encode(CookieName, mem)
	if err != nil {
		return fmt.Errorf("failed to encode device cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     j.path,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// Remember merges e into the entry for code. Empty fields do not erase
// existing ones.
func (m Memory) Remember(code string, e Entry) {
	cur := m[code]
	if e.Name != "" {
		cur.Name = e.Name
	}
	if e.AdminToken != "" {
		cur.AdminToken = e.AdminToken
	}
	cur.Seen = time.Now().Unix()
	m[code] = cur
}

func (m Memory) prune(limit int) {
	if len(m) <= limit {
		return
	}

	codes := make([]string, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		return m[codes[i]].Seen > m[codes[j]].Seen
	})

	for _, code := range codes[limit:] {
		delete(m, code)
	}
}
