/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/Seednode/secretsanta/device"
	"github.com/Seednode/secretsanta/groups"
	"github.com/Seednode/secretsanta/models"
	"github.com/Seednode/secretsanta/pairing"
	"github.com/Seednode/secretsanta/reveal"
)

const (
	maxBodySize = 64 << 10
	qrSize      = 320
)

type nameRequest struct {
	Name string `json:"name"`
}

type startRequest struct {
	Name  string `json:"name"`
	Token string `json:"token"`
}

type createResponse struct {
	Code       string      `json:"code"`
	AdminToken string      `json:"admin_token,omitempty"`
	Group      models.View `json:"group"`
}

type joinResponse struct {
	Name  string      `json:"name"`
	Group models.View `json:"group"`
}

type startResponse struct {
	Started bool `json:"started"`
	Pairs   int  `json:"pairs"`
}

// decodeBody reads an optional JSON body into v. An empty body leaves v
// untouched.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	return &badRequestError{err: err}
}

type badRequestError struct {
	err error
}

func (e *badRequestError) Error() string {
	return fmt.Sprintf("invalid request body: %v", e.err)
}

func (a *app) fail(w http.ResponseWriter, r *http.Request, err error) {
	var bad *badRequestError
	if errors.As(err, &bad) {
		writeJSON(a.cfg, w, http.StatusBadRequest, apiError{Error: bad.Error(), Code: "bad_request"})

		return
	}

	writeError(a.cfg, w, r, err)
}

func (a *app) remember(w http.ResponseWriter, r *http.Request, code string, e device.Entry) {
	mem := a.jar.Load(r)
	mem.Remember(code, e)

	if err := a.jar.Save(w, mem); err != nil {
		logf("ERROR: %v", err)
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func serveCreateGroup(a *app) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req nameRequest
		if err := decodeBody(r, &req); err != nil {
			a.fail(w, r, err)

			return
		}

		g, token, err := a.groups.Create(r.Context(), req.Name)
		if err != nil {
			a.fail(w, r, err)

			return
		}

		a.remember(w, r, g.Code, device.Entry{Name: g.AdminName, AdminToken: token})

		logf("GROUPS: Created group %s for %s", g.Code, realIP(r))

		writeJSON(a.cfg, w, http.StatusCreated, createResponse{
			Code:       g.Code,
			AdminToken: token,
			Group:      g.View(),
		})
	}
}

func serveGetGroup(a *app) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		g, err := a.groups.Get(r.Context(), ps.ByName("code"))
		if err != nil {
			a.fail(w, r, err)

			return
		}

		writeJSON(a.cfg, w, http.StatusOK, g.View())
	}
}

func serveJoinGroup(a *app) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		var req nameRequest
		if err := decodeBody(r, &req); err != nil {
			a.fail(w, r, err)

			return
		}

		g, err := a.groups.Join(r.Context(), ps.ByName("code"), req.Name)
		if err != nil {
			a.fail(w, r, err)

			return
		}

		// The stored name is the normalized one; it is always the newest member.
		name := g.Members[len(g.Members)-1]

		a.remember(w, r, g.Code, device.Entry{Name: name})

		writeJSON(a.cfg, w, http.StatusOK, joinResponse{Name: name, Group: g.View()})
	}
}

func serveStartGroup(a *app) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		var req startRequest
		if err := decodeBody(r, &req); err != nil {
			a.fail(w, r, err)

			return
		}

		code := groups.NormalizeCode(ps.ByName("code"))
		known := a.jar.Load(r)[code]

		token := req.Token
		if token == "" {
			token = bearerToken(r)
		}
		if token == "" {
			token = known.AdminToken
		}

		pairs, err := a.groups.Start(r.Context(), code, groups.Requester{Name: req.Name, Token: token})
		if err != nil {
			a.fail(w, r, err)

			return
		}

		logf("GROUPS: Started group %s with %d pairs", code, len(pairs))

		// Only the count leaves the server; each member reveals their own match.
		writeJSON(a.cfg, w, http.StatusOK, startResponse{Started: true, Pairs: len(pairs)})
	}
}

func serveReveal(a *app) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := groups.NormalizeCode(ps.ByName("code"))

		g, err := a.groups.Get(r.Context(), code)
		if err != nil {
			a.fail(w, r, err)

			return
		}

		name := r.URL.Query().Get("name")
		if name == "" {
			name = a.jar.Load(r)[code].Name
		}

		res := reveal.NewTracker(name).SetGroup(g)
		if res.Started && !res.Assigned {
			a.metrics.Reveal(groups.Code(reveal.ErrNotAssigned))
			a.fail(w, r, reveal.ErrNotAssigned)

			return
		}
		if res.Started {
			a.metrics.Reveal("ok")
		}

		writeJSON(a.cfg, w, http.StatusOK, res)
	}
}

func serveQR(a *app) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		g, err := a.groups.Get(r.Context(), ps.ByName("code"))
		if err != nil {
			a.fail(w, r, err)

			return
		}

		png, err := qrcode.Encode(joinURL(a.cfg, r, g.Code), qrcode.Medium, qrSize)
		if err != nil {
			a.fail(w, r, fmt.Errorf("qr generation failed: %w", err))

			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		securityHeaders(a.cfg, w)

		_, _ = w.Write(png)
	}
}

type quickRequest struct {
	Pairs []pairing.Pair `json:"pairs"`
	Names []string       `json:"names"`
}

type quickCreated struct {
	GameID string `json:"gameId"`
}

type quickPairs struct {
	Pairs []pairing.Pair `json:"pairs"`
}

type quickReveal struct {
	Receiver string `json:"receiver"`
}

func serveQuickCreate(a *app) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req quickRequest
		if err := decodeBody(r, &req); err != nil {
			a.fail(w, r, err)

			return
		}

		var (
			g   *models.Group
			err error
		)

		switch {
		case len(req.Pairs) > 0:
			g, err = a.groups.Import(r.Context(), req.Pairs)
		default:
			g, err = a.groups.Quick(r.Context(), req.Names)
		}
		if err != nil {
			a.fail(w, r, err)

			return
		}

		writeJSON(a.cfg, w, http.StatusOK, quickCreated{GameID: g.Code})
	}
}

func serveQuickGet(a *app) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		q := r.URL.Query()

		g, err := a.groups.Get(r.Context(), q.Get("gameId"))
		if errors.Is(err, groups.ErrNotFound) || (err == nil && !g.Started) {
			writeJSON(a.cfg, w, http.StatusNotFound, apiError{Error: "Invalid Game", Code: "not_found"})

			return
		}
		if err != nil {
			a.fail(w, r, err)

			return
		}

		name := q.Get("name")
		if name == "" {
			writeJSON(a.cfg, w, http.StatusOK, quickPairs{Pairs: g.Pairs})

			return
		}

		receiver, err := reveal.Resolve(g.Pairs, name)
		a.metrics.Reveal(groups.Code(err))
		if err != nil {
			a.fail(w, r, err)

			return
		}

		writeJSON(a.cfg, w, http.StatusOK, quickReveal{Receiver: receiver})
	}
}

func registerGroupRoutes(a *app, mux *httprouter.Router) {
	prefix := a.cfg.prefix

	mux.GET(prefix+"/g/:code", serveGroupPage(a))

	mux.POST(prefix+"/api/groups", serveCreateGroup(a))
	mux.GET(prefix+"/api/groups/:code", serveGetGroup(a))
	mux.POST(prefix+"/api/groups/:code/join", serveJoinGroup(a))
	mux.POST(prefix+"/api/groups/:code/start", serveStartGroup(a))
	mux.GET(prefix+"/api/groups/:code/reveal", serveReveal(a))
	mux.GET(prefix+"/api/groups/:code/qr", serveQR(a))
	mux.GET(prefix+"/api/groups/:code/ws", serveGroupSocket(a))
}

func registerQuickGame(a *app, mux *httprouter.Router) {
	mux.POST(a.cfg.prefix+"/api/game", serveQuickCreate(a))
	mux.GET(a.cfg.prefix+"/api/game", serveQuickGet(a))
}
