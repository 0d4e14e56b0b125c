/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/Seednode/secretsanta/groups"
)

const pageStyle = `body{font-family:sans-serif;max-width:40rem;margin:2rem auto;padding:0 1rem;line-height:1.5}` +
	`code{background:#eee;padding:0 .25rem}img{display:block;margin:1rem 0}`

func page(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(`<meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
	htmlBody.WriteString(`<style>` + pageStyle + `</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head><body>", html.EscapeString(title)))
	htmlBody.WriteString(body)
	htmlBody.WriteString(`</body></html>`)

	return htmlBody.String()
}

func writePage(cfg *Config, w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	_, _ = w.Write([]byte(body))
}

func serveHomePage(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		api := cfg.prefix + "/api"

		var b strings.Builder
		b.WriteString(`<h1>Secret Santa</h1>`)
		b.WriteString(`<p>Everyone gifts exactly one other person, nobody draws themselves, and each person only ever sees their own match.</p>`)
		b.WriteString(`<h2>Across devices</h2><ol>`)
		b.WriteString(fmt.Sprintf(`<li>Create a group: <code>POST %s/groups {"name":"you"}</code></li>`, api))
		b.WriteString(fmt.Sprintf(`<li>Share the code. Others join: <code>POST %s/groups/CODE/join {"name":"them"}</code></li>`, api))
		b.WriteString(fmt.Sprintf(`<li>The creator starts the draw: <code>POST %s/groups/CODE/start</code></li>`, api))
		b.WriteString(fmt.Sprintf(`<li>Each person reveals: <code>GET %s/groups/CODE/reveal?name=them</code></li>`, api))
		b.WriteString(`</ol>`)
		b.WriteString(`<h2>On one device</h2><p>Run <code>secretsanta draw --reveal Ann,Bob,Cy</code> and pass the phone around.</p>`)

		writePage(cfg, w, http.StatusOK, page("Secret Santa", b.String()))
	}
}

func serveGroupPage(a *app) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		g, err := a.groups.Get(r.Context(), ps.ByName("code"))
		if err != nil {
			status := statusFor(err)
			writePage(a.cfg, w, status, newPage(http.StatusText(status), html.EscapeString(err.Error())))

			return
		}

		view := g.View()
		mem := a.jar.Load(r)

		var b strings.Builder
		b.WriteString(fmt.Sprintf(`<h1>Group <code>%s</code></h1>`, html.EscapeString(view.Code)))
		if view.Admin != "" {
			b.WriteString(fmt.Sprintf(`<p>Organised by %s.</p>`, html.EscapeString(view.Admin)))
		}

		b.WriteString(`<h2>Members</h2><ul>`)
		for _, m := range view.Members {
			b.WriteString(`<li>` + html.EscapeString(m) + `</li>`)
		}
		b.WriteString(`</ul>`)

		switch {
		case !view.Started:
			b.WriteString(`<p>Waiting for the draw. Scan to join:</p>`)
			b.WriteString(fmt.Sprintf(`<img src="%s/api/groups/%s/qr" alt="QR code" width="320" height="320">`, a.cfg.prefix, view.Code))
		case mem[view.Code].Name != "":
			b.WriteString(fmt.Sprintf(`<p>The draw is done. <a href="%s/api/groups/%s/reveal">Reveal your match</a>.</p>`, a.cfg.prefix, view.Code))
		default:
			b.WriteString(`<p>The draw is done.</p>`)
		}

		writePage(a.cfg, w, http.StatusOK, page("Group "+view.Code, b.String()))
	}
}

func serveHealthCheck(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(cfg, w)

		_, _ = w.Write([]byte("Ok\n"))
	}
}

func serveRobots(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		data := `User-agent: *
Disallow: ` + cfg.prefix + `/g/
Disallow: ` + cfg.prefix + `/api/

User-agent: GPTBot
Disallow: /

User-agent: CCBot
Disallow: /`

		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		_, _ = w.Write([]byte(data))
	}
}

func joinURL(cfg *Config, r *http.Request, code string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	return scheme + "://" + r.Host + cfg.prefix + "/g/" + groups.NormalizeCode(code)
}
