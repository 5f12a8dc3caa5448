// Package kiosk serves the locker kiosk pages.
//
// The flow itself lives in Controller: every route is a transition over the
// visitor's session.State that answers with a render or a redirect. Server
// adapts it to HTTP by loading and saving the session around each
// transition, rendering views, and pushing live updates to the other open
// pages of the same session.
package kiosk

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/keaganluttrell/lockbox/biometric"
	"github.com/keaganluttrell/lockbox/session"
)

// HealthPath answers liveness probes.
const HealthPath = "/healthz"

// SessionManager loads and persists the visitor session around a request.
type SessionManager interface {
	Load(r *http.Request) (*session.Handle, error)
	Save(w http.ResponseWriter, r *http.Request, h *session.Handle) error
	Flush(w http.ResponseWriter, r *http.Request, h *session.Handle) error
}

// Fingerprint issues the challenge shown on the fingerprint screen.
type Fingerprint interface {
	Begin(ctx context.Context, key string) (*biometric.Challenge, error)
	Cancel(key string)
}

// Options configures a Server. Sessions and Renderer are required.
type Options struct {
	Controller  *Controller
	Sessions    SessionManager
	Renderer    Renderer
	Fingerprint Fingerprint
	Hub         *Hub
}

// Server is the kiosk HTTP handler.
type Server struct {
	controller  *Controller
	sessions    SessionManager
	renderer    Renderer
	fingerprint Fingerprint
	hub         *Hub
	static      http.Handler
	handler     http.Handler
}

// NewServer wires a kiosk server.
func NewServer(opts Options) (*Server, error) {
	if opts.Sessions == nil {
		return nil, errors.New("kiosk: session manager is required")
	}
	if opts.Renderer == nil {
		return nil, errors.New("kiosk: renderer is required")
	}
	if opts.Controller == nil {
		opts.Controller = NewController("")
	}
	if opts.Fingerprint == nil {
		opts.Fingerprint = biometric.Disabled{}
	}
	if opts.Hub == nil {
		opts.Hub = NewHub()
	}

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, err
	}

	s := &Server{
		controller:  opts.Controller,
		sessions:    opts.Sessions,
		renderer:    opts.Renderer,
		fingerprint: opts.Fingerprint,
		hub:         opts.Hub,
		static:      http.StripPrefix("/static/", http.FileServer(http.FS(static))),
	}
	s.handler = chain(http.HandlerFunc(s.route), requestID, accessLog, recoverPanic)
	return s, nil
}

// ServeHTTP handles incoming HTTP requests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Path

	switch {
	case strings.HasPrefix(p, "/static/"):
		s.static.ServeHTTP(w, r)
	case p == LivePath:
		s.handleLive(w, r)
	case p == HealthPath:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok\n"))
	default:
		route, ok := RouteForPath(p)
		if !ok {
			s.notFound(w, r)
			return
		}
		s.dispatch(w, r, route)
	}
}

// notFound redirects "/select" style paths to their slashed route, 404 otherwise.
func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	if route, ok := RouteForPath(r.URL.Path + "/"); ok && r.Method == http.MethodGet {
		http.Redirect(w, r, route.URL(r.URL.Query()), http.StatusMovedPermanently)
		return
	}
	http.NotFound(w, r)
}

// dispatch runs one transition: load session, apply, save, respond.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, route Route) {
	if !route.Allows(r.Method) {
		w.Header().Set("Allow", route.Allow())
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	h, err := s.sessions.Load(r)
	if err != nil {
		s.unavailable(w, err)
		return
	}
	before := h.State.Phase()

	res := s.controller.Handle(route, &h.State, Request{Method: r.Method, Form: r.Form})

	if res.Flush || res.Opened {
		s.fingerprint.Cancel(h.ID)
	}
	if res.Flush {
		err = s.sessions.Flush(w, r, h)
	} else {
		err = s.sessions.Save(w, r, h)
	}
	if err != nil {
		s.unavailable(w, err)
		return
	}

	after := h.State.Phase()
	if res.Opened {
		after = session.Opened
	}
	if before != after {
		log.Printf("kiosk: session %s %s -> %s via %s", h.ShortID(), before, after, route)
	}

	if res.IsRedirect() {
		s.redirect(w, r, h, res)
		return
	}
	if res.View == ViewFingerprint {
		res.Data = s.fingerprintData(r.Context(), h)
	}
	s.render(w, res)
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request, h *session.Handle, res Result) {
	status := http.StatusFound
	if r.Method == http.MethodPost {
		status = http.StatusSeeOther
		if res.Redirect.Replayable() {
			s.hub.Publish(r.Context(), h.ID, Event{Type: EventNavigate, Path: res.Redirect.Path()})
		}
	}
	http.Redirect(w, r, res.Redirect.URL(res.Query), status)
}

func (s *Server) fingerprintData(ctx context.Context, h *session.Handle) FingerprintData {
	ch, err := s.fingerprint.Begin(ctx, h.ID)
	if err != nil {
		log.Printf("kiosk: fingerprint challenge for %s failed: %v", h.ShortID(), err)
		return FingerprintData{}
	}
	return FingerprintData{Challenge: ch}
}

func (s *Server) render(w http.ResponseWriter, res Result) {
	var buf bytes.Buffer
	page := Page{Notice: res.Notice, Data: res.Data, LiveURL: LivePath}
	if err := s.renderer.Render(&buf, res.View, page); err != nil {
		log.Printf("kiosk: render %s failed: %v", res.View, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	buf.WriteTo(w)
}

func (s *Server) unavailable(w http.ResponseWriter, err error) {
	log.Printf("kiosk: session store error: %v", err)
	http.Error(w, "Session store unavailable", http.StatusServiceUnavailable)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("kiosk: listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
