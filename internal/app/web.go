// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/relabs-tech/inertial_simulator/internal/display"
	"github.com/relabs-tech/inertial_simulator/internal/orientation"
	"github.com/relabs-tech/inertial_simulator/internal/sampler"
	"github.com/relabs-tech/inertial_simulator/internal/sim"
)

const (
	shutdownTimeout = 2 * time.Second
	wsWriteTimeout  = time.Second
	maxBodyBytes    = 1 << 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WebServer exposes the clock over HTTP: JSON readings and input, a
// websocket reading stream and the rendered panel.
type WebServer struct {
	addr  string
	clock *sim.Clock
	log   *zap.Logger
}

func NewWebServer(port int, clock *sim.Clock, log *zap.Logger) *WebServer {
	return &WebServer{
		addr:  fmt.Sprintf(":%d", port),
		clock: clock,
		log:   log.With(zap.String("component", "web")),
	}
}

// Handler returns the routes.
func (s *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/readings", s.handleReadings)
	mux.HandleFunc("GET /api/orientation", s.handleGetOrientation)
	mux.HandleFunc("POST /api/orientation", s.handleSetOrientation)
	mux.HandleFunc("POST /api/target", s.handleSetTarget)
	mux.HandleFunc("GET /api/sensors/{name}", s.handleGetSensor)
	mux.HandleFunc("POST /api/sensors/{name}", s.handleSetSensor)
	mux.HandleFunc("POST /api/spring", s.handleSetSpring)
	mux.HandleFunc("GET /api/diagnostics", s.handleDiagnostics)
	mux.HandleFunc("GET /panel.png", s.handlePanel)
	mux.HandleFunc("GET /ws", s.handleWS)
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *WebServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("web listen %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *WebServer) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.log.Info("web server listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		return fmt.Errorf("web server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server: %w", err)
	}
	s.log.Info("web server stopped")
	return nil
}

func (s *WebServer) handleReadings(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.clock.Latest())
}

func (s *WebServer) handleGetOrientation(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.clock.Input().Pose)
}

func (s *WebServer) handleSetOrientation(w http.ResponseWriter, r *http.Request) {
	var p orientation.Pose
	if !s.readJSON(w, r, &p) {
		return
	}
	s.clock.SetPose(p)
	s.writeJSON(w, http.StatusOK, s.clock.Input().Pose)
}

func (s *WebServer) handleSetTarget(w http.ResponseWriter, r *http.Request) {
	var t TargetInput
	if !s.readJSON(w, r, &t) {
		return
	}
	s.clock.SetScreenTarget(t.X, t.Z)
	w.WriteHeader(http.StatusNoContent)
}

func (s *WebServer) handleGetSensor(w http.ResponseWriter, r *http.Request) {
	settings, err := s.clock.SensorSettings(r.PathValue("name"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, settings)
}

// sensorPatch is the body of a sensor update. Absent fields keep their
// current value; delay names a preset period and wins over period_ms.
type sensorPatch struct {
	Enabled   *bool   `json:"enabled"`
	PeriodMs  *int    `json:"period_ms"`
	Delay     *string `json:"delay"`
	Averaging *bool   `json:"averaging"`
}

func (p sensorPatch) apply(settings sim.SensorSettings) (sim.SensorSettings, error) {
	if p.Enabled != nil {
		settings.Enabled = *p.Enabled
	}
	if p.PeriodMs != nil {
		if *p.PeriodMs < 0 {
			return settings, errors.New("period_ms must not be negative")
		}
		settings.PeriodMs = *p.PeriodMs
	}
	if p.Delay != nil {
		d, err := sampler.ParseDelay(*p.Delay)
		if err != nil {
			return settings, err
		}
		settings.PeriodMs = int(d / time.Millisecond)
	}
	if p.Averaging != nil {
		settings.Averaging = *p.Averaging
	}
	return settings, nil
}

func (s *WebServer) handleSetSensor(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	current, err := s.clock.SensorSettings(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	var patch sensorPatch
	if !s.readJSON(w, r, &patch) {
		return
	}
	settings, err := patch.apply(current)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.clock.ConfigureSensor(name, settings); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, settings)
}

func (s *WebServer) handleSetSpring(w http.ResponseWriter, r *http.Request) {
	var spring sim.Spring
	if !s.readJSON(w, r, &spring) {
		return
	}
	if spring.K < 0 || spring.Damping < 0 {
		http.Error(w, "spring constants must not be negative", http.StatusBadRequest)
		return
	}
	s.clock.SetSpring(spring)
	w.WriteHeader(http.StatusNoContent)
}

func (s *WebServer) handleDiagnostics(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.clock.Diagnostics())
}

// handlePanel renders ?content= (magnetometer by default) as PNG.
func (s *WebServer) handlePanel(w http.ResponseWriter, r *http.Request) {
	content := r.URL.Query().Get("content")
	if content == "" {
		content = display.ContentMagnetometer
	}

	reading := s.clock.Latest()
	var buf bytes.Buffer
	if err := display.WritePNG(&buf, content, reading, reading.Tick > 0); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.log.Debug("panel write error", zap.Error(err))
	}
}

// handleWS streams every published reading as JSON until the peer leaves.
func (s *WebServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade error", zap.Error(err))
		return
	}
	defer conn.Close()

	sub := s.clock.Subscribe()
	defer sub.Close()

	// The reader only watches for the close frame.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.log.Debug("websocket read error", zap.Error(err))
				}
				return
			}
		}
	}()

	send := func(v any) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(v); err != nil {
			s.log.Debug("websocket write error", zap.Error(err))
			return false
		}
		return true
	}

	if !send(s.clock.Latest()) {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case <-gone:
			return
		case reading := <-sub.C:
			if !send(reading) {
				return
			}
		}
	}
}

func (s *WebServer) readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.log.Debug("request decode error", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (s *WebServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("json encode error", zap.Error(err))
	}
}
