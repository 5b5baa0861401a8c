package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/creachadair/taskgroup"
	"github.com/gorilla/websocket"

	"github.com/sudotouchwoman/tablet-relay/pkg/client"
	"github.com/sudotouchwoman/tablet-relay/pkg/command"
	"github.com/sudotouchwoman/tablet-relay/pkg/common"
	"github.com/sudotouchwoman/tablet-relay/pkg/downstream"
	"github.com/sudotouchwoman/tablet-relay/pkg/middleware"
	"github.com/sudotouchwoman/tablet-relay/pkg/netinfo"
)

const maxControlBody = 4 << 10

var ErrMissingSender = errors.New("robot and servo senders are required")

type Options struct {
	Robot RobotSender
	Servo ServoSender
	// RobotHost and ServoHost are reported as configured by /network-info.
	RobotHost string
	ServoHost string
	// StaticDir, if set, is served for plain GET requests to /.
	StaticDir string
	// Info defaults to netinfo.NewCollector().
	Info *netinfo.Collector
}

// RelayServer owns the peer registry and wires HTTP commands to the
// senders and peer messages to the broadcaster.
type RelayServer struct {
	ctx      context.Context
	cancel   context.CancelFunc
	opts     Options
	dispatch *Dispatcher
	registry *client.Registry
	upgrader websocket.Upgrader
	info     *netinfo.Collector
}

func New(ctx context.Context, opts Options) (*RelayServer, error) {
	if opts.Robot == nil || opts.Servo == nil {
		return nil, ErrMissingSender
	}
	ctx, cancel := context.WithCancel(ctx)
	info := opts.Info
	if info == nil {
		info = netinfo.NewCollector()
	}
	return &RelayServer{
		ctx:      ctx,
		cancel:   cancel,
		opts:     opts,
		dispatch: &Dispatcher{Robot: opts.Robot, Servo: opts.Servo},
		registry: client.NewRegistry(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// browsers connect from whatever address the tablet has
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		info: info,
	}, nil
}

func (rs *RelayServer) Registry() *client.Registry {
	return rs.registry
}

func (rs *RelayServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /control", rs.handleControl)
	mux.HandleFunc("GET /health", rs.handleHealth)
	mux.HandleFunc("GET /network-info", rs.handleNetworkInfo)
	mux.HandleFunc("/ws", rs.SocketHandler)

	var static http.Handler = http.NotFoundHandler()
	if rs.opts.StaticDir != "" {
		static = http.FileServer(http.Dir(rs.opts.StaticDir))
	}
	// peers may also upgrade on any other path of the same port
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) {
			rs.SocketHandler(w, r)
			return
		}
		static.ServeHTTP(w, r)
	})
	return middleware.Logging(middleware.CORS(mux))
}

// ListenAndServe serves on addr until ctx ends, then shuts the HTTP
// server down and disconnects every peer.
func (rs *RelayServer) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           rs.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g := taskgroup.New(nil)
	serveErr := make(chan error, 1)
	g.Go(func() error {
		log.Printf("Relay listening on http://%s", addr)
		err := srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		serveErr <- err
		return err
	})
	var err error
	select {
	case <-ctx.Done():
	case err = <-serveErr:
	}
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := srv.Shutdown(sctx); serr != nil {
		log.Println("Error on http shutdown:", serr)
	}
	rs.Close()
	g.Wait()
	return err
}

// Close disconnects and unregisters every peer and stops running
// socket handlers.
func (rs *RelayServer) Close() {
	rs.cancel()
	for p := range rs.registry.All() {
		if c, ok := p.(*client.Client); ok {
			c.CloseWith(websocket.CloseGoingAway, "server shutting down")
		}
		rs.registry.Remove(p)
	}
}

type controlRequest struct {
	Command string `json:"command"`
}

func targetName(k command.Kind) string {
	if k == command.Servo {
		return downstream.TargetArduino
	}
	return downstream.TargetRobot
}

func (rs *RelayServer) handleControl(w http.ResponseWriter, r *http.Request) {
	id := common.RequestID(r.Context())
	var req controlRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxControlBody)).Decode(&req); err != nil {
		log.Println("Error parsing request body:", err, " Request:", id)
		writeErr(w, http.StatusBadRequest, "Failed to parse request body")
		return
	}
	log.Printf("Received command: %s Request: %s", req.Command, id)

	// the downstream call outlives a disconnected browser, so that
	// a STOP is still delivered; the sender timeout bounds it
	ctx := context.WithoutCancel(r.Context())
	kind, err := rs.dispatch.Dispatch(ctx, req.Command)
	switch {
	case errors.Is(err, ErrInvalidCommand):
		writeErr(w, http.StatusBadRequest, "Invalid command")
	case err != nil:
		log.Printf("Error communicating with %s: %v Request: %s", targetName(kind), err, id)
		writeErr(w, http.StatusInternalServerError, "Communication error with "+targetName(kind))
	default:
		log.Printf("Command %s sent successfully Request: %s", req.Command, id)
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func (rs *RelayServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"valetudo": rs.opts.Robot.Base(),
		"arduino":  rs.opts.Servo.Base(),
	})
}

type networkInfo struct {
	Tablet           netinfo.Host       `json:"tablet"`
	ConnectedDevices []netinfo.Neighbor `json:"connectedDevices"`
	WebsocketClients int                `json:"websocketClients"`
	Config           hostsInfo          `json:"config"`
}

type hostsInfo struct {
	ValetudoHost string `json:"valetudoHost"`
	ArduinoHost  string `json:"arduinoHost"`
}

func (rs *RelayServer) handleNetworkInfo(w http.ResponseWriter, r *http.Request) {
	host, err := rs.info.Host()
	if err != nil {
		log.Println("Error getting network info:", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Failed to get network information",
			"message": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, networkInfo{
		Tablet:           host,
		ConnectedDevices: rs.info.Neighbors(),
		WebsocketClients: rs.registry.Len(),
		Config: hostsInfo{
			ValetudoHost: rs.opts.RobotHost,
			ArduinoHost:  rs.opts.ServoHost,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
