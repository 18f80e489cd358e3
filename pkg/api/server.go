/*
Framolux Core
Copyright (C) 2025 The Framolux Authors

This file is part of Framolux Core.

Framolux Core is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Framolux Core is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Framolux Core.  If not, see <http://www.gnu.org/licenses/>.
*/

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/http/httputil"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/framolux/framolux-core/pkg/api/methods"
	"github.com/framolux/framolux-core/pkg/api/middleware"
	"github.com/framolux/framolux-core/pkg/api/models"
	"github.com/framolux/framolux-core/pkg/api/models/requests"
	"github.com/framolux/framolux-core/pkg/api/validation"
	"github.com/framolux/framolux-core/pkg/config"
	"github.com/framolux/framolux-core/pkg/helpers/syncutil"
	"github.com/framolux/framolux-core/pkg/matrix"
	"github.com/framolux/framolux-core/pkg/shared/httpclient"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"
)

var (
	JSONRPCErrorParseError     = models.ErrorObject{Code: -32700, Message: "Parse error"}
	JSONRPCErrorInvalidRequest = models.ErrorObject{Code: -32600, Message: "Invalid Request"}
	JSONRPCErrorMethodNotFound = models.ErrorObject{Code: -32601, Message: "Method not found"}
	JSONRPCErrorInvalidParams  = models.ErrorObject{Code: -32602, Message: "Invalid params"}
	JSONRPCErrorInternalError  = models.ErrorObject{Code: -32603, Message: "Internal error"}
)

// JSONRPCServerErrorCode is used for every error a method returns.
const JSONRPCServerErrorCode = -32000

const (
	// MaxRequestSize fits a full 1000-frame animation in JSON.
	MaxRequestSize = 16 << 20
	// NotificationBuffer is the capacity callers should give the
	// notification channel.
	NotificationBuffer = 256
	shutdownTimeout    = 5 * time.Second
)

var ErrMethodExists = errors.New("method already registered")

type MethodFunc func(requests.RequestEnv) (any, error)

type MethodMap struct {
	methods map[string]MethodFunc
	mu      syncutil.RWMutex
}

// NewMethodMap returns a map with every built-in method registered.
func NewMethodMap() *MethodMap {
	m := &MethodMap{methods: make(map[string]MethodFunc)}
	for name, fn := range defaultMethods {
		m.methods[name] = fn
	}
	return m
}

func (m *MethodMap) AddMethod(name string, fn MethodFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	name = strings.ToLower(name)
	if _, ok := m.methods[name]; ok {
		return fmt.Errorf("%w: %s", ErrMethodExists, name)
	}
	m.methods[name] = fn
	return nil
}

func (m *MethodMap) GetMethod(name string) (MethodFunc, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn, ok := m.methods[strings.ToLower(name)]
	return fn, ok
}

var defaultMethods = map[string]MethodFunc{
	models.MethodVersion:        methods.HandleVersion,
	models.MethodSettings:       methods.HandleSettings,
	models.MethodSettingsUpdate: methods.HandleSettingsUpdate,
	// devices
	models.MethodDevices:          methods.HandleDevices,
	models.MethodDevicesScan:      methods.HandleDevicesScan,
	models.MethodDevicesConnect:   methods.HandleDevicesConnect,
	models.MethodDevicesSelect:    methods.HandleDevicesSelect,
	models.MethodDevicesDeselect:  methods.HandleDevicesDeselect,
	models.MethodDevicesStatus:    methods.HandleDevicesStatus,
	models.MethodDevicesCheck:     methods.HandleDevicesCheck,
	models.MethodDevicesFrames:    methods.HandleDevicesFrames,
	models.MethodDevicesClear:     methods.HandleDevicesClear,
	models.MethodDevicesRename:    methods.HandleDevicesRename,
	models.MethodDevicesPower:     methods.HandleDevicesPower,
	models.MethodDevicesKnown:     methods.HandleDevicesKnown,
	models.MethodDevicesForget:    methods.HandleDevicesForget,
	models.MethodDevicesAnimation: methods.HandleDevicesAnimation,
	// upload
	models.MethodUploadFrame:     methods.HandleUploadFrame,
	models.MethodUploadAnimation: methods.HandleUploadAnimation,
	models.MethodUploadTest:      methods.HandleUploadTest,
	models.MethodUploadProgress:  methods.HandleUploadProgress,
	// codec
	models.MethodCodecEncode: methods.HandleCodecEncode,
	models.MethodCodecDecode: methods.HandleCodecDecode,
	models.MethodCodecStats:  methods.HandleCodecStats,
	// playback
	models.MethodPlayback:         methods.HandlePlayback,
	models.MethodPlaybackLoad:     methods.HandlePlaybackLoad,
	models.MethodPlaybackPlay:     methods.HandlePlaybackPlay,
	models.MethodPlaybackStop:     methods.HandlePlaybackStop,
	models.MethodPlaybackToggle:   methods.HandlePlaybackToggle,
	models.MethodPlaybackGoto:     methods.HandlePlaybackGoto,
	models.MethodPlaybackNext:     methods.HandlePlaybackNext,
	models.MethodPlaybackPrevious: methods.HandlePlaybackPrevious,
	models.MethodPlaybackReset:    methods.HandlePlaybackReset,
	models.MethodPlaybackAdd:      methods.HandlePlaybackAdd,
	models.MethodPlaybackDelete:   methods.HandlePlaybackDelete,
	models.MethodPlaybackReplace:  methods.HandlePlaybackReplace,
	models.MethodPlaybackUpload:   methods.HandlePlaybackUpload,
	// editor
	models.MethodClipboard:      methods.HandleClipboard,
	models.MethodClipboardCopy:  methods.HandleClipboardCopy,
	models.MethodClipboardPaste: methods.HandleClipboardPaste,
	models.MethodClipboardClear: methods.HandleClipboardClear,
	models.MethodImageQuantize:  methods.HandleImageQuantize,
	models.MethodImageRender:    methods.HandleImageRender,
	// library
	models.MethodAnimations:       methods.HandleAnimations,
	models.MethodAnimationsLoad:   methods.HandleAnimationsLoad,
	models.MethodAnimationsSave:   methods.HandleAnimationsSave,
	models.MethodAnimationsDelete: methods.HandleAnimationsDelete,
	// serial
	models.MethodSerialPorts:       methods.HandleSerialPorts,
	models.MethodSerialIdentify:    methods.HandleSerialIdentify,
	models.MethodSerialCommand:     methods.HandleSerialCommand,
	models.MethodSerialWiFi:        methods.HandleSerialWiFi,
	models.MethodSerialDeviceName:  methods.HandleSerialDeviceName,
	models.MethodSerialAPIKey:      methods.HandleSerialAPIKey,
	models.MethodSerialAPIKeyClear: methods.HandleSerialAPIKeyClear,
	models.MethodSerialMatrix:      methods.HandleSerialMatrix,
}

// errorObject maps a method error to its JSON-RPC error. Parameter
// problems keep their standard code; everything else is a server error
// carrying the message.
func errorObject(err error) models.ErrorObject {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr),
		errors.Is(err, validation.ErrMissingParams),
		errors.Is(err, validation.ErrInvalidParams):
		return models.ErrorObject{Code: JSONRPCErrorInvalidParams.Code, Message: err.Error()}
	default:
		return models.ErrorObject{Code: JSONRPCServerErrorCode, Message: err.Error()}
	}
}

func marshalResult(id models.RPCID, result any) []byte {
	data, err := json.Marshal(models.ResponseObject{JSONRPC: "2.0", ID: id, Result: result})
	if err != nil {
		log.Error().Err(err).Msg("error marshalling response")
		return marshalError(id, JSONRPCErrorInternalError)
	}
	return data
}

func marshalError(id models.RPCID, eo models.ErrorObject) []byte {
	log.Debug().Int("code", eo.Code).Str("message", eo.Message).Msg("sending error")
	data, err := json.Marshal(models.ResponseErrorObject{JSONRPC: "2.0", ID: id, Error: &eo})
	if err != nil {
		// Only strings and numbers go in here.
		return []byte(`{"jsonrpc":"2.0","id":null,"error":{"code":-32603,"message":"Internal error"}}`)
	}
	return data
}

// processMessage runs one JSON-RPC message and returns the encoded reply,
// or nil when the message was a notification.
func processMessage(
	ctx context.Context,
	methodMap *MethodMap,
	services *requests.Services,
	remoteAddr string,
	msg []byte,
) []byte {
	if !json.Valid(msg) {
		return marshalError(models.NullRPCID, JSONRPCErrorParseError)
	}

	var req models.RequestObject
	if err := json.Unmarshal(msg, &req); err != nil {
		log.Debug().Err(err).Msg("invalid request object")
		return marshalError(models.NullRPCID, JSONRPCErrorInvalidRequest)
	}
	id := req.ID
	if req.JSONRPC != "2.0" || req.Method == "" {
		return marshalError(id, JSONRPCErrorInvalidRequest)
	}

	notification := id.IsAbsent()
	fn, ok := methodMap.GetMethod(req.Method)
	if !ok {
		log.Warn().Str("method", req.Method).Msg("unknown method")
		if notification {
			return nil
		}
		return marshalError(id, JSONRPCErrorMethodNotFound)
	}

	log.Debug().Str("method", req.Method).Str("id", id.String()).Msg("received request")
	result, err := fn(requests.RequestEnv{
		Services: services,
		Context:  ctx,
		Params:   req.Params,
		ID:       id,
		IsLocal:  middleware.IsLoopbackAddr(remoteAddr),
	})
	if err != nil {
		log.Warn().Err(err).Str("method", req.Method).Msg("method failed")
	}
	// notifications run but never get a reply
	if notification {
		return nil
	}
	if err != nil {
		return marshalError(id, errorObject(err))
	}
	return marshalResult(id, result)
}

func handleWSMessage(
	ctx context.Context,
	methodMap *MethodMap,
	services *requests.Services,
) func(*melody.Session, []byte) {
	return func(session *melody.Session, msg []byte) {
		// heartbeat
		if bytes.Equal(msg, []byte("ping")) {
			if err := session.Write([]byte("pong")); err != nil {
				log.Debug().Err(err).Msg("sending pong")
			}
			return
		}

		// Methods like devices.scan take seconds, so they must not hold up
		// the session's read loop.
		go func() {
			reply := processMessage(ctx, methodMap, services, session.Request.RemoteAddr, msg)
			if reply == nil {
				return
			}
			if err := session.Write(reply); err != nil {
				log.Debug().Err(err).Msg("error sending response")
			}
		}()
	}
}

// handlePostRequest serves JSON-RPC over plain HTTP. JSON-RPC errors are
// still HTTP 200; notifications get 204.
func handlePostRequest(
	methodMap *MethodMap,
	services *requests.Services,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "application/json" {
			http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxRequestSize))
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}

		reply := processMessage(r.Context(), methodMap, services, r.RemoteAddr, body)
		if reply == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(reply); err != nil {
			log.Debug().Err(err).Msg("error writing response")
		}
	}
}

func broadcastNotifications(
	ctx context.Context,
	session *melody.Melody,
	notifications <-chan models.Notification,
) {
	for {
		select {
		case <-ctx.Done():
			return
		case notif, ok := <-notifications:
			if !ok {
				return
			}
			data, err := json.Marshal(models.NotificationObject{
				JSONRPC: "2.0",
				Method:  notif.Method,
				Params:  notif.Params,
			})
			if err != nil {
				log.Error().Err(err).Msg("marshalling notification")
				continue
			}
			if err := session.Broadcast(data); err != nil {
				log.Debug().Err(err).Msg("broadcasting notification")
			}
		}
	}
}

// handlePreview serves the editor's current frame as a PNG.
func handlePreview(services *requests.Services) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		g := matrix.NewGrid(services.Config.MatrixSize(), matrix.EmptyFill)
		if f, ok := services.Player.CurrentFrame(); ok {
			g = f.Pixels
		}
		data, err := matrix.RenderPNG(g, methods.DefaultRenderScale)
		if err != nil {
			log.Error().Err(err).Msg("rendering preview")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	}
}

const (
	proxyIPParam   = "ip"
	proxyPathParam = "path"
)

var errProxyTarget = errors.New("device proxy only reaches private IPv4 addresses")

// proxyTarget checks the ip query parameter. Only private IPv4 hosts are
// reachable so the bridge can't be used to relay to the internet.
func proxyTarget(ip string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil || !addr.Is4() || !addr.IsPrivate() {
		return netip.Addr{}, errProxyTarget
	}
	return addr, nil
}

// handleDeviceProxy forwards /api/device-proxy?ip=&path= to the device with
// its API key attached, keeping the method, body and content type.
func handleDeviceProxy(services *requests.Services) http.HandlerFunc {
	transport := &httpclient.AuthTransport{
		Base:   httpclient.DefaultTransport,
		APIKey: services.Config.DeviceAPIKey,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		addr, err := proxyTarget(query.Get(proxyIPParam))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		path := query.Get(proxyPathParam)
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		target, err := url.Parse("http://" + addr.String() + path)
		if err != nil {
			http.Error(w, "invalid path", http.StatusBadRequest)
			return
		}

		proxy := &httputil.ReverseProxy{
			Rewrite: func(pr *httputil.ProxyRequest) {
				pr.Out.URL = target
				pr.Out.Host = target.Host
				pr.Out.Header.Del("Origin")
				pr.Out.Header.Del("Cookie")
			},
			Transport: transport,
			ErrorHandler: func(w http.ResponseWriter, _ *http.Request, err error) {
				log.Warn().Err(err).Str("ip", addr.String()).Msg("device proxy error")
				http.Error(w, "Bad Gateway", http.StatusBadGateway)
			},
		}
		proxy.ServeHTTP(w, r)
	}
}

// NewHandler builds the HTTP handler and starts broadcasting notifications
// until ctx is done.
func NewHandler(
	ctx context.Context,
	services *requests.Services,
	methodMap *MethodMap,
	notifications <-chan models.Notification,
) http.Handler {
	cfg := services.Config
	limiter := middleware.NewIPRateLimiter(clockwork.NewRealClock())
	limiter.StartCleanup(ctx)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.HTTPIPFilterMiddleware(middleware.NewIPFilter(cfg.AllowedIPs())))
	r.Use(middleware.PrivateNetworkAccess)

	origins := cfg.AllowedOrigins()
	if len(origins) == 0 {
		origins = []string{"https://*", "http://*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", httpclient.APIKeyHeader},
	}))

	session := melody.New()
	session.Config.MaxMessageSize = MaxRequestSize
	session.Upgrader.CheckOrigin = func(*http.Request) bool { return true }
	session.HandleMessage(middleware.WebSocketRateLimitHandler(
		limiter,
		handleWSMessage(ctx, methodMap, services),
	))
	session.HandleConnect(func(s *melody.Session) {
		log.Debug().Str("addr", s.Request.RemoteAddr).Msg("websocket client connected")
	})
	go broadcastNotifications(ctx, session, notifications)
	go func() {
		<-ctx.Done()
		_ = session.Close()
	}()

	r.Get("/api", func(w http.ResponseWriter, r *http.Request) {
		if err := session.HandleRequest(w, r); err != nil {
			log.Error().Err(err).Msg("handling websocket request")
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.HTTPRateLimitMiddleware(limiter))
		r.Use(chimiddleware.NoCache)
		r.With(chimiddleware.Timeout(config.APIRequestTimeout)).
			Post("/api", handlePostRequest(methodMap, services))
		r.Get("/preview.png", handlePreview(services))
		r.HandleFunc("/api/device-proxy", handleDeviceProxy(services))
	})

	return r
}

// Start serves the API on the configured address until ctx is done.
func Start(
	ctx context.Context,
	services *requests.Services,
	notifications <-chan models.Notification,
) error {
	handler := NewHandler(ctx, services, NewMethodMap(), notifications)
	listen := services.Config.APIListen()

	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", listen, err)
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Warn().Err(err).Msg("error shutting down API server")
		}
	}()

	log.Info().Str("addr", ln.Addr().String()).Msg("API server listening")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("API server failed: %w", err)
	}
	return nil
}
