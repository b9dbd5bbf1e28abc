package routes

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/ijuchazara/bitworks-message/internal/db"
	adminclient "github.com/ijuchazara/bitworks-message/internal/handlers/admin/client"
	adminsettings "github.com/ijuchazara/bitworks-message/internal/handlers/admin/settings"
	admintemplate "github.com/ijuchazara/bitworks-message/internal/handlers/admin/template"
	adminuser "github.com/ijuchazara/bitworks-message/internal/handlers/admin/user"
	chathandler "github.com/ijuchazara/bitworks-message/internal/handlers/chat"
	"github.com/ijuchazara/bitworks-message/internal/repository"
	"github.com/ijuchazara/bitworks-message/internal/services"
	"github.com/ijuchazara/bitworks-message/internal/websocket"
	"github.com/ijuchazara/bitworks-message/pkg/debug"
)

// AnswerPath is the route the external agent calls back with its response.
// The chat service hands it to the agent together with the configured host.
const AnswerPath = "/api/answer"

/*
 * Package routes handles the setup and configuration of all application
 * routes. Routes are grouped into the public chat surface, the admin API
 * consumed by the management frontend, and the WebSocket endpoint.
 */

// CORSMiddleware handles CORS headers for all requests. The allowed origin
// comes from CORS_ALLOWED_ORIGIN, defaulting to the local admin frontend.
func CORSMiddleware(next http.Handler) http.Handler {
	allowedOrigin := os.Getenv("CORS_ALLOWED_ORIGIN")
	if allowedOrigin == "" {
		allowedOrigin = "http://localhost:3000"
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Origin")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// SetupRoutes wires repositories, services and handlers onto the router and
// returns the retention service so main can manage its scheduler lifecycle.
func SetupRoutes(r *mux.Router, database *db.DB) *services.RetentionService {
	debug.Info("Initializing route configuration")

	r.Use(CORSMiddleware)
	r.Use(loggingMiddleware)

	// Repositories
	templateRepo := repository.NewTemplateRepository(database)
	clientRepo := repository.NewClientRepository(database)
	attrRepo := repository.NewAttributeRepository(database)
	userRepo := repository.NewUserRepository(database)
	convRepo := repository.NewConversationRepository(database)
	messageRepo := repository.NewMessageRepository(database)
	settingRepo := repository.NewSettingRepository(database)

	// Services
	hub := websocket.NewHub()
	clientService := services.NewClientService(database, clientRepo, templateRepo, attrRepo)
	chatService := services.NewChatService(clientRepo, userRepo, convRepo, messageRepo, attrRepo, templateRepo, settingRepo, hub, AnswerPath)
	retentionService := services.NewRetentionService(settingRepo, convRepo)

	// Handlers
	templateHandler := admintemplate.NewTemplateHandler(templateRepo)
	clientHandler := adminclient.NewClientHandler(clientRepo, attrRepo, clientService)
	settingsHandler := adminsettings.NewSettingsHandler(settingRepo)
	userHandler := adminuser.NewUserHandler(userRepo)
	chatHandler := chathandler.NewChatHandler(chatService, convRepo, messageRepo)

	apiRouter := r.PathPrefix("/api").Subrouter()

	// Public chat surface
	apiRouter.HandleFunc("/question", chatHandler.Question).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/answer", chatHandler.Answer).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/load_conversation", chatHandler.LoadConversation).Methods(http.MethodGet, http.MethodOptions)

	// Admin API
	adminRouter := apiRouter.PathPrefix("/admin").Subrouter()

	adminRouter.HandleFunc("/templates", templateHandler.ListTemplates).Methods(http.MethodGet, http.MethodOptions)
	adminRouter.HandleFunc("/templates", templateHandler.CreateTemplate).Methods(http.MethodPost, http.MethodOptions)
	adminRouter.HandleFunc("/templates/{id:[0-9]+}", templateHandler.UpdateTemplate).Methods(http.MethodPut, http.MethodOptions)

	adminRouter.HandleFunc("/clients", clientHandler.ListClients).Methods(http.MethodGet, http.MethodOptions)
	adminRouter.HandleFunc("/clients", clientHandler.CreateClient).Methods(http.MethodPost, http.MethodOptions)
	adminRouter.HandleFunc("/clients/attributes/new", clientHandler.GetNewClientAttributes).Methods(http.MethodGet, http.MethodOptions)
	adminRouter.HandleFunc("/clients/{code}", clientHandler.UpdateClient).Methods(http.MethodPut, http.MethodOptions)
	adminRouter.HandleFunc("/clients/{code}/attributes", clientHandler.GetClientAttributes).Methods(http.MethodGet, http.MethodOptions)
	adminRouter.HandleFunc("/clients/{code}/attributes/edit", clientHandler.GetEditableAttributes).Methods(http.MethodGet, http.MethodOptions)

	adminRouter.HandleFunc("/settings", settingsHandler.ListSettings).Methods(http.MethodGet, http.MethodOptions)
	adminRouter.HandleFunc("/settings/{key}", settingsHandler.GetSetting).Methods(http.MethodGet, http.MethodOptions)
	adminRouter.HandleFunc("/settings/{key}", settingsHandler.UpsertSetting).Methods(http.MethodPut, http.MethodOptions)

	adminRouter.HandleFunc("/users", userHandler.ListUsers).Methods(http.MethodGet, http.MethodOptions)
	adminRouter.HandleFunc("/users/{userID:[0-9]+}/conversations", chatHandler.ListUserConversations).Methods(http.MethodGet, http.MethodOptions)
	adminRouter.HandleFunc("/conversations/{conversationID:[0-9]+}/messages", chatHandler.ListConversationMessages).Methods(http.MethodGet, http.MethodOptions)

	// WebSocket endpoint, one connection per chat user
	r.HandleFunc("/ws/{userID:[0-9]+}", hub.ServeWS)

	debug.Info("Route configuration completed successfully")
	logRegisteredRoutes(r)

	return retentionService
}

// loggingMiddleware logs details about each request
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rw := &responseWriter{w, http.StatusOK}
		next.ServeHTTP(rw, r)

		debug.Info("Request completed: %s %s - Status: %d - Duration: %v",
			r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack implements the http.Hijacker interface to support WebSocket upgrades
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not implement http.Hijacker")
}

// logRegisteredRoutes prints all registered routes for debugging
func logRegisteredRoutes(r *mux.Router) {
	debug.Debug("Registered routes:")
	r.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			pathTemplate = "<unknown>"
		}
		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"ANY"}
		}
		debug.Debug("Route: %s [%s]", pathTemplate, strings.Join(methods, ", "))
		return nil
	})
}
