// Package httpserver exposes the registry's HTTP API handlers.
package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/2019tarikul/notify-server/internal/errs"
	"github.com/2019tarikul/notify-server/internal/model"
	"github.com/2019tarikul/notify-server/internal/service"
)

// Server wires services into HTTP handlers. Wallet-facing routes are open
// (fronted by the relay); management routes require a bearer token.
type Server struct {
	router        *gin.Engine
	projects      service.ProjectService
	subscriptions service.SubscriptionService
	watchers      service.WatcherService
}

// New constructs the HTTP server with injected services.
func New(
	projects service.ProjectService,
	subscriptions service.SubscriptionService,
	watchers service.WatcherService,
	signKey []byte,
	log *zap.Logger,
) *Server {
	router := gin.New()
	router.Use(Recover(log))
	router.Use(Logging(log))

	s := &Server{
		router:        router,
		projects:      projects,
		subscriptions: subscriptions,
		watchers:      watchers,
	}
	s.setupRoutes(signKey)
	return s
}

// Handler returns the root handler for mounting into an http.Server.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes(signKey []byte) {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := s.router.Group("/v1")
	{
		v1.POST("/subscriptions", s.handleSubscribe())
		v1.PUT("/subscriptions", s.handleRenew())
		v1.DELETE("/subscriptions/:id", s.handleUnsubscribe())
		v1.POST("/watchers", s.handleWatch())

		accounts := v1.Group("/accounts")
		{
			accounts.GET("/:account/subscriptions", s.handleAccountSubscriptions())
			accounts.GET("/:account/watchers", s.handleAccountWatchers())
		}

		admin := v1.Group("/")
		admin.Use(BearerAuth(signKey))
		{
			admin.POST("/projects", s.handleRegisterProject())
			admin.GET("/projects/:project_id", s.handleGetProject())
			admin.GET("/projects/:project_id/subscribers", s.handleListProjectAccounts())
			admin.GET("/projects/:project_id/subscriber-scopes", s.handleListProjectAccountScopes())
			admin.POST("/projects/:project_id/subscribers/query", s.handleQueryProjectSubscribers())
			admin.GET("/subscribers/:topic", s.handleGetSubscriberByTopic())
			admin.GET("/topics", s.handleListTopics())
			admin.POST("/watchers/sweep", s.handleSweepWatchers())
		}
	}
}

// writeError maps store taxonomy errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, errs.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict"})
	case errors.Is(err, errs.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limited"})
	case errors.Is(err, errs.ErrStoreTransient):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporarily unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
	}
}

// handleRegisterProject registers a project and returns its stored public
// keys. Re-registering returns the keys of the first registration.
func (s *Server) handleRegisterProject() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerProjectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		keys, err := s.projects.RegisterWithIP(c.Request.Context(), model.ProjectID(req.ProjectID), req.AppDomain, c.ClientIP())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, projectKeysResponse{
			AuthenticationPublicKey: keys.AuthenticationPublicKey,
			SubscribePublicKey:      keys.SubscribePublicKey,
		})
	}
}

func (s *Server) handleGetProject() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := s.projects.Get(c.Request.Context(), model.ProjectID(c.Param("project_id")))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, toProjectResponse(p))
	}
}

func (s *Server) handleListProjectAccounts() gin.HandlerFunc {
	return func(c *gin.Context) {
		accounts, err := s.subscriptions.ListAccounts(c.Request.Context(), model.ProjectID(c.Param("project_id")))
		if err != nil {
			writeError(c, err)
			return
		}
		out := make([]string, 0, len(accounts))
		for _, a := range accounts {
			out = append(out, string(a))
		}
		c.JSON(http.StatusOK, gin.H{"accounts": out})
	}
}

func (s *Server) handleListProjectAccountScopes() gin.HandlerFunc {
	return func(c *gin.Context) {
		scopes, err := s.subscriptions.ListAccountScopes(c.Request.Context(), model.ProjectID(c.Param("project_id")))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, toAccountScopesResponses(scopes))
	}
}

// handleQueryProjectSubscribers returns fan-out targets for a notification:
// the project's subscriptions restricted to the requested accounts.
func (s *Server) handleQueryProjectSubscribers() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req queryAccountsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		subs, err := s.subscriptions.GetForProjectIn(c.Request.Context(),
			model.ProjectID(c.Param("project_id")), toAccountIDs(req.Accounts))
		if err != nil {
			writeError(c, err)
			return
		}
		out := make([]subscriberWithScopeResponse, 0, len(subs))
		for _, sub := range subs {
			out = append(out, toSubscriberWithScopeResponse(sub))
		}
		c.JSON(http.StatusOK, out)
	}
}

func (s *Server) handleGetSubscriberByTopic() gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, err := s.subscriptions.GetByTopic(c.Request.Context(), model.Topic(c.Param("topic")))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, toSubscriberWithScopeResponse(*sub))
	}
}

// handleListTopics returns every project and subscriber topic so the relay
// can resubscribe after a restart.
func (s *Server) handleListTopics() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		projectTopics, err := s.projects.ListTopics(ctx)
		if err != nil {
			writeError(c, err)
			return
		}
		subscriberTopics, err := s.subscriptions.ListTopics(ctx)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, topicsResponse{
			Projects:    topicStrings(projectTopics),
			Subscribers: topicStrings(subscriberTopics),
		})
	}
}

func (s *Server) handleSweepWatchers() gin.HandlerFunc {
	return func(c *gin.Context) {
		removed, err := s.watchers.SweepExpired(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"removed": removed})
	}
}

func (s *Server) handleSubscribe() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req subscribeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		scope, err := parseScope(req.Scope)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		grant, err := s.subscriptions.Subscribe(c.Request.Context(),
			model.ProjectID(req.ProjectID), model.AccountID(req.Account), scope)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, subscriptionGrantResponse{
			ID:     grant.ID.String(),
			SymKey: grant.SymKey,
			Topic:  string(grant.Topic),
		})
	}
}

func (s *Server) handleRenew() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req subscribeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		scope, err := parseScope(req.Scope)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		sub, err := s.subscriptions.Renew(c.Request.Context(),
			model.ProjectID(req.ProjectID), model.AccountID(req.Account), scope)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, toSubscriberResponse(sub))
	}
}

func (s *Server) handleUnsubscribe() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.FromString(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad subscription id"})
			return
		}
		if err := s.subscriptions.Unsubscribe(c.Request.Context(), id); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// handleAccountSubscriptions lists an account's subscriptions, optionally
// restricted to one app domain via ?app=.
func (s *Server) handleAccountSubscriptions() gin.HandlerFunc {
	return func(c *gin.Context) {
		account := model.AccountID(c.Param("account"))
		app := c.Query("app")

		var (
			subs []model.SubscriberWithProject
			err  error
		)
		if app == "" {
			subs, err = s.subscriptions.ListForAccount(c.Request.Context(), account)
		} else {
			subs, err = s.subscriptions.ListForAccountAndApp(c.Request.Context(), account, app)
		}
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, toSubscriptionResponses(subs))
	}
}

func (s *Server) handleWatch() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req watchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		err := s.watchers.Watch(c.Request.Context(),
			model.AccountID(req.Account), req.AppDomain, req.DidKey, req.SymKey)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) handleAccountWatchers() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessions, err := s.watchers.Active(c.Request.Context(),
			model.AccountID(c.Param("account")), c.Query("app"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, toWatcherSessionResponses(sessions))
	}
}
