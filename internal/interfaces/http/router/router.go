package router

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration. Store-scoped registrars are
// mounted behind the store resolver; system registrars are mounted without
// it so health and pool administration never depend on a resolvable store.
type Router struct {
	engine          *gin.Engine
	apiVersion      string
	storeMiddleware []gin.HandlerFunc
	storeScoped     []RouteRegistrar
	system          []RouteRegistrar
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, storeMiddleware ...gin.HandlerFunc) *Router {
	return &Router{
		engine:          engine,
		apiVersion:      "v1",
		storeMiddleware: storeMiddleware,
	}
}

// Register adds a store-scoped RouteRegistrar
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.storeScoped = append(r.storeScoped, registrar)
	return r
}

// RegisterSystem adds a registrar mounted outside the store resolver
func (r *Router) RegisterSystem(registrar RouteRegistrar) *Router {
	r.system = append(r.system, registrar)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)

	for _, registrar := range r.system {
		registrar.RegisterRoutes(api)
	}

	stores := api.Group("", r.storeMiddleware...)
	for _, registrar := range r.storeScoped {
		registrar.RegisterRoutes(stores)
	}
}
