package router

import "github.com/gin-gonic/gin"

// Registry collects modules and mounts them on one route group.
type Registry struct {
	Engine      *gin.Engine
	Group       *gin.RouterGroup
	middlewares []gin.HandlerFunc
	modules     []Module
}

// NewRegistry mounts modules under basePath ("/" for the root).
func NewRegistry(engine *gin.Engine, basePath string) *Registry {
	return &Registry{Engine: engine, Group: engine.Group(basePath)}
}

func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.middlewares = append(r.middlewares, mw...)
}

func (r *Registry) Add(mod Module) {
	r.modules = append(r.modules, mod)
}

func (r *Registry) RegisterAll() {
	if len(r.middlewares) > 0 {
		r.Group.Use(r.middlewares...)
	}
	for _, m := range r.modules {
		m.Register(r.Group)
	}
}
