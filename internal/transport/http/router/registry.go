package router

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/gin-gonic/gin"
)

// 一个 handler 可以同时挂到用户端和后台
type APIModule interface{ MountAPI(*gin.RouterGroup) }
type AdminModule interface{ MountAdmin(*gin.RouterGroup) }

// Priority 越小越先挂；没实现的按 defaultPriority
type prioritizer interface{ Priority() int }

const defaultPriority = 100

// Registry 每个进程自己建一份
type Registry struct {
	apiMods   []APIModule
	adminMods []AdminModule
}

// Register 两个接口都没实现的模块属于接线错误，直接 panic
func (r *Registry) Register(mods ...any) *Registry {
	for _, mod := range mods {
		a, isAPI := mod.(APIModule)
		b, isAdmin := mod.(AdminModule)
		if !isAPI && !isAdmin {
			panic(fmt.Sprintf("router: %T mounts nothing", mod))
		}
		if isAPI {
			r.apiMods = append(r.apiMods, a)
		}
		if isAdmin {
			r.adminMods = append(r.adminMods, b)
		}
	}
	return r
}

func (r *Registry) MountAllAPI(g *gin.RouterGroup) {
	for _, m := range byPriority(r.apiMods) {
		m.MountAPI(g)
	}
}

func (r *Registry) MountAllAdmin(g *gin.RouterGroup) {
	for _, m := range byPriority(r.adminMods) {
		m.MountAdmin(g)
	}
}

func byPriority[M any](mods []M) []M {
	out := slices.Clone(mods)
	slices.SortStableFunc(out, func(a, b M) int { return cmp.Compare(priorityOf(a), priorityOf(b)) })
	return out
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return defaultPriority
}
