package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Auth         *AuthHandler
	Schedules    *ScheduleHandler
	Availability *AvailabilityHandler
	Groups       *GroupHandler
	// AuthMiddleware guards every route except registration and login.
	AuthMiddleware func(http.Handler) http.Handler
	Middleware     []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	protect := func(next http.Handler) http.Handler {
		if cfg.AuthMiddleware == nil {
			return next
		}
		return cfg.AuthMiddleware(next)
	}

	if cfg.Auth != nil {
		mux.HandleFunc("/api/auth", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Login(w, r)
		})
		mux.HandleFunc("/api/auth/new", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Register(w, r)
		})
		mux.Handle("/api/auth/renew", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Auth.Renew(w, r)
		})))
	}

	if cfg.Schedules != nil {
		mux.Handle("/api/schedules", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Schedules.List(w, r)
			case http.MethodPost:
				cfg.Schedules.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})))
		mux.Handle("/api/schedules/", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/api/schedules/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithScheduleID(r.Context(), id))
			switch r.Method {
			case http.MethodPut:
				cfg.Schedules.Update(w, r)
			case http.MethodDelete:
				cfg.Schedules.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodPut, http.MethodDelete)
			}
		})))
	}

	if cfg.Availability != nil {
		mux.Handle("/api/availability", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Availability.Check(w, r)
		})))
	}

	if cfg.Groups != nil {
		mux.Handle("/api/groups", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Groups.List(w, r)
			case http.MethodPost:
				cfg.Groups.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})))
		mux.Handle("/api/groups/", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/api/groups/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithGroupID(r.Context(), id))
			switch r.Method {
			case http.MethodPut:
				cfg.Groups.Update(w, r)
			case http.MethodDelete:
				cfg.Groups.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodPut, http.MethodDelete)
			}
		})))
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
