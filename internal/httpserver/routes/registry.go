package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/seatwatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/seatwatch/internal/httpserver/mw"
)

// Registrar mounts one group of routes.
type Registrar func(r chi.Router, d deps.Deps)

type entry struct {
	reg        Registrar
	restricted bool
}

var registry []entry

// Register adds routes reachable by every client.
func Register(reg Registrar) {
	registry = append(registry, entry{reg: reg})
}

// RegisterRestricted adds routes reachable only from SEATWATCH_ALLOWED_CIDRS.
func RegisterRestricted(reg Registrar) {
	registry = append(registry, entry{reg: reg, restricted: true})
}

// RegisterAll mounts every registered group. Called once from httpserver.NewRouter.
func RegisterAll(r chi.Router, d deps.Deps) {
	restrict := mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger, d.Forbidden)
	for _, e := range registry {
		if e.restricted {
			e.reg(r.With(restrict), d)
			continue
		}
		e.reg(r, d)
	}
}
