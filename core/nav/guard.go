package nav

import "github.com/trezcool/darasa/core/session"

type (
	// Guard gates navigation on the session state. It holds no state of its
	// own; every check re-reads the store.
	Guard struct {
		sessions *session.Store
	}

	// Decision is the outcome of a single navigation check.
	Decision struct {
		Allow    bool
		Redirect string // target path when !Allow
	}
)

func NewGuard(sessions *session.Store) *Guard {
	return &Guard{sessions: sessions}
}

// Check decides whether the target view may render. An empty allow-list means
// any authenticated user passes. Unauthenticated sessions are always sent to
// the login entry point; authenticated users outside the allow-list are sent
// to their own landing path.
func (g *Guard) Check(allowed ...string) Decision {
	id, ok := g.sessions.Identity()
	if !ok {
		return Decision{Redirect: LoginPath}
	}
	if len(allowed) == 0 {
		return Decision{Allow: true}
	}
	for _, role := range allowed {
		if id.Highest == role {
			return Decision{Allow: true}
		}
	}
	return Decision{Redirect: LandingPath(id.Highest)}
}
