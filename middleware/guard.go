package middleware

import (
	"context"
	"net/http"
	"strings"

	fastauth "github.com/fastauth/fastauth"
)

type authResultContextKey struct{}

// ResultFromContext retrieves the verification result a guard stored for
// the current request.
func ResultFromContext(ctx context.Context) (*fastauth.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*fastauth.AuthResult)
	return res, ok
}

// Guard verifies the bearer access token on every request and makes the
// result available via [ResultFromContext]. Failures are rendered through
// the mapper; a nil mapper falls back to the default rendering.
func Guard(engine *fastauth.Engine, mapper *Mapper) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, ok := authenticate(engine, mapper, w, r)
			if !ok {
				return
			}

			ctx := context.WithValue(r.Context(), authResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAny guards a route behind possession of at least one of the given
// roles.
func RequireAny(engine *fastauth.Engine, mapper *Mapper, roles ...string) func(http.Handler) http.Handler {
	return requireRoles(engine, mapper, roles, engine.RequireAnyRole)
}

// RequireAll guards a route behind possession of every one of the given
// roles.
func RequireAll(engine *fastauth.Engine, mapper *Mapper, roles ...string) func(http.Handler) http.Handler {
	return requireRoles(engine, mapper, roles, engine.RequireAllRoles)
}

func requireRoles(
	engine *fastauth.Engine,
	mapper *Mapper,
	roles []string,
	check func(context.Context, string, ...string) error,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, ok := authenticate(engine, mapper, w, r)
			if !ok {
				return
			}

			if err := check(r.Context(), res.Subject, roles...); err != nil {
				mapper.Write(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), authResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(engine *fastauth.Engine, mapper *Mapper, w http.ResponseWriter, r *http.Request) (*fastauth.AuthResult, bool) {
	if engine == nil {
		mapper.Write(w, fastauth.ErrInternal)
		return nil, false
	}

	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		mapper.Write(w, fastauth.ErrTokenMalformed)
		return nil, false
	}

	res, err := engine.VerifyAccess(r.Context(), token)
	if err != nil {
		mapper.Write(w, err)
		return nil, false
	}

	return res, true
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
