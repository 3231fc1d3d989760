package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	fastauth "github.com/fastauth/fastauth"
)

// errorEnvelope is the wire shape every failure is rendered as:
//
//	{"error":{"code":"token_expired","message":"token expired","status_code":401}}
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

type override struct {
	status  int
	message string
}

// Mapper renders engine errors as JSON responses. The zero value maps every
// taxonomy kind to its suggested status; Override customizes individual
// kinds. Errors from outside the taxonomy collapse to the generic server
// error so internals never leak to clients.
type Mapper struct {
	overrides map[fastauth.Kind]override
}

// NewMapper returns a Mapper with the default kind-to-status mapping.
func NewMapper() *Mapper {
	return &Mapper{}
}

// Override replaces the rendered status and, when non-empty, the message for
// one error kind. Call during setup only; Mapper is not synchronized.
func (m *Mapper) Override(kind fastauth.Kind, status int, message string) *Mapper {
	if m.overrides == nil {
		m.overrides = make(map[fastauth.Kind]override)
	}
	m.overrides[kind] = override{status: status, message: message}
	return m
}

// Write renders err to w. Any error works; non-taxonomy errors render as the
// generic internal error.
func (m *Mapper) Write(w http.ResponseWriter, err error) {
	body := m.render(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(body.StatusCode)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: body})
}

func (m *Mapper) render(err error) errorBody {
	var typed *fastauth.Error
	if !errors.As(err, &typed) {
		typed = fastauth.ErrInternal
	}

	body := errorBody{
		Code:       typed.Code,
		Message:    typed.Message,
		StatusCode: typed.Status,
	}

	if m != nil {
		if ov, ok := m.overrides[typed.Kind]; ok {
			body.StatusCode = ov.status
			if ov.message != "" {
				body.Message = ov.message
			}
		}
	}

	return body
}
