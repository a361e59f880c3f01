package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"modelruntime/internal/transport"
	"modelruntime/llm"
)

// Sentinel errors this backend wraps its native failures with. The error
// table below declares which shared kind each one maps onto.
var (
	errConnection        = errors.New("openai: connection failed")
	errServerUnavailable = errors.New("openai: server unavailable")
	errRateLimited       = errors.New("openai: rate limited")
	errAuthorization     = errors.New("openai: authorization failed")
	errBadRequest        = errors.New("openai: bad request")
)

// statusSentinels is the declarative HTTP-status-to-sentinel mapping.
// Statuses of 500 and above not listed here resolve to errServerUnavailable.
var statusSentinels = map[int]error{
	http.StatusUnauthorized:          errAuthorization,
	http.StatusForbidden:             errAuthorization,
	http.StatusTooManyRequests:       errRateLimited,
	http.StatusBadRequest:            errBadRequest,
	http.StatusNotFound:              errBadRequest,
	http.StatusRequestEntityTooLarge: errBadRequest,
	http.StatusUnprocessableEntity:   errBadRequest,
	http.StatusRequestTimeout:        errConnection,
}

func (p *Provider) ErrorTable() llm.ErrorTable {
	return llm.ErrorTable{
		llm.ErrKindConnection:        {errConnection},
		llm.ErrKindServerUnavailable: {errServerUnavailable},
		llm.ErrKindRateLimit:         {errRateLimited},
		llm.ErrKindAuthorization:     {errAuthorization},
		llm.ErrKindBadRequest:        {errBadRequest},
	}
}

// wrapError folds raw transport failures into this backend's sentinels so
// the runtime's error table can classify them.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var se *transport.HTTPStatusError
	if errors.As(err, &se) {
		msg, code := parseErrorEnvelope(se.Body)
		if msg == "" {
			msg = http.StatusText(se.StatusCode)
		}
		if code != "" {
			msg = fmt.Sprintf("%s (%s)", msg, code)
		}

		sentinel, ok := statusSentinels[se.StatusCode]
		if !ok && se.StatusCode >= 500 {
			sentinel = errServerUnavailable
			ok = true
		}
		if ok {
			return fmt.Errorf("%w: %s", sentinel, msg)
		}
		return fmt.Errorf("openai: http %d: %s", se.StatusCode, msg)
	}

	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", errConnection, err)
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%w: %s", errConnection, err)
	}
	return err
}

type errorEnvelope struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

func parseErrorEnvelope(raw []byte) (message, code string) {
	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Error == nil {
		return "", ""
	}
	message = env.Error.Message
	switch c := env.Error.Code.(type) {
	case string:
		code = c
	case nil:
	default:
		b, _ := json.Marshal(c)
		code = string(b)
	}
	return message, code
}
