package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/idilsaglam/todosync/internal/model"
)

const (
	msgTimeout    = "Request timeout - backend may not be running"
	msgConnection = "Cannot connect to backend at %s"
)

// normalizeTransportError maps failures where no response was obtained onto
// the domain taxonomy. Anything unrecognized, caller cancellation included,
// is returned unchanged.
func normalizeTransportError(err error, baseURL string) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &model.TimeoutError{URL: baseURL, Message: msgTimeout, Err: err}
	}

	var (
		opErr  *net.OpError
		dnsErr *net.DNSError
	)
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &model.ConnectionError{
			URL:     baseURL,
			Message: fmt.Sprintf(msgConnection, baseURL),
			Err:     err,
		}
	}
	return err
}

// errorBody matches the backend's error payload. detail is either a string
// or a list of field errors.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type fieldDetail struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

func statusError(status int, body []byte) error {
	msg := detailMessage(body)
	switch status {
	case http.StatusNotFound:
		return &model.NotFoundError{Message: msg}
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		if msg == "" {
			msg = "Invalid TODO item"
		}
		return &model.ValidationError{Message: msg}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &model.TransportError{Status: status, Message: msg}
}

func detailMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(eb.Detail, &s); err == nil {
		return s
	}
	var fields []fieldDetail
	if err := json.Unmarshal(eb.Detail, &fields); err == nil {
		msgs := make([]string, 0, len(fields))
		for _, f := range fields {
			if f.Msg != "" {
				msgs = append(msgs, f.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
