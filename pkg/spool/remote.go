package spool

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	RemotePath     = "/api/spool"
	PasswordHeader = "X-Dev-Password"
)

func NewRemote(password string, logger *zap.Logger) *Remote {
	return &Remote{
		cli:      resty.New(),
		password: password,
		logger:   logger.With(zap.String("via", "remote")),
	}
}

// Remote forwards payloads to another instance, typically the one the
// printer is plugged into. The queue is the instance's base url; a queue
// query parameter selects the printer there, otherwise its default is used:
//
//	http://pi.local:8000?queue=/dev/usb/lp0
type Remote struct {
	cli      *resty.Client
	password string
	logger   *zap.Logger
}

// SpoolResponse is the body of a successful /api/spool call.
type SpoolResponse struct {
	Status string `json:"status"`
	Bytes  int    `json:"bytes"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (r *Remote) endpoint(queue string) (string, string, error) {
	u, err := url.Parse(queue)
	if err != nil {
		return "", "", err
	}
	if u.Host == "" {
		return "", "", errors.Errorf("missing host in %q", queue)
	}

	target := u.Query().Get("queue")
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/") + RemotePath

	return u.String(), target, nil
}

func (r *Remote) Spool(ctx context.Context, queue string, payload []byte) error {
	endpoint, target, err := r.endpoint(queue)
	if err != nil {
		return notAttempted(errors.Wrap(err, "remote url"))
	}

	req := r.cli.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(payload).
		SetResult(&SpoolResponse{}).
		SetError(&errorResponse{})
	if r.password != "" {
		req.SetHeader(PasswordHeader, r.password)
	}
	if target != "" {
		req.SetQueryParam("queue", target)
	}

	resp, err := req.Post(endpoint)
	if err != nil {
		if isDialError(err) {
			return notAttempted(errors.Wrap(err, "remote"))
		}
		return failed(errors.Wrap(err, "remote"))
	}

	if resp.IsError() {
		detail := resp.Status()
		if e, ok := resp.Error().(*errorResponse); ok && e.Detail != "" {
			detail = e.Detail
		}
		err := errors.Errorf("remote %s: %s", endpoint, detail)
		switch resp.StatusCode() {
		case http.StatusServiceUnavailable, http.StatusUnauthorized, http.StatusForbidden:
			return notAttempted(err)
		}
		return failed(err)
	}

	r.logger.With(zap.String("endpoint", endpoint), zap.String("target", target)).Debug("forwarded")
	return nil
}

func isDialError(err error) bool {
	var op *net.OpError
	return errors.As(err, &op) && op.Op == "dial"
}
