package natsnotify

import "errors"

var (
	ErrEmptyConnectionURL = errors.New("empty nats connection URL")
	ErrConnectFailed      = errors.New("failed to connect to nats")
	ErrHealthcheckFailed  = errors.New("nats healthcheck failed")
	ErrDrainTimeout       = errors.New("nats drain did not finish in time")
)
