package services

import "context"

type Name string

// Service is a long-running background component of an execution node.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	OnReady(ctx context.Context, cb func(context.Context) error)
	Name() Name
}
