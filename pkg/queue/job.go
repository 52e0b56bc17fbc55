package queue

import "context"

// Job consumes messages of one type from the queue. Name identifies
// the worker in logs; Type selects which messages it receives.
type Job interface {
	Name() string
	Type() string
	Handle(ctx context.Context, payload interface{}) error
}
