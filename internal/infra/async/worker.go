package async

import "context"

// Worker is a long-running background component. Run blocks until ctx is
// cancelled and calls done on exit.
type Worker interface {
	Run(context.Context, func())
	Shutdown()
}
