package scheduler

import "errors"

var ErrSchedulerClosed = errors.New("scheduler closed")
