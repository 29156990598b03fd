// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package supervisor provides process supervision for FeedStream using
suture v4.

# Overview

The supervisor tree has two layers, isolating write-path failures from
the read path:

	root ("feedstream")
	├── worker-layer  — taskqueue.Pool
	└── api-layer     — HTTPServerService

# Usage

	logger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}

	tree.AddWorkerService(taskqueue.NewPool(queue, cfg.Queue.Workers))
	tree.AddAPIService(supervisor.NewHTTPServerService(httpServer, 10*time.Second))

	return tree.Serve(ctx)

# Failure Handling

Each child supervisor restarts a crashed service automatically, with
exponential backoff once FailureThreshold is exceeded within
FailureDecay seconds (suture's own algorithm; see
github.com/thejerf/suture/v4). A service returning nil is considered
stopped cleanly and is not restarted; a non-nil error or unexpected
panic triggers a restart.
*/
package supervisor
