// Package queue coordinates asynchronous CSV writes and batch file ingestion.
//
// Writes submitted with [Coordinator.Submit] are only recorded by the
// transport; [Coordinator.Flush] executes them in submission order. Batch
// ingestion through [Coordinator.IngestFiles] requires an empty queue, so a
// batch never mixes with writes the caller forgot to execute:
//
//	result, err := coord.IngestFiles(ctx, "events", []string{"a.csv", "b.csv"}, nil)
//	switch {
//	case errors.Is(err, types.ErrQueueNotEmpty):
//	    // flush earlier submissions first
//	case err != nil:
//	    for _, path := range result.Failed() {
//	        // retry path
//	    }
//	}
package queue
