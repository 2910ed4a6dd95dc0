package chat

import "ChatRelay/tools/safe"

type fanoutJob struct {
	conns   []*Client
	payload []byte
}

// Fanout delivers one payload to many client queues off the caller's
// goroutine. Used for advisory events (join/leave/typing notices); chat
// messages are enqueued inline by the router to keep per-room ordering.
type Fanout struct {
	jobs chan fanoutJob
}

func NewFanout(workers, queue int) *Fanout {
	f := &Fanout{jobs: make(chan fanoutJob, queue)}
	for i := 0; i < workers; i++ {
		safe.Go(func() {
			for job := range f.jobs {
				for _, c := range job.conns {
					// Slow or closed clients are skipped; advisory
					// events are not worth blocking a worker for.
					_ = c.Enqueue(job.payload)
				}
			}
		})
	}
	return f
}

func (f *Fanout) Broadcast(conns []*Client, payload []byte) {
	if len(conns) == 0 || len(payload) == 0 {
		return
	}
	f.jobs <- fanoutJob{conns: conns, payload: payload}
}

func (f *Fanout) Close() {
	close(f.jobs)
}
