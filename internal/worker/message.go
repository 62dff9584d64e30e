package worker

// MessageKind identifies which of the control loop's message sources
// produced a Message (§4.4, §4.7). All four shutdown sources and the
// pool's own completion notifications are collapsed onto one channel so
// the control loop has a single place to enforce ordering.
type MessageKind string

const (
	// MsgSigint is delivered on SIGINT: immediate termination, in-flight
	// jobs are abandoned rather than awaited.
	MsgSigint MessageKind = "sigint"
	// MsgTimeExceeded is delivered once by the deadline timer, if armed.
	MsgTimeExceeded MessageKind = "time_exceeded"
	// MsgMaxJobs is raised by the pool once n_started reaches max_jobs.
	MsgMaxJobs MessageKind = "max_jobs"
	// MsgBurstNoJobs is raised by the pool when, in burst mode, it finds
	// zero queued and zero in-flight jobs.
	MsgBurstNoJobs MessageKind = "burst_no_jobs"
	// MsgCheckForJobs drives a lease round. JobID is set when an
	// executor's completion triggered it, nil for the ticker's wake-ups.
	MsgCheckForJobs MessageKind = "check_for_jobs"
)

// Message is the single sum type carried on the control loop's channel.
type Message struct {
	Kind  MessageKind
	JobID *int64
}

// isShutdown reports whether a message kind should end the control loop.
// It does not say whether the exit is graceful; the control loop checks
// for MsgSigint separately before calling it.
func (k MessageKind) isShutdown() bool {
	switch k {
	case MsgSigint, MsgTimeExceeded, MsgMaxJobs, MsgBurstNoJobs:
		return true
	default:
		return false
	}
}
