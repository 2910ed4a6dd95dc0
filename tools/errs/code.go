package errs

// Coordinator error set. Codes are grouped the way the transport reports
// them: 14xx are caller mistakes scoped to one connection, 15xx are
// invariant violations or infrastructure failures.
var (
	// ErrAuthentication covers missing, invalid and expired credentials as
	// well as an identity that no longer exists. The connection is refused
	// before any session state is created.
	ErrAuthentication = NewCodeError(1401, "authentication failed")

	// ErrValidation covers empty content, content over the length limit and
	// empty room names. Reported to the sender only.
	ErrValidation = NewCodeError(1400, "validation failed")

	ErrRoomNotFound      = NewCodeError(1404, "room not found")
	ErrRoomAlreadyExists = NewCodeError(1409, "room already exists")

	// ErrUnknownConnection means a session was missing when one was
	// expected. Lifecycle bug, not user error.
	ErrUnknownConnection = NewCodeError(1500, "unknown connection")

	// ErrDuplicateConnection means a connection id was registered twice.
	ErrDuplicateConnection = NewCodeError(1501, "duplicate connection")

	// ErrPersistence means the durable store refused an operation. The
	// operation aborts atomically; nothing is broadcast.
	ErrPersistence = NewCodeError(1502, "persistence unavailable")
)
