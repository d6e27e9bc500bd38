package stream

// Writable is the input side of a stage.
type Writable[T any] interface {
	// Write submits one chunk. A false result asks the caller to wait
	// for drain before writing again.
	Write(chunk T) bool
	// End signals that no more chunks will be written.
	End()
	// OnDrain registers a listener for the drain event.
	OnDrain(fn func())
}

// Readable is the output side of a stage.
type Readable[T any] interface {
	OnData(fn func(T))
	OnEnd(fn func())
	OnError(fn func(error))
	OnClose(fn func())
	// Done is closed once end or close has been delivered.
	Done() <-chan struct{}
	// Err returns the fatal error that closed the stage, if any.
	Err() error
}

// Duplex is a stage that is both written to and read from.
type Duplex[I, O any] interface {
	Writable[I]
	Readable[O]
	// Destroy discards all pending state and emits close.
	Destroy()
}

// Text is the constraint of stages that operate on character data.
type Text interface {
	~string | ~[]byte
}
