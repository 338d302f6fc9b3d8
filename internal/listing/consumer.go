package listing

// Consumer receives what a list publishes. Calls for one list never overlap
// and arrive in request order.
type Consumer[T Day] interface {
	OnResult(id ListID, result ResultList[T])
	OnError(id ListID, kind ErrorKind, err error)
}

// ConsumerFuncs adapts plain functions to Consumer. Nil funcs are skipped.
type ConsumerFuncs[T Day] struct {
	Result func(id ListID, result ResultList[T])
	Error  func(id ListID, kind ErrorKind, err error)
}

func (f ConsumerFuncs[T]) OnResult(id ListID, result ResultList[T]) {
	if f.Result != nil {
		f.Result(id, result)
	}
}

func (f ConsumerFuncs[T]) OnError(id ListID, kind ErrorKind, err error) {
	if f.Error != nil {
		f.Error(id, kind, err)
	}
}

// Event is one delivery on a ChanConsumer. Exactly one of Result or Err is
// meaningful: Err is nil for results.
type Event[T Day] struct {
	List   ListID
	Result ResultList[T]
	Kind   ErrorKind
	Err    error
}

// ChanConsumer forwards deliveries onto a buffered channel. A full channel
// blocks the publishing load, which in turn holds back the next one.
type ChanConsumer[T Day] struct {
	ch chan Event[T]
}

func NewChanConsumer[T Day](buffer int) *ChanConsumer[T] {
	return &ChanConsumer[T]{ch: make(chan Event[T], buffer)}
}

func (c *ChanConsumer[T]) Events() <-chan Event[T] { return c.ch }

func (c *ChanConsumer[T]) OnResult(id ListID, result ResultList[T]) {
	c.ch <- Event[T]{List: id, Result: result}
}

func (c *ChanConsumer[T]) OnError(id ListID, kind ErrorKind, err error) {
	c.ch <- Event[T]{List: id, Kind: kind, Err: err}
}
