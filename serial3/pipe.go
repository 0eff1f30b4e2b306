package serial3

import "sync"

// pipeDepth mimics the receive FIFO of a real UART so that both sides may
// send at the same moment without a deadlock.
const pipeDepth = 64

// PipeEnd is one side of an in-process link.
type PipeEnd struct {
	in   <-chan byte
	out  chan<- byte
	done chan struct{}
	once *sync.Once
}

// Pipe returns two connected link ends. Closing either end closes both.
func Pipe() (*PipeEnd, *PipeEnd) {
	ab := make(chan byte, pipeDepth)
	ba := make(chan byte, pipeDepth)
	done := make(chan struct{})
	once := &sync.Once{}
	a := &PipeEnd{in: ba, out: ab, done: done, once: once}
	b := &PipeEnd{in: ab, out: ba, done: done, once: once}
	return a, b
}

func (p *PipeEnd) SendByte(b byte) error {
	select {
	case <-p.done:
		return ErrClosed
	default:
	}
	select {
	case p.out <- b:
		return nil
	case <-p.done:
		return ErrClosed
	}
}

func (p *PipeEnd) ReceiveByte() (byte, error) {
	select {
	case b := <-p.in:
		return b, nil
	case <-p.done:
		return 0, ErrClosed
	}
}

func (p *PipeEnd) Close() error {
	p.once.Do(func() { close(p.done) })
	return nil
}
