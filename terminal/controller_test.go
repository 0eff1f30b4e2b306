package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/gbatanov/zlock/opcode"
	"github.com/gbatanov/zlock/serial3"
)

// scripted hands out keys from a list, then io.EOF.
type scripted struct {
	mu   sync.Mutex
	keys []byte
}

func (s *scripted) ReadKey() (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.keys) == 0 {
		return 0, io.EOF
	}
	k := s.keys[0]
	s.keys = s.keys[1:]
	return k, nil
}

// blocking never returns a key until the test ends.
type blocking struct{ done chan struct{} }

func (b blocking) ReadKey() (byte, error) {
	<-b.done
	return 0, io.EOF
}

type screen struct {
	mu  sync.Mutex
	ops []string
}

func (s *screen) add(op string) error {
	s.mu.Lock()
	s.ops = append(s.ops, op)
	s.mu.Unlock()
	return nil
}

func (s *screen) Clear() error                        { return s.add("clear") }
func (s *screen) Text(t string) error                 { return s.add("text " + t) }
func (s *screen) TextAt(t string, row, col int) error { return s.add(fmt.Sprintf("at %d,%d %s", row, col, t)) }

func (s *screen) Ops() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ops...)
}

type delays struct {
	mu  sync.Mutex
	got []time.Duration
}

func (d *delays) Delay(_ context.Context, dur time.Duration) error {
	d.mu.Lock()
	d.got = append(d.got, dur)
	d.mu.Unlock()
	return nil
}

// lockSide is the test's end of the link, read by one goroutine.
type lockSide struct {
	t   *testing.T
	end *serial3.PipeEnd
	in  chan byte
}

func (p lockSide) recv() byte {
	p.t.Helper()
	select {
	case b, ok := <-p.in:
		if !ok {
			p.t.Fatal("link closed")
		}
		return b
	case <-time.After(2 * time.Second):
		p.t.Fatal("nothing from the terminal")
	}
	return 0
}

func (p lockSide) expect(bs ...byte) {
	p.t.Helper()
	for _, want := range bs {
		if got := p.recv(); got != want {
			p.t.Fatalf("got 0x%02x, want 0x%02x", got, want)
		}
	}
}

func (p lockSide) quiet() {
	p.t.Helper()
	select {
	case b, ok := <-p.in:
		if ok {
			p.t.Fatalf("unexpected byte 0x%02x", b)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func (p lockSide) notify(ops ...opcode.Opcode) {
	p.t.Helper()
	for _, o := range ops {
		if err := p.end.SendByte(byte(o)); err != nil {
			p.t.Fatal(err)
		}
	}
}

type rig struct {
	lock lockSide
	scr  *screen
	dl   *delays
	errc chan error
}

func start(t *testing.T, keys Keypad) *rig {
	t.Helper()
	termEnd, lockEnd := serial3.Pipe()
	r := &rig{
		lock: lockSide{t: t, end: lockEnd, in: make(chan byte, 64)},
		scr:  &screen{},
		dl:   &delays{},
		errc: make(chan error, 1),
	}
	go func() {
		defer close(r.lock.in)
		for {
			b, err := lockEnd.ReceiveByte()
			if err != nil {
				return
			}
			r.lock.in <- b
		}
	}()
	c := New(termEnd, keys, r.scr, WithDelayer(r.dl))
	go func() { r.errc <- c.Run(context.Background()) }()
	t.Cleanup(func() { lockEnd.Close() })
	return r
}

func TestCaptureFullBufferDropsExtraKeys(t *testing.T) {
	r := start(t, &scripted{keys: []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, EnterKey}})
	r.lock.notify(opcode.AskNewPassword)
	r.lock.expect(byte(opcode.TakeNewPassword), 1, 2, 3, 4, 5, 6, 7, serial3.Terminator)
	r.lock.quiet()

	ops := r.scr.Ops()
	if len(ops) != 2+7 || ops[1] != "text "+PromptNew || ops[8] != "at 1,6 *" {
		t.Errorf("display ops = %v", ops)
	}
}

func TestCaptureFullBufferWaitsForEnter(t *testing.T) {
	r := start(t, &scripted{keys: []byte{1, 2, 3, 4, 5, 6, 7}})
	r.lock.notify(opcode.AskNewPassword)
	r.lock.expect(byte(opcode.TakeNewPassword))
	select {
	case err := <-r.errc:
		if !errors.Is(err, io.EOF) {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	// the keys ran out before Enter, so no password went out
	r.lock.quiet()
}

func TestCaptureEnter(t *testing.T) {
	r := start(t, &scripted{keys: []byte{4, 2, EnterKey}})
	r.lock.notify(opcode.PasswordStored)
	r.lock.expect(byte(opcode.TakeReEntered1), 4, 2, serial3.Terminator)
	// exactly one string per capture
	r.lock.quiet()
}

func TestCaptureSkipsTerminatorKey(t *testing.T) {
	r := start(t, &scripted{keys: []byte{1, serial3.Terminator, 2, EnterKey}})
	r.lock.notify(opcode.AskReEnter1)
	r.lock.expect(byte(opcode.TakeReEntered1), 1, 2, serial3.Terminator)
}

func TestAnswers(t *testing.T) {
	tests := []struct {
		ask  opcode.Opcode
		want opcode.Opcode
	}{
		{opcode.AskNewPassword, opcode.TakeNewPassword},
		{opcode.PasswordStored, opcode.TakeReEntered1},
		{opcode.AskReEnter1, opcode.TakeReEntered1},
		{opcode.AskReEnter2, opcode.TakeReEntered2},
		{opcode.AskReEnter3, opcode.TakeReEntered3},
		{opcode.AskMainMenu2, opcode.TakeMainMenu2},
		{opcode.AskMainMenu3, opcode.TakeMainMenu3},
	}
	for _, tt := range tests {
		t.Run(tt.ask.String(), func(t *testing.T) {
			r := start(t, &scripted{keys: []byte{0, EnterKey}})
			r.lock.notify(tt.ask)
			r.lock.expect(byte(tt.want), 0, serial3.Terminator)
		})
	}
}

func TestResultEcho(t *testing.T) {
	for _, tt := range []struct {
		op  opcode.Opcode
		msg string
	}{
		{opcode.PasswordCorrect, MsgCorrect},
		{opcode.PasswordWrong, MsgWrong},
	} {
		t.Run(tt.op.String(), func(t *testing.T) {
			r := start(t, blocking{done: make(chan struct{})})
			r.lock.notify(tt.op)
			r.lock.expect(byte(tt.op))
			r.lock.quiet()

			ops := r.scr.Ops()
			if len(ops) != 2 || ops[1] != "text "+tt.msg {
				t.Errorf("display ops = %v", ops)
			}
			r.dl.mu.Lock()
			defer r.dl.mu.Unlock()
			if len(r.dl.got) != 1 || r.dl.got[0] != ResultHold {
				t.Errorf("delays = %v", r.dl.got)
			}
		})
	}
}

func TestDisplayOnlyNotifications(t *testing.T) {
	done := make(chan struct{})
	defer close(done)
	r := start(t, blocking{done: done})
	r.lock.notify(opcode.DoorOpening, opcode.DoorOpened, opcode.DoorClosing, opcode.AlarmOn)
	r.lock.end.SendByte(0x00)
	r.lock.end.SendByte('Z')
	r.lock.quiet()

	want := []string{
		"clear", "text " + MsgDoorOpening,
		"clear", "text " + MsgDoorOpened,
		"clear", "text " + MsgDoorClosing,
		"clear", "text " + MsgAlarm,
	}
	ops := r.scr.Ops()
	if len(ops) != len(want) {
		t.Fatalf("display ops = %v", ops)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("display ops = %v, want %v", ops, want)
		}
	}
}

func TestMenu(t *testing.T) {
	tests := []struct {
		name string
		keys []byte
		want []byte
	}{
		{"open door", []byte{OpenKey, 5, EnterKey}, []byte{byte(opcode.TakeMainMenu1), 5, serial3.Terminator}},
		{"change password", []byte{ChangeKey, 6, EnterKey}, []byte{byte(opcode.TakeNewPassword), 6, serial3.Terminator}},
		{"other keys re-poll", []byte{'x', '=', 9, EnterKey, OpenKey, 1, EnterKey}, []byte{byte(opcode.TakeMainMenu1), 1, serial3.Terminator}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := start(t, &scripted{keys: tt.keys})
			r.lock.notify(opcode.OpenMainMenu)
			r.lock.expect(tt.want...)
			r.lock.quiet()

			ops := r.scr.Ops()
			if len(ops) < 3 || ops[1] != "at 0,0 "+MenuOpen || ops[2] != "at 1,0 "+MenuChange {
				t.Errorf("display ops = %v", ops)
			}
		})
	}
}

func TestKeypadErrorStopsRun(t *testing.T) {
	r := start(t, &scripted{})
	r.lock.notify(opcode.AskNewPassword)
	r.lock.expect(byte(opcode.TakeNewPassword))
	select {
	case err := <-r.errc:
		if !errors.Is(err, io.EOF) {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}
