package serial3

import (
	"bytes"
	"errors"
	"testing"
)

// recLink records sent bytes and replays a fixed input.
type recLink struct {
	sent  []byte
	input []byte
	err   error
}

func (r *recLink) SendByte(b byte) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, b)
	return nil
}

func (r *recLink) ReceiveByte() (byte, error) {
	if len(r.input) == 0 {
		return 0, ErrClosed
	}
	b := r.input[0]
	r.input = r.input[1:]
	return b, nil
}

func TestSendStringAppendsTerminator(t *testing.T) {
	l := &recLink{}
	if err := SendString(l, []byte{1, 2, 3, 4, 5, 6, 7}); err != nil {
		t.Fatalf("SendString: %v", err)
	}
	want := []byte{1, 2, 3, 4, 5, 6, 7, Terminator}
	if !bytes.Equal(l.sent, want) {
		t.Errorf("sent %v want %v", l.sent, want)
	}
}

func TestSendStringRejectsTerminator(t *testing.T) {
	l := &recLink{}
	if err := SendString(l, []byte{1, Terminator, 2}); err == nil {
		t.Fatal("expected error")
	}
	if len(l.sent) != 0 {
		t.Errorf("nothing should be sent, got %v", l.sent)
	}
}

func TestReceiveString(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		max     int
		want    []byte
		rest    int
		wantErr bool
	}{
		{"seven bytes", []byte{1, 2, 3, 4, 5, 6, 7, '#', '@'}, 7, []byte{1, 2, 3, 4, 5, 6, 7}, 1, false},
		{"empty", []byte{'#'}, 7, []byte{}, 0, false},
		{"zero byte is payload", []byte{0, 9, '#'}, 7, []byte{0, 9}, 0, false},
		{"overflow drained", []byte{1, 2, 3, 4, 5, 6, 7, 8, '#', '~'}, 7, nil, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &recLink{input: tt.input}
			got, err := ReceiveString(l, tt.max)
			if tt.wantErr {
				var oe *OverflowError
				if !errors.As(err, &oe) {
					t.Fatalf("want OverflowError, got %v", err)
				}
				if oe.Got != 8 {
					t.Errorf("Got = %d", oe.Got)
				}
			} else if err != nil {
				t.Fatalf("ReceiveString: %v", err)
			} else if !bytes.Equal(got, tt.want) {
				t.Errorf("got %v want %v", got, tt.want)
			}
			if len(l.input) != tt.rest {
				t.Errorf("left %d bytes unread, want %d", len(l.input), tt.rest)
			}
		})
	}
}

func TestReceiveStringClosed(t *testing.T) {
	l := &recLink{input: []byte{1, 2}}
	if _, err := ReceiveString(l, 7); !errors.Is(err, ErrClosed) {
		t.Errorf("want ErrClosed, got %v", err)
	}
}

func TestPipeRoundTrip(t *testing.T) {
	a, b := Pipe()
	defer a.Close()

	pw := []byte{1, 2, 3, 4, 5, 6, 7}
	done := make(chan error, 1)
	go func() { done <- SendString(a, pw) }()

	got, err := ReceiveString(b, 7)
	if err != nil {
		t.Fatalf("ReceiveString: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("SendString: %v", err)
	}
	if !bytes.Equal(got, pw) || len(got) != 7 {
		t.Errorf("got %v want %v", got, pw)
	}
}

func TestPipeClose(t *testing.T) {
	a, b := Pipe()
	b.Close()
	if _, err := a.ReceiveByte(); !errors.Is(err, ErrClosed) {
		t.Errorf("ReceiveByte after close: %v", err)
	}
	if err := a.SendByte(1); !errors.Is(err, ErrClosed) {
		t.Errorf("SendByte after close: %v", err)
	}
}
