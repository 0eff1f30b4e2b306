package modem

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gbatanov/zlock/lock"
)

// sim800 echoes every command and answers it the way the module does.
type sim800 struct {
	mu    sync.Mutex
	input chan<- []byte
	cmds  []string
}

func (s *sim800) Write(b []byte) error {
	cmd := string(b)
	s.mu.Lock()
	s.cmds = append(s.cmds, cmd)
	s.mu.Unlock()

	var answer string
	switch {
	case strings.HasSuffix(cmd, "\x1A"):
		answer = strings.TrimSuffix(cmd, "\x1A") + "\r\n+CMGS: 15\r\n\r\nOK\r\n"
	case strings.HasPrefix(cmd, "AT+CMGS="):
		answer = cmd + "\r\n> "
	default:
		answer = cmd + "\r\nOK\r\n"
	}
	go func() { s.input <- []byte(answer) }()
	return nil
}

func (s *sim800) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cmds...)
}

func newTestModem(t *testing.T) (*GsmModem, *sim800) {
	t.Helper()
	CommandTimeout = 2 * time.Second
	s := &sim800{}
	mdm := newModem(s, "+79250109365", zerolog.Nop())
	s.input = mdm.input
	go mdm.dispatch()
	t.Cleanup(func() { mdm.Flag.Store(false) })
	return mdm, s
}

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		buff   string
		id     string
		answer string
		ok     bool
	}{
		{"AT\r\r\nOK\r\n", "AT\r", "OK\r\n", true},
		{"AT+CMGS=22\r\r\n> ", "AT+CMGS=22\r", "> ", true},
		{"0011\r\n+CMGS: 15\r\n\r\nOK\r\n", "0011\x1A", "OK\r\n", true},
		{"\r\nRING\r\n", "", "", false},
	}
	for _, tt := range tests {
		id, answer, ok := parseAnswer(tt.buff)
		if id != tt.id || answer != tt.answer || ok != tt.ok {
			t.Errorf("parseAnswer(%q) = %q, %q, %v", tt.buff, id, answer, ok)
		}
	}
}

func TestSemiOctets(t *testing.T) {
	if got := semiOctets("79250109365"); got != "9752109063F5" {
		t.Errorf("semiOctets = %s", got)
	}
	if got := semiOctets("1234"); got != "2143" {
		t.Errorf("semiOctets even = %s", got)
	}
}

func TestBuildPdu(t *testing.T) {
	pdu, n := buildPdu("79250109365", "Тест")
	want := "00" + "1100" + "0B" + "91" + "9752109063F5" + "0008C1" + "08" + "0422043504410442"
	if pdu != want {
		t.Errorf("pdu = %s\nwant  %s", pdu, want)
	}
	// 14 bytes of header plus the text
	if n != 14+8 {
		t.Errorf("tpdu length = %d", n)
	}
	if got := ucs2(strings.Repeat("a", 100)); len(got) != SMS_MAX_CHARS*4 {
		t.Errorf("long text not truncated: %d hex digits", len(got))
	}
}

func TestSendSms(t *testing.T) {
	mdm, s := newTestModem(t)
	if !mdm.SendSms("Alarm") {
		t.Fatal("SendSms failed")
	}
	cmds := s.Commands()
	if len(cmds) != 4 {
		t.Fatalf("commands = %q", cmds)
	}
	if cmds[0] != "AT+CMGF=0\r" || !strings.HasPrefix(cmds[1], "AT+CMGS=") ||
		!strings.HasSuffix(cmds[2], "\x1A") || cmds[3] != "AT+CMGF=1\r" {
		t.Errorf("commands = %q", cmds)
	}
}

func TestInitModem(t *testing.T) {
	mdm, s := newTestModem(t)
	if err := mdm.InitModem(); err != nil {
		t.Fatal(err)
	}
	if cmds := s.Commands(); len(cmds) != 5 || cmds[0] != "AT\r" {
		t.Errorf("commands = %q", cmds)
	}
}

func TestLockEventQueuesAlarmOnly(t *testing.T) {
	mdm := newModem(&sim800{}, "79250109365", zerolog.Nop())
	mdm.LockEvent(lock.Event{Kind: lock.DoorOpened})
	mdm.LockEvent(lock.Event{Kind: lock.AlarmRaised, Attempt: 3, Time: time.Now()})
	if n := len(mdm.sms); n != 1 {
		t.Fatalf("queued %d messages", n)
	}
	if msg := <-mdm.sms; !strings.Contains(msg, "Тревога") {
		t.Errorf("message = %q", msg)
	}
	// a full queue drops instead of blocking the lock
	for i := 0; i < SMS_QUEUE_SIZE+2; i++ {
		mdm.LockEvent(lock.Event{Kind: lock.AlarmRaised})
	}
}
