package event

import (
	"errors"
	"testing"
	"time"
)

func TestWaitEvent(t *testing.T) {
	em := EventEmitterCreate()
	em.ResetEvent("AT\r")
	go em.SetEvent("AT\r", "OK\r\n")

	msg, err := em.WaitEvent("AT\r", time.Second)
	if err != nil || msg != "OK\r\n" {
		t.Fatalf("WaitEvent = %q, %v", msg, err)
	}
}

func TestAnswerBeforeWait(t *testing.T) {
	em := EventEmitterCreate()
	em.ResetEvent("ATE1\r")
	em.SetEvent("ATE1\r", "ATE1\r\n")
	if msg, err := em.WaitEvent("ATE1\r", time.Millisecond); err != nil || msg != "ATE1\r\n" {
		t.Errorf("WaitEvent = %q, %v", msg, err)
	}
}

func TestResetDropsStale(t *testing.T) {
	em := EventEmitterCreate()
	em.SetEvent("AT\r", "ERROR\r\n")
	em.ResetEvent("AT\r")
	if _, err := em.WaitEvent("AT\r", 10*time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Errorf("want timeout, got %v", err)
	}
}

func TestSetEventReplaces(t *testing.T) {
	em := EventEmitterCreate()
	em.SetEvent("x", "one")
	em.SetEvent("x", "two")
	if msg, _ := em.WaitEvent("x", time.Millisecond); msg != "two" {
		t.Errorf("got %q", msg)
	}
	if em.GetEvent("x").Id != "x" {
		t.Error("GetEvent id")
	}
}
