/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/
package event

import (
	"errors"
	"sync"
	"time"
)

var ErrTimeout = errors.New("event: timeout")

type Event struct {
	Id string
	ch chan string
}

// EventEmitter matches a command sent to a line oriented device with the
// answer that the reader goroutine receives later.
type EventEmitter struct {
	mu     sync.Mutex
	events map[string]*Event
}

func EventEmitterCreate() *EventEmitter {
	return &EventEmitter{events: make(map[string]*Event)}
}

// Ищем событие по идентификатору, если еще нет, создаем новое
func (em *EventEmitter) GetEvent(id string) *Event {
	em.mu.Lock()
	defer em.mu.Unlock()
	return em.getLocked(id)
}

func (em *EventEmitter) getLocked(id string) *Event {
	ev, ok := em.events[id]
	if !ok {
		ev = &Event{Id: id, ch: make(chan string, 1)}
		em.events[id] = ev
	}
	return ev
}

// Устанавливаем событие, id - код команды, msg - сообщение.
// A newer answer replaces one nobody has taken yet.
func (em *EventEmitter) SetEvent(id string, msg string) {
	em.mu.Lock()
	defer em.mu.Unlock()
	ev := em.getLocked(id)
	select {
	case <-ev.ch:
	default:
	}
	ev.ch <- msg
}

// Очищаем событие перед отправкой команды
func (em *EventEmitter) ResetEvent(id string) {
	em.mu.Lock()
	defer em.mu.Unlock()
	ev := em.getLocked(id)
	select {
	case <-ev.ch:
	default:
	}
}

// ждем сообщения с заданным идентификатором.
// ResetEvent has to be called before the command is written, otherwise a
// fast answer may be dropped as stale.
func (em *EventEmitter) WaitEvent(id string, timeout time.Duration) (string, error) {
	ev := em.GetEvent(id)
	timer1 := time.NewTimer(timeout)
	defer timer1.Stop()
	select {
	case msg := <-ev.ch:
		return msg, nil
	case <-timer1.C:
		return "", ErrTimeout
	}
}
