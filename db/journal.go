/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/
package db

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/gbatanov/zlock/lock"
)

const JOURNAL_QUEUE_SIZE = 64

type store interface {
	InsertEvent(r Record) error
	LastEvents(n int) ([]Record, error)
}

// Journal writes lock events to the database off the controller goroutine.
type Journal struct {
	db     store
	queue  chan Record
	// mu guards closed against a send on the closed queue
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
	log    zerolog.Logger
}

func JournalCreate(db store, log zerolog.Logger) *Journal {
	j := &Journal{
		db:    db,
		queue: make(chan Record, JOURNAL_QUEUE_SIZE),
		log:   log.With().Str("component", "journal").Logger(),
	}
	j.wg.Add(1)
	go j.writer()
	return j
}

func (j *Journal) LockEvent(e lock.Event) {
	r := Record{Ts: e.Time, Kind: e.Kind.String(), Attempt: e.Attempt, Context: e.Context.String()}
	if e.Err != nil {
		r.Detail = e.Err.Error()
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return
	}
	select {
	case j.queue <- r:
	default:
		j.log.Warn().Str("kind", r.Kind).Msg("journal queue full")
	}
}

func (j *Journal) LastEvents(n int) ([]Record, error) {
	return j.db.LastEvents(n)
}

// Stop writes out what is queued and returns.
func (j *Journal) Stop() {
	j.mu.Lock()
	if !j.closed {
		j.closed = true
		close(j.queue)
	}
	j.mu.Unlock()
	j.wg.Wait()
}

func (j *Journal) writer() {
	defer j.wg.Done()
	for r := range j.queue {
		if err := j.db.InsertEvent(r); err != nil {
			j.log.Error().Err(err).Str("kind", r.Kind).Msg("insert")
		}
	}
}
