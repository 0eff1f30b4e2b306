/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/
package db

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/lib/pq"
)

// Record is one row of lock_events.
type Record struct {
	Id      int64     `json:"id"`
	Ts      time.Time `json:"ts"`
	Kind    string    `json:"kind"`
	Attempt int       `json:"attempt"`
	Context string    `json:"context"`
	Detail  string    `json:"detail,omitempty"`
}

type PostgresDB struct {
	Db *sql.DB
}

func (db PostgresDB) CloseDb() {
	db.Db.Close()
}

// OpenDb opens the journal database,
// dsn like "host=localhost port=5432 user=postgres dbname=zlock sslmode=disable"
func OpenDb(dsn string) (*PostgresDB, error) {
	if dsn == "" {
		return nil, errors.New("empty dsn")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &PostgresDB{Db: db}, nil
}

func (db PostgresDB) CreateTable() error {
	_, err := db.Db.Exec(`CREATE TABLE IF NOT EXISTS lock_events (
		id      serial PRIMARY KEY,
		ts      timestamptz NOT NULL,
		kind    text NOT NULL,
		attempt int NOT NULL DEFAULT 0,
		context text NOT NULL DEFAULT '',
		detail  text NOT NULL DEFAULT ''
	)`)
	return err
}

func (db PostgresDB) InsertEvent(r Record) error {
	_, err := db.Db.Exec("INSERT INTO lock_events (ts, kind, attempt, context, detail) VALUES ($1, $2, $3, $4, $5)",
		r.Ts, r.Kind, r.Attempt, r.Context, r.Detail)
	return err
}

// LastEvents returns up to n latest records, newest first.
func (db PostgresDB) LastEvents(n int) ([]Record, error) {
	rows, err := db.Db.Query("SELECT id, ts, kind, attempt, context, detail FROM lock_events ORDER BY id DESC LIMIT $1", n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []Record{}
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Id, &r.Ts, &r.Kind, &r.Attempt, &r.Context, &r.Detail); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
