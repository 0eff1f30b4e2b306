package main

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/gbatanov/zlock/db"
)

const exportLimit = 10000

// Читаем журнал из базы и пишем в файл
func exportEvents(dsn string, filename string, log zerolog.Logger) error {
	pg, err := db.OpenDb(dsn)
	if err != nil {
		return err
	}
	defer pg.CloseDb()

	recs, err := pg.LastEvents(exportLimit)
	if err != nil {
		return err
	}

	fd, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer fd.Close()
	if err := writeEvents(fd, recs); err != nil {
		return err
	}
	log.Info().Int("records", len(recs)).Str("file", filename).Msg("export success")
	return nil
}

// writeEvents writes records oldest first, one CSV line each.
func writeEvents(w io.Writer, recs []db.Record) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"id", "ts", "kind", "attempt", "context", "detail"})
	for i := len(recs) - 1; i >= 0; i-- {
		r := recs[i]
		cw.Write([]string{
			strconv.FormatInt(r.Id, 10),
			r.Ts.Format(time.RFC3339),
			r.Kind,
			strconv.Itoa(r.Attempt),
			r.Context,
			r.Detail,
		})
	}
	cw.Flush()
	return cw.Error()
}
