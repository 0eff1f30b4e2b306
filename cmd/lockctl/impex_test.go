package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/gbatanov/zlock/db"
)

func TestWriteEvents(t *testing.T) {
	ts := time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)
	recs := []db.Record{
		{Id: 2, Ts: ts, Kind: "store-failed", Context: "setup", Detail: "write 0x0c8, nack"},
		{Id: 1, Ts: ts, Kind: "verify-failed", Attempt: 1, Context: "main-menu"},
	}
	var buf bytes.Buffer
	if err := writeEvents(&buf, recs); err != nil {
		t.Fatal(err)
	}
	want := "id,ts,kind,attempt,context,detail\n" +
		"1,2023-05-01T10:00:00Z,verify-failed,1,main-menu,\n" +
		"2,2023-05-01T10:00:00Z,store-failed,0,setup,\"write 0x0c8, nack\"\n"
	if buf.String() != want {
		t.Errorf("csv =\n%s\nwant\n%s", buf.String(), want)
	}
}
