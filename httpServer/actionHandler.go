/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/
package httpServer

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gbatanov/zlock/db"
)

const (
	DefaultEvents = 20
	MaxEvents     = 500
)

type ActionHandler struct {
	status StatusProvider
	events EventSource
	os     string
	log    zerolog.Logger
}

func NewActionHandler(status StatusProvider, events EventSource, os string, log zerolog.Logger) *ActionHandler {
	ah := ActionHandler{status, events, os, log}
	return &ah
}

func (ah *ActionHandler) page404(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"code": "PAGE_NOT_FOUND", "message": "Page not found"})
}

func (ah *ActionHandler) statusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, ah.status.Status())
}

// /events?n=50
func (ah *ActionHandler) eventsHandler(c *gin.Context) {
	if ah.events == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": "NO_JOURNAL", "message": "Event journal is not configured"})
		return
	}
	n, ok := eventCount(c.Query("n"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_COUNT", "message": "n must be 1.." + strconv.Itoa(MaxEvents)})
		return
	}
	recs, err := ah.events.LastEvents(n)
	if err != nil {
		ah.log.Error().Err(err).Msg("journal")
		c.JSON(http.StatusInternalServerError, gin.H{"code": "JOURNAL_ERROR", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, recs)
}

// Главная страница
func (ah *ActionHandler) otherHandler(c *gin.Context) {
	var recs []db.Record
	if ah.events != nil {
		var err error
		if recs, err = ah.events.LastEvents(DefaultEvents); err != nil {
			ah.log.Warn().Err(err).Msg("journal")
		}
	}
	// HTML ответ на основе шаблона
	c.HTML(http.StatusOK, "index.tmpl", gin.H{"title": "Замок", "status": ah.status.Status(), "events": recs, "os": ah.os})
}

func eventCount(q string) (int, bool) {
	if q == "" {
		return DefaultEvents, true
	}
	n, err := strconv.Atoi(q)
	if err != nil || n < 1 || n > MaxEvents {
		return 0, false
	}
	return n, true
}
