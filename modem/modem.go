/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/
package modem

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf16"

	"github.com/rs/zerolog"

	"github.com/gbatanov/zlock/event"
	"github.com/gbatanov/zlock/lock"
	"github.com/gbatanov/zlock/serial3"
)

const (
	RX_QUEUE_SIZE  = 256
	SMS_QUEUE_SIZE = 8
	// UCS2 SMS holds 70 characters
	SMS_MAX_CHARS = 70

	DefaultBaud = 9600
)

// минута нужна для правильного ответа на исходящие команды
var CommandTimeout = 60 * time.Second

// port is the write side of the modem UART.
type port interface {
	Write(b []byte) error
}

type GsmModem struct {
	uart  *serial3.Uart
	port  port
	input chan []byte
	sms   chan string
	phone string
	Flag  atomic.Bool
	em    *event.EventEmitter
	log   zerolog.Logger
}

// GsmModemCreate prepares a SIM800 on the given port. phone is the owner
// number in international format without '+', e.g. 79250109365.
func GsmModemCreate(portName string, baud int, phone string, log zerolog.Logger) *GsmModem {
	if baud == 0 {
		baud = DefaultBaud
	}
	uart := serial3.UartCreate(portName, baud, log)
	mdm := newModem(uart, phone, log)
	mdm.uart = uart
	return mdm
}

func newModem(p port, phone string, log zerolog.Logger) *GsmModem {
	mdm := &GsmModem{
		port:  p,
		input: make(chan []byte, RX_QUEUE_SIZE),
		sms:   make(chan string, SMS_QUEUE_SIZE),
		phone: strings.TrimPrefix(phone, "+"),
		em:    event.EventEmitterCreate(),
		log:   log.With().Str("component", "modem").Logger(),
	}
	mdm.Flag.Store(true)
	return mdm
}

func (mdm *GsmModem) Open() error {
	if err := mdm.uart.Open(); err != nil {
		return err
	}
	go mdm.uart.Loop(mdm.input)
	go mdm.dispatch()
	// инициализацию модема делаем синхронно
	if err := mdm.InitModem(); err != nil {
		return err
	}
	go mdm.smsSender()
	return nil
}

func (mdm *GsmModem) Stop() {
	mdm.Flag.Store(false)
	if mdm.uart != nil {
		mdm.uart.Stop()
	}
}

// Цикл обработки принятых сообщений
func (mdm *GsmModem) dispatch() {
	for mdm.Flag.Load() {
		buff, ok := <-mdm.input
		if !ok {
			return
		}
		answer := string(buff)
		if id, msg, ok := parseAnswer(answer); ok {
			mdm.log.Debug().Str("cmd", strings.TrimSpace(id)).Str("answer", strings.TrimSpace(msg)).Msg("answer on command")
			mdm.em.SetEvent(id, msg)
			continue
		}
		if strings.HasPrefix(answer, "\r\nRING") {
			// the lock does not take calls
			go mdm.HangOut()
			continue
		}
		mdm.log.Debug().Str("text", strings.TrimSpace(answer)).Msg("unsolicited")
	}
}

// parseAnswer splits an echoed command from its answer.
// "AT\r\r\nOK\r\n" gives ("AT\r", "OK\r\n").
// The final part of an SMS is not echoed with \r, its answer is +CMGS.
func parseAnswer(buff string) (id string, answer string, ok bool) {
	if pos := strings.Index(buff, "\r\n+CMGS"); pos >= 0 && !strings.Contains(buff, "\r\r\n") {
		return buff[:pos] + "\x1A", "OK\r\n", true
	}
	if strings.Contains(buff, "\r\r\n") {
		parts := strings.SplitN(buff, "\r\r\n", 2)
		return parts[0] + "\r", parts[1], true
	}
	return "", "", false
}

// Стартовая инициализация модема:
// устанавливаем ответ с эхом, включаем АОН, текстовый режим СМС,
// очищаем очередь смс-сообщений
func (mdm *GsmModem) InitModem() error {
	if _, err := mdm.sendCommand("AT\r", "OK"); err != nil {
		return fmt.Errorf("modem not answering: %w", err)
	}
	mdm.sendCommand("ATE1\r", "ATE1")
	mdm.sendCommand("AT+CLIP=1\r", "OK")
	mdm.sendCommand("AT+CMGF=1\r", "OK")
	mdm.sendCommand("AT+CMGD=1,4\r", "OK")
	mdm.log.Info().Msg("Модем инициализирован")
	return nil
}

// Синхронные команды
// waitAnswer - ожидаемый положительный ответ
// Если ответ не совпал, в ошибке вернется принятый ответ
func (mdm *GsmModem) sendCommand(cmd string, waitAnswer string) (bool, error) {
	mdm.log.Debug().Str("cmd", strings.TrimSpace(cmd)).Msg("send command")
	mdm.em.ResetEvent(cmd)
	if err := mdm.port.Write([]byte(cmd)); err != nil {
		return false, err
	}
	result, err := mdm.em.WaitEvent(cmd, CommandTimeout)
	if err != nil {
		return false, err
	}
	if waitAnswer != "> " { // Приглашение на ввод СМС не завершается \r\n
		waitAnswer = waitAnswer + "\r\n"
	}
	if result == waitAnswer {
		return true, nil
	}
	return false, errors.New(strings.TrimSpace(result))
}

// Повесить трубку
func (mdm *GsmModem) HangOut() {
	mdm.sendCommand("ATH0\r", "OK")
}

// LockEvent queues an SMS to the owner when the alarm goes off.
func (mdm *GsmModem) LockEvent(e lock.Event) {
	if e.Kind != lock.AlarmRaised {
		return
	}
	msg := fmt.Sprintf("Тревога! Замок: %d неверных пароля %s", e.Attempt, e.Time.Format("02.01 15:04"))
	select {
	case mdm.sms <- msg:
	default:
		mdm.log.Warn().Msg("sms queue full, alarm message dropped")
	}
}

func (mdm *GsmModem) smsSender() {
	for mdm.Flag.Load() {
		msg := <-mdm.sms
		if !mdm.SendSms(msg) {
			mdm.log.Error().Msg("alarm sms not sent")
		}
	}
}

// SendSms sends text to the owner in PDU mode, UCS2 coded.
//
//	AT+CMGS=<len>\r     >
//	<pdu>\x1A           +CMGS: 15 OK
func (mdm *GsmModem) SendSms(text string) bool {
	pdu, tpduLen := buildPdu(mdm.phone, text)

	mdm.sendCommand("AT+CMGF=0\r", "OK")
	defer mdm.sendCommand("AT+CMGF=1\r", "OK")

	res, err := mdm.sendCommand("AT+CMGS="+strconv.Itoa(tpduLen)+"\r", "> ")
	if !res {
		mdm.log.Error().Err(err).Msg("Ответ > не получен")
		return false
	}
	res, err = mdm.sendCommand(pdu+"\x1A", "OK")
	if !res {
		mdm.log.Error().Err(err).Msg("sms")
		return false
	}
	mdm.log.Info().Msg("Сообщение отправлено")
	return true
}

// buildPdu builds an SMS-SUBMIT with the default SMS centre.
//
// 00 - номер SMS центра по умолчанию
// 11 - SMS-SUBMIT, относительный срок доставки
// 00 - номер сообщения
// 0B - длина номера получателя (11 цифр)
// 91 - международный формат
// 9752109063F5 - номер, пары цифр переставлены
// 00 - идентификатор протокола
// 08 - UCS2
// C1 - срок доставки, неделя
// NN - длина текста в байтах
func buildPdu(phone, text string) (pdu string, tpduLen int) {
	ud := ucs2(text)
	tpdu := "1100" + fmt.Sprintf("%02X", len(phone)) + "91" + semiOctets(phone) +
		"0008C1" + fmt.Sprintf("%02X", len(ud)/2) + ud
	return "00" + tpdu, len(tpdu) / 2
}

// semiOctets swaps digit pairs, padding an odd number with F:
// 79250109365 -> 9752109063F5
func semiOctets(phone string) string {
	if len(phone)%2 == 1 {
		phone += "F"
	}
	b := []byte(phone)
	for i := 0; i+1 < len(b); i += 2 {
		b[i], b[i+1] = b[i+1], b[i]
	}
	return string(b)
}

// Перекодировка в UCS2, не больше SMS_MAX_CHARS символов
func ucs2(msg string) string {
	units := utf16.Encode([]rune(msg))
	if len(units) > SMS_MAX_CHARS {
		units = units[:SMS_MAX_CHARS]
	}
	var sb strings.Builder
	for _, u := range units {
		fmt.Fprintf(&sb, "%04X", u)
	}
	return sb.String()
}
