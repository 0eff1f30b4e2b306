/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/
package telega32

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/gbatanov/zlock/lock"
)

// Сообщения снаружи боту
type Message struct {
	ChatId int64
	Msg    string
}

// StatusProvider is what /status reports on.
type StatusProvider interface {
	Status() lock.Status
}

type Tlg32 struct {
	botApi    *tgbotapi.BotAPI
	mode      string
	MyId      int64
	botName   string
	chatIds   []int64
	Flag      atomic.Bool
	tokenPath string
	token     string
	MsgChan   chan Message
	status    StatusProvider
	log       zerolog.Logger
}

func Tlg32Create(botName string, mode string, tokenPath string, myId int64, status StatusProvider, log zerolog.Logger) *Tlg32 {
	bot := Tlg32{}
	bot.mode = mode
	bot.tokenPath = tokenPath
	bot.botName = botName
	bot.MyId = myId
	bot.chatIds = append(bot.chatIds, myId)
	bot.Flag.Store(true)
	bot.MsgChan = make(chan Message, 16)
	bot.status = status
	bot.log = log.With().Str("component", "telega32").Logger()
	return &bot
}

func (bot *Tlg32) get_token() error {
	token, err := os.ReadFile(bot.tokenPath)
	if err != nil {
		return err
	}
	// remove trailing CR LF SPACE
	bot.token = strings.TrimRight(string(token), "\r\n ")
	if bot.token == "" {
		return errors.New("empty token file")
	}
	return nil
}

func (bot *Tlg32) Stop() {
	bot.Flag.Store(false)
	if bot.botApi != nil {
		bot.botApi.StopReceivingUpdates()
	}
	bot.log.Info().Msg("Telegram stopped")
}

func (bot *Tlg32) Run() error {
	err := bot.get_token()
	if err != nil {
		return err
	}

	bot.botApi, err = tgbotapi.NewBotAPI(bot.token)
	if err != nil {
		return errors.New("incorrect token")
	}
	bot.botApi.Debug = bot.mode == "test"

	bot.log.Info().Str("account", bot.botApi.Self.UserName).Msg("Telebot authorized")

	go bot.send_msg()

	go func() {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		for bot.Flag.Load() {
			updates := bot.My_get_updates_chan(u)
			for update := range updates {
				if !bot.Flag.Load() {
					return
				}
				if update.Message == nil {
					continue
				}
				chatId := update.Message.Chat.ID
				firstName := update.Message.From.FirstName
				bot.log.Debug().Str("from", firstName).Str("text", update.Message.Text).Msg("message in")
				outMsg, err := bot.handle_msg_in(update.Message.Text, chatId, firstName)
				if err != nil {
					bot.log.Warn().Int64("chat", chatId).Err(err).Msg("rejected")
				}
				bot.MsgChan <- Message{ChatId: chatId, Msg: outMsg}
			}
		}
	}()
	return nil
}

func (bot *Tlg32) send_msg() {
	for bot.Flag.Load() {
		inMsg := <-bot.MsgChan
		msg := tgbotapi.NewMessage(inMsg.ChatId, inMsg.Msg)
		if _, err := bot.botApi.Send(msg); err != nil {
			bot.log.Error().Err(err).Msg("send")
		}
	}
}

// GetUpdatesChan starts and returns a channel for getting updates.
func (bot *Tlg32) My_get_updates_chan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	ch := make(chan tgbotapi.Update, bot.botApi.Buffer)
	go func() {
		defer close(ch)
		for bot.Flag.Load() {
			updates, err := bot.botApi.GetUpdates(config)
			if err != nil {
				bot.log.Error().Err(err).Msg("Failed to get updates")
				if strings.Contains(err.Error(), "Conflict:") {
					bot.Flag.Store(false)
					return
				}
				continue
			}
			for _, update := range updates {
				if update.UpdateID >= config.Offset {
					config.Offset = update.UpdateID + 1
					ch <- update
				}
			}
		}
	}()
	return ch
}

// Обработчик входящих сообщений
func (bot *Tlg32) handle_msg_in(msg string, chatId int64, firstName string) (string, error) {
	// ID входит в список разрешенных
	found := false
	for _, acc := range bot.chatIds {
		if chatId == acc {
			found = true
			break
		}
	}
	if strings.Contains(msg, "/start") {
		return fmt.Sprintf("Привет, %s!", firstName), nil
	}
	if strings.Contains(msg, "/stop") {
		return fmt.Sprintf("Good bye, %s!", firstName), nil
	}
	if !found {
		return "Фиг вам!", errors.New("запрос не принят")
	}
	if strings.Contains(msg, "/status") {
		return FormatStatus(bot.status.Status()), nil
	}
	return "Ok", nil
}

func FormatStatus(st lock.Status) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Замок: %s", st.State)
	if st.State == lock.AwaitingVerify {
		fmt.Fprintf(&sb, " (%s, попытка %d)", st.Context, st.Attempt)
	}
	fmt.Fprintf(&sb, "\nДверь: %s\nПароль задан: %v\nТревог: %d\nОткрытий: %d",
		st.Door, st.HasCredential, st.Alarms, st.DoorCycles)
	if st.LastEvent != nil {
		fmt.Fprintf(&sb, "\nПоследнее событие: %s %s", st.LastEvent.Kind, st.LastEvent.Time.Format("02.01 15:04:05"))
	}
	return sb.String()
}

// LockEvent notifies the owner about the alarm, store failures and the door.
func (bot *Tlg32) LockEvent(e lock.Event) {
	var text string
	switch e.Kind {
	case lock.AlarmRaised:
		text = "Тревога! Три неверных пароля подряд"
	case lock.AlarmCleared:
		text = "Тревога снята"
	case lock.StoreFailed:
		text = "Ошибка EEPROM: " + errString(e.Err)
	case lock.DoorOpening:
		text = "Дверь открывается"
	default:
		return
	}
	select {
	case bot.MsgChan <- Message{ChatId: bot.MyId, Msg: text}:
	default:
		bot.log.Warn().Stringer("event", e.Kind).Msg("telegram queue full")
	}
}

func errString(err error) string {
	if err == nil {
		return "unknown"
	}
	return err.Error()
}
