package telegram

import tele "gopkg.in/telebot.v3"

func (t *Telegram) initButtons() {
	pending.Inline(
		pending.Row(refreshBtn))
}

var (
	pending    = &tele.ReplyMarkup{}
	refreshBtn = pending.Data("Actualizar", "refresh")
)
