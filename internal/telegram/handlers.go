package telegram

import (
	"context"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"github.com/pershin-daniil/LabLoans/pkg/models"
)

const (
	cmdStart   = "/start"
	cmdPending = "/pendientes"

	maxListed = 20
)

func (t *Telegram) initHandlers() {
	t.bot.Handle(cmdStart, t.startHandler)
	t.bot.Handle(cmdPending, t.pendingHandler)
	t.bot.Handle(&refreshBtn, t.refreshHandler)
}

func (t *Telegram) allowed(c tele.Context) bool {
	return c.Chat() != nil && tele.ChatID(c.Chat().ID) == t.chat
}

func (t *Telegram) startHandler(c tele.Context) error {
	if !t.allowed(c) {
		return nil
	}
	return c.Send("Bot de préstamos del laboratorio. Usa " + cmdPending + " para ver las solicitudes sin decidir.")
}

func (t *Telegram) pendingHandler(c tele.Context) error {
	if !t.allowed(c) {
		return nil
	}
	msg, err := t.pendingText(context.Background())
	if err != nil {
		t.log.Warnf("err listing pending requests: %v", err)
		return c.Send("No se pudo consultar las solicitudes.")
	}
	return c.Send(msg, pending)
}

func (t *Telegram) refreshHandler(c tele.Context) error {
	if !t.allowed(c) {
		return c.Respond()
	}
	msg, err := t.pendingText(context.Background())
	if err != nil {
		t.log.Warnf("err listing pending requests: %v", err)
		return c.Respond(&tele.CallbackResponse{Text: "Error al consultar"})
	}
	return c.Edit(msg, pending)
}

func (t *Telegram) pendingText(ctx context.Context) (string, error) {
	reqs, err := t.store.ListRequests(ctx, models.RequestFilter{Status: models.StatusPendiente})
	if err != nil {
		return "", err
	}
	if len(reqs) == 0 {
		return "No hay solicitudes pendientes.", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Solicitudes pendientes: %d\n", len(reqs))
	for i, req := range reqs {
		if i == maxListed {
			fmt.Fprintf(&b, "... y %d más", len(reqs)-maxListed)
			break
		}
		fmt.Fprintf(&b, "- %s %s para %s (%s)\n", req.Kind, req.Resource(), req.Fecha, estudiante(req))
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func estudiante(req models.Request) string {
	if req.Estudiante == nil {
		return req.EstudianteID
	}
	return req.Estudiante.Nombre
}
