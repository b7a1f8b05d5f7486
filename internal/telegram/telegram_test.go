package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"github.com/pershin-daniil/LabLoans/pkg/models"
)

const chatID = 42

type fakeAPI struct {
	mu   sync.Mutex
	sent []map[string]interface{}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	params := map[string]interface{}{}
	_ = json.NewDecoder(r.Body).Decode(&params)
	f.mu.Lock()
	f.sent = append(f.sent, params)
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"group"},"text":"ok"}}`))
}

func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, p := range f.sent {
		text, _ := p["text"].(string)
		out = append(out, text)
	}
	return out
}

type fakeStore struct {
	reqs []models.Request
	err  error
}

func (f fakeStore) ListRequests(_ context.Context, filter models.RequestFilter) ([]models.Request, error) {
	if filter.Status != models.StatusPendiente {
		return nil, errors.New("unexpected filter")
	}
	return f.reqs, f.err
}

func newTestBot(t *testing.T) (*tele.Bot, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	bot, err := tele.NewBot(tele.Settings{
		URL:     srv.URL,
		Token:   "test-token",
		Offline: true,
	})
	require.NoError(t, err)
	return bot, api
}

func TestNotifier(t *testing.T) {
	bot, api := newTestBot(t)
	n := NewNotifier(logrus.New(), bot, chatID)

	require.NoError(t, n.Notify(context.Background(), "solicitud aprobada"))
	require.Equal(t, []string{"solicitud aprobada"}, api.texts())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, n.Notify(ctx, "late"), context.Canceled)
	require.Len(t, api.texts(), 1)
}

func TestPendingHandler(t *testing.T) {
	bot, api := newTestBot(t)
	store := fakeStore{reqs: []models.Request{{
		ID:      "r1",
		Kind:    models.KindServidor,
		Details: models.Details{Fecha: "2025-11-01"},
		Payload: models.ServerLoan{Servidor: "SRV-01"},
		Estudiante: &models.PublicUser{
			Nombre: "Ana",
		},
	}}}
	tg := New(logrus.New(), bot, chatID, store)

	update := tele.Update{Message: &tele.Message{Chat: &tele.Chat{ID: chatID}, Text: cmdPending}}
	require.NoError(t, tg.pendingHandler(bot.NewContext(update)))
	texts := api.texts()
	require.Len(t, texts, 1)
	require.True(t, strings.HasPrefix(texts[0], "Solicitudes pendientes: 1"))
	require.Contains(t, texts[0], "SERVIDOR SRV-01 para 2025-11-01 (Ana)")

	other := tele.Update{Message: &tele.Message{Chat: &tele.Chat{ID: 7}, Text: cmdPending}}
	require.NoError(t, tg.pendingHandler(bot.NewContext(other)))
	require.Len(t, api.texts(), 1)
}

func TestPendingTextEmpty(t *testing.T) {
	bot, _ := newTestBot(t)
	tg := New(logrus.New(), bot, chatID, fakeStore{})
	msg, err := tg.pendingText(context.Background())
	require.NoError(t, err)
	require.Equal(t, "No hay solicitudes pendientes.", msg)
}
