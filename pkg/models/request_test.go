package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestJSONIsFlat(t *testing.T) {
	req := Request{
		ID:           "r1",
		Kind:         KindArduino,
		Status:       StatusPendiente,
		EstudianteID: "u1",
		Details: Details{
			Curso:       "Robótica",
			Fecha:       "2025-11-01",
			Integrantes: []Integrante{},
		},
		Payload: KitLoan{
			TemaProyecto: "Semáforo",
			KitArduino:   "UNO-3",
			ComponentesIncluidos: map[string]Componente{
				"leds": {Incluido: true, Cantidad: 4},
			},
		},
		CreatedAt: time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC),
	}

	raw, err := json.Marshal(req)
	require.NoError(t, err)
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))

	assert.JSONEq(t, `"UNO-3"`, string(fields["kitArduino"]))
	assert.JSONEq(t, `"Robótica"`, string(fields["curso"]))
	assert.JSONEq(t, `"ARDUINO"`, string(fields["kind"]))
	assert.JSONEq(t, `{"leds":{"incluido":true,"cantidad":4}}`, string(fields["componentesIncluidos"]))
	assert.NotContains(t, fields, "Payload")
	assert.NotContains(t, fields, "autorizacion")
}

func TestDecodePayload(t *testing.T) {
	p, err := DecodePayload(KindServidor, []byte(`{"servidor":"Server2","incluirMouse":true}`))
	require.NoError(t, err)
	assert.Equal(t, ServerLoan{Servidor: "Server2", IncluirMouse: true}, p)
	assert.Equal(t, "Server2", p.Resource())

	_, err = DecodePayload("IMPRESORA", []byte(`{}`))
	assert.Error(t, err)

	_, err = DecodePayload(KindArduino, []byte(`not json`))
	assert.Error(t, err)
}

func TestDecision(t *testing.T) {
	blank := "   "
	reason := "  sin stock "
	tests := []struct {
		name    string
		in      Decision
		razon   *string
		invalid bool
	}{
		{name: "approve", in: Decision{Accion: AccionAprobada}},
		{name: "approve with blank reason", in: Decision{Accion: AccionAprobada, Razon: &blank}},
		{name: "reject with reason", in: Decision{Accion: AccionRechazada, Razon: &reason}, razon: strPtr("sin stock")},
		{name: "reject without reason", in: Decision{Accion: AccionRechazada, Razon: &blank}, invalid: true},
		{name: "unknown action", in: Decision{Accion: "PENDIENTE"}, invalid: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.in
			d.Normalize()
			err := d.Validate()
			if tt.invalid {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.razon, d.Razon)
			assert.Equal(t, Status(d.Accion), d.Accion.Status())
		})
	}
}

func TestRoleCapabilities(t *testing.T) {
	assert.True(t, RoleEstudiante.CanCreate())
	assert.True(t, RoleEstudiante.CanDelete())
	assert.False(t, RoleEstudiante.SeesAll())
	assert.False(t, RoleEstudiante.CanAuthorize())

	assert.True(t, RoleSoporte.CanAuthorize())
	assert.True(t, RoleSoporte.SeesAll())
	assert.False(t, RoleSoporte.CanCreate())

	assert.True(t, RoleMetricas.CanReport())
	assert.True(t, RoleMetricas.SeesAll())
	assert.False(t, RoleMetricas.CanAuthorize())

	assert.False(t, Role("ADMIN").Valid())
	assert.True(t, StatusRechazada.Terminal())
	assert.False(t, StatusPendiente.Terminal())
}

func strPtr(s string) *string {
	return &s
}
