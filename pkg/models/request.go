package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPendiente Status = `PENDIENTE`
	StatusAprobada  Status = `APROBADA`
	StatusRechazada Status = `RECHAZADA`
)

func (s Status) Terminal() bool {
	return s == StatusAprobada || s == StatusRechazada
}

// Kind tags which payload a request carries.
type Kind string

const (
	KindServidor Kind = `SERVIDOR`
	KindArduino  Kind = `ARDUINO`
)

func (k Kind) Valid() bool {
	return k == KindServidor || k == KindArduino
}

type Integrante struct {
	Codigo string `json:"codigo"`
	Nombre string `json:"nombre"`
	Rol    string `json:"rol"`
}

// Details are the requester-supplied fields shared by every request kind.
type Details struct {
	DocenteResponsable string       `json:"docenteResponsable" db:"docente_responsable" validate:"required"`
	Curso              string       `json:"curso" db:"curso" validate:"required"`
	Semestre           string       `json:"semestre" db:"semestre"`
	Fecha              string       `json:"fecha" db:"-" validate:"required,datetime=2006-01-02"`
	HoraEntrada        string       `json:"horaEntrada" db:"hora_entrada" validate:"required,datetime=15:04"`
	HoraSalida         string       `json:"horaSalida" db:"hora_salida" validate:"required,datetime=15:04"`
	CodigoResponsable  string       `json:"codigoResponsable" db:"codigo_responsable"`
	NombreResponsable  string       `json:"nombreResponsable" db:"nombre_responsable"`
	Integrantes        []Integrante `json:"integrantes" db:"-"`
	Soporte            string       `json:"soporte" db:"soporte"`
}

func (d *Details) Normalize() {
	d.DocenteResponsable = strings.TrimSpace(d.DocenteResponsable)
	d.Curso = strings.TrimSpace(d.Curso)
	d.Semestre = strings.TrimSpace(d.Semestre)
	d.Fecha = strings.TrimSpace(d.Fecha)
	d.HoraEntrada = strings.TrimSpace(d.HoraEntrada)
	d.HoraSalida = strings.TrimSpace(d.HoraSalida)
	d.CodigoResponsable = strings.TrimSpace(d.CodigoResponsable)
	d.NombreResponsable = strings.TrimSpace(d.NombreResponsable)
	d.Soporte = strings.TrimSpace(d.Soporte)
	if d.Integrantes == nil {
		d.Integrantes = []Integrante{}
	}
}

// Payload is the kind-specific part of a request.
type Payload interface {
	Kind() Kind
	Resource() string
}

type ServerLoan struct {
	Servidor        string `json:"servidor" validate:"required"`
	SerieServidor   string `json:"serieServidor"`
	TipoServidor    string `json:"tipoServidor"`
	Caracteristicas string `json:"caracteristicas"`
	IncluirMonitor  bool   `json:"incluirMonitor"`
	IncluirTeclado  bool   `json:"incluirTeclado"`
	IncluirMouse    bool   `json:"incluirMouse"`
}

func (ServerLoan) Kind() Kind { return KindServidor }

func (p ServerLoan) Resource() string { return p.Servidor }

type Componente struct {
	Incluido bool `json:"incluido"`
	Cantidad int  `json:"cantidad" validate:"gte=0"`
}

type KitLoan struct {
	TemaProyecto         string                `json:"temaProyecto" validate:"required"`
	KitArduino           string                `json:"kitArduino" validate:"required"`
	EstadoKit            string                `json:"estadoKit" validate:"omitempty,oneof=completo especifico"`
	ComponentesIncluidos map[string]Componente `json:"componentesIncluidos" validate:"dive"`
}

func (KitLoan) Kind() Kind { return KindArduino }

func (p KitLoan) Resource() string { return p.KitArduino }

// DecodePayload restores a stored payload for the given kind.
func DecodePayload(kind Kind, raw []byte) (Payload, error) {
	switch kind {
	case KindServidor:
		var p ServerLoan
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("err decoding server loan payload: %w", err)
		}
		return p, nil
	case KindArduino:
		var p KitLoan
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("err decoding kit loan payload: %w", err)
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown request kind %q", kind)
}

// ServerLoanForm is the flat body students post for a server loan.
type ServerLoanForm struct {
	Details
	ServerLoan
}

func (f ServerLoanForm) Draft() Draft {
	return Draft{Details: f.Details, Payload: f.ServerLoan}
}

// KitLoanForm is the flat body students post for an Arduino kit loan.
type KitLoanForm struct {
	Details
	KitLoan
}

func (f KitLoanForm) Draft() Draft {
	return Draft{Details: f.Details, Payload: f.KitLoan}
}

// Draft is a request that has not been persisted yet.
type Draft struct {
	Details Details
	Payload Payload
}

type Request struct {
	ID           string `json:"id"`
	Kind         Kind   `json:"kind"`
	Status       Status `json:"status"`
	EstudianteID string `json:"estudianteId"`
	Details
	Payload      Payload        `json:"-"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	Estudiante   *PublicUser    `json:"estudiante,omitempty"`
	Autorizacion *Authorization `json:"autorizacion,omitempty"`
}

// MarshalJSON flattens the payload fields next to the shared ones, the same
// shape the forms are posted in.
func (r Request) MarshalJSON() ([]byte, error) {
	type plain Request
	base, err := json.Marshal(plain(r))
	if err != nil || r.Payload == nil {
		return base, err
	}
	extra, err := json.Marshal(r.Payload)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]json.RawMessage)
	if err = json.Unmarshal(extra, &fields); err != nil {
		return nil, err
	}
	if err = json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

func (r Request) Resource() string {
	if r.Payload == nil {
		return ""
	}
	return r.Payload.Resource()
}

type Accion string

const (
	AccionAprobada  Accion = `APROBADA`
	AccionRechazada Accion = `RECHAZADA`
)

func (a Accion) Valid() bool {
	return a == AccionAprobada || a == AccionRechazada
}

func (a Accion) Status() Status {
	return Status(a)
}

// Decision is the body of an authorize call.
type Decision struct {
	Accion Accion  `json:"accion"`
	Razon  *string `json:"razon,omitempty"`
}

func (d *Decision) Normalize() {
	if d.Razon == nil {
		return
	}
	razon := strings.TrimSpace(*d.Razon)
	if razon == "" {
		d.Razon = nil
		return
	}
	d.Razon = &razon
}

func (d Decision) Validate() error {
	if !d.Accion.Valid() {
		return fmt.Errorf("%w: accion must be %s or %s", ErrValidation, AccionAprobada, AccionRechazada)
	}
	if d.Accion == AccionRechazada && d.Razon == nil {
		return fmt.Errorf("%w: razon is required when rejecting", ErrValidation)
	}
	return nil
}

type Authorization struct {
	ID        string      `json:"id"`
	RequestID string      `json:"requestId"`
	SoporteID string      `json:"soporteId"`
	Accion    Accion      `json:"accion"`
	Razon     *string     `json:"razon"`
	CreatedAt time.Time   `json:"createdAt"`
	Soporte   *PublicUser `json:"soporte,omitempty"`
}

// RequestFilter narrows a listing. Zero fields do not filter.
type RequestFilter struct {
	Kind          Kind
	EstudianteID  string
	Status        Status
	CreatedBefore time.Time
}
