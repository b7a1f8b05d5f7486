package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pershin-daniil/LabLoans/pkg/models"
)

const selectRequests = `
SELECT r.id, r.kind, r.status, r.estudiante_id,
       r.docente_responsable, r.curso, r.semestre, to_char(r.fecha, 'YYYY-MM-DD') AS fecha,
       r.hora_entrada, r.hora_salida, r.codigo_responsable, r.nombre_responsable,
       r.integrantes, r.soporte, r.payload, r.created_at, r.updated_at,
       e.nombre AS estudiante_nombre, e.email AS estudiante_email,
       a.id AS autorizacion_id, a.soporte_id, a.accion, a.razon, a.created_at AS autorizacion_created_at,
       s.nombre AS soporte_nombre, s.email AS soporte_email
FROM requests r
JOIN users e ON e.id = r.estudiante_id
LEFT JOIN authorizations a ON a.request_id = r.id
LEFT JOIN users s ON s.id = a.soporte_id`

type requestRow struct {
	ID                    string         `db:"id"`
	Kind                  models.Kind    `db:"kind"`
	Status                models.Status  `db:"status"`
	EstudianteID          string         `db:"estudiante_id"`
	DocenteResponsable    string         `db:"docente_responsable"`
	Curso                 string         `db:"curso"`
	Semestre              string         `db:"semestre"`
	Fecha                 string         `db:"fecha"`
	HoraEntrada           string         `db:"hora_entrada"`
	HoraSalida            string         `db:"hora_salida"`
	CodigoResponsable     string         `db:"codigo_responsable"`
	NombreResponsable     string         `db:"nombre_responsable"`
	Integrantes           []byte         `db:"integrantes"`
	Soporte               string         `db:"soporte"`
	Payload               []byte         `db:"payload"`
	CreatedAt             time.Time      `db:"created_at"`
	UpdatedAt             time.Time      `db:"updated_at"`
	EstudianteNombre      string         `db:"estudiante_nombre"`
	EstudianteEmail       string         `db:"estudiante_email"`
	AutorizacionID        sql.NullString `db:"autorizacion_id"`
	SoporteID             sql.NullString `db:"soporte_id"`
	Accion                sql.NullString `db:"accion"`
	Razon                 sql.NullString `db:"razon"`
	AutorizacionCreatedAt sql.NullTime   `db:"autorizacion_created_at"`
	SoporteNombre         sql.NullString `db:"soporte_nombre"`
	SoporteEmail          sql.NullString `db:"soporte_email"`
}

func (row requestRow) toModel() (models.Request, error) {
	payload, err := models.DecodePayload(row.Kind, row.Payload)
	if err != nil {
		return models.Request{}, err
	}
	integrantes := []models.Integrante{}
	if len(row.Integrantes) > 0 {
		if err = json.Unmarshal(row.Integrantes, &integrantes); err != nil {
			return models.Request{}, fmt.Errorf("err decoding integrantes of request %s: %w", row.ID, err)
		}
	}
	req := models.Request{
		ID:           row.ID,
		Kind:         row.Kind,
		Status:       row.Status,
		EstudianteID: row.EstudianteID,
		Details: models.Details{
			DocenteResponsable: row.DocenteResponsable,
			Curso:              row.Curso,
			Semestre:           row.Semestre,
			Fecha:              row.Fecha,
			HoraEntrada:        row.HoraEntrada,
			HoraSalida:         row.HoraSalida,
			CodigoResponsable:  row.CodigoResponsable,
			NombreResponsable:  row.NombreResponsable,
			Integrantes:        integrantes,
			Soporte:            row.Soporte,
		},
		Payload:   payload,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		Estudiante: &models.PublicUser{
			ID:     row.EstudianteID,
			Nombre: row.EstudianteNombre,
			Email:  row.EstudianteEmail,
		},
	}
	if row.AutorizacionID.Valid {
		auth := &models.Authorization{
			ID:        row.AutorizacionID.String,
			RequestID: row.ID,
			SoporteID: row.SoporteID.String,
			Accion:    models.Accion(row.Accion.String),
			CreatedAt: row.AutorizacionCreatedAt.Time,
			Soporte: &models.PublicUser{
				ID:     row.SoporteID.String,
				Nombre: row.SoporteNombre.String,
				Email:  row.SoporteEmail.String,
			},
		}
		if row.Razon.Valid {
			razon := row.Razon.String
			auth.Razon = &razon
		}
		req.Autorizacion = auth
	}
	return req, nil
}

func (s *Store) CreateRequest(ctx context.Context, req models.Request) (_ models.Request, err error) {
	defer observe("CreateRequest", time.Now(), &err)
	if err = insertRequest(ctx, s.db, req); err != nil {
		return models.Request{}, err
	}
	return s.GetRequest(ctx, req.Kind, req.ID)
}

func insertRequest(ctx context.Context, q sqlx.ExtContext, req models.Request) error {
	integrantes, err := json.Marshal(req.Integrantes)
	if err != nil {
		return fmt.Errorf("err encoding integrantes: %w", err)
	}
	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return fmt.Errorf("err encoding payload: %w", err)
	}
	query := `
INSERT INTO requests (id, kind, status, estudiante_id, docente_responsable, curso, semestre, fecha,
                      hora_entrada, hora_salida, codigo_responsable, nombre_responsable, integrantes,
                      soporte, recurso, payload, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $17);`
	_, err = q.ExecContext(ctx, query,
		req.ID, req.Kind, req.Status, req.EstudianteID, req.DocenteResponsable, req.Curso, req.Semestre, req.Fecha,
		req.HoraEntrada, req.HoraSalida, req.CodigoResponsable, req.NombreResponsable, string(integrantes),
		req.Soporte, req.Resource(), string(payload), req.CreatedAt)
	if err != nil {
		return fmt.Errorf("err creating request: %w", err)
	}
	return nil
}

func (s *Store) GetRequest(ctx context.Context, kind models.Kind, id string) (_ models.Request, err error) {
	defer observe("GetRequest", time.Now(), &err)
	var row requestRow
	query := selectRequests + `
WHERE r.id = $1 AND r.kind = $2;`
	err = s.retry(ctx, "GetRequest", func() error {
		return s.db.GetContext(ctx, &row, query, id, kind)
	})
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return models.Request{}, ErrRequestNotFound
	case err != nil:
		return models.Request{}, fmt.Errorf("err getting request %s: %w", id, err)
	}
	return row.toModel()
}

// ListRequests returns the requests matching filter, most recent first.
func (s *Store) ListRequests(ctx context.Context, filter models.RequestFilter) (_ []models.Request, err error) {
	defer observe("ListRequests", time.Now(), &err)
	var (
		conds []string
		args  []interface{}
	)
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		conds = append(conds, fmt.Sprintf("r.kind = $%d", len(args)))
	}
	if filter.EstudianteID != "" {
		args = append(args, filter.EstudianteID)
		conds = append(conds, fmt.Sprintf("r.estudiante_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("r.status = $%d", len(args)))
	}
	if !filter.CreatedBefore.IsZero() {
		args = append(args, filter.CreatedBefore)
		conds = append(conds, fmt.Sprintf("r.created_at < $%d", len(args)))
	}
	query := selectRequests
	if len(conds) > 0 {
		query += `
WHERE ` + strings.Join(conds, ` AND `)
	}
	query += `
ORDER BY r.created_at DESC;`
	var rows []requestRow
	err = s.retry(ctx, "ListRequests", func() error {
		rows = rows[:0]
		return s.db.SelectContext(ctx, &rows, query, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("err listing requests: %w", err)
	}
	requests := make([]models.Request, 0, len(rows))
	for _, row := range rows {
		req, err := row.toModel()
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, nil
}

// AuthorizeRequest moves a pending request to the decided status and records
// the authorization in one transaction. The update only matches pending rows,
// so of two concurrent decisions exactly one wins.
func (s *Store) AuthorizeRequest(ctx context.Context, kind models.Kind, auth models.Authorization) (_ models.Request, err error) {
	defer observe("AuthorizeRequest", time.Now(), &err)
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE requests
SET status = $3,
    updated_at = $4
WHERE id = $1 AND kind = $2 AND status = 'PENDIENTE';`,
			auth.RequestID, kind, auth.Accion.Status(), auth.CreatedAt)
		if err != nil {
			return fmt.Errorf("err updating request status: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("err getting affected rows: %w", err)
		}
		if n == 0 {
			return requestMissingOr(ctx, tx, kind, auth.RequestID, ErrAlreadyProcessed)
		}
		return insertAuthorization(ctx, tx, auth)
	})
	if err != nil {
		return models.Request{}, err
	}
	return s.GetRequest(ctx, kind, auth.RequestID)
}

func insertAuthorization(ctx context.Context, q sqlx.ExtContext, auth models.Authorization) error {
	_, err := q.ExecContext(ctx, `
INSERT INTO authorizations (id, request_id, soporte_id, accion, razon, created_at)
VALUES ($1, $2, $3, $4, $5, $6);`,
		auth.ID, auth.RequestID, auth.SoporteID, auth.Accion, auth.Razon, auth.CreatedAt)
	switch {
	case isUniqueViolation(err):
		return ErrAlreadyProcessed
	case err != nil:
		return fmt.Errorf("err creating authorization: %w", err)
	}
	return nil
}

// DeleteRequest removes a pending request owned by estudianteID.
func (s *Store) DeleteRequest(ctx context.Context, kind models.Kind, id, estudianteID string) (err error) {
	defer observe("DeleteRequest", time.Now(), &err)
	res, err := s.db.ExecContext(ctx, `
DELETE FROM requests
WHERE id = $1 AND kind = $2 AND estudiante_id = $3 AND status = 'PENDIENTE';`, id, kind, estudianteID)
	if err != nil {
		return fmt.Errorf("err deleting request %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("err getting affected rows: %w", err)
	}
	if n == 0 {
		return requestMissingOr(ctx, s.db, kind, id, ErrNotPending)
	}
	return nil
}

// requestMissingOr tells a vanished request apart from one a guarded write
// skipped because it is no longer pending.
func requestMissingOr(ctx context.Context, q sqlx.QueryerContext, kind models.Kind, id string, conflict error) error {
	var status models.Status
	err := sqlx.GetContext(ctx, q, &status, `SELECT status FROM requests WHERE id = $1 AND kind = $2;`, id, kind)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrRequestNotFound
	case err != nil:
		return fmt.Errorf("err checking request %s: %w", id, err)
	}
	return conflict
}
