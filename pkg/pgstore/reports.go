package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/pershin-daniil/LabLoans/pkg/models"
)

// Stats aggregates requests of the given kind, or of every kind when kind is empty.
func (s *Store) Stats(ctx context.Context, kind models.Kind, top int) (_ models.Stats, err error) {
	defer observe("Stats", time.Now(), &err)
	stats := models.Stats{
		PorRecurso:     []models.ResourceCount{},
		PorSemestre:    []models.SemesterCount{},
		TopEstudiantes: []models.TopRequester{},
	}
	err = s.retry(ctx, "Stats", func() error {
		if err := s.db.GetContext(ctx, &stats.Resumen, `
SELECT count(*) AS total,
       count(*) FILTER (WHERE status = 'PENDIENTE') AS pendientes,
       count(*) FILTER (WHERE status = 'APROBADA') AS aprobadas,
       count(*) FILTER (WHERE status = 'RECHAZADA') AS rechazadas
FROM requests
WHERE ($1 = '' OR kind = $1);`, string(kind)); err != nil {
			return fmt.Errorf("err counting requests: %w", err)
		}
		stats.PorRecurso = stats.PorRecurso[:0]
		if err := s.db.SelectContext(ctx, &stats.PorRecurso, `
SELECT recurso, count(*) AS cantidad
FROM requests
WHERE ($1 = '' OR kind = $1)
GROUP BY recurso
ORDER BY cantidad DESC, recurso;`, string(kind)); err != nil {
			return fmt.Errorf("err counting by resource: %w", err)
		}
		stats.PorSemestre = stats.PorSemestre[:0]
		if err := s.db.SelectContext(ctx, &stats.PorSemestre, `
SELECT semestre, count(*) AS cantidad
FROM requests
WHERE ($1 = '' OR kind = $1)
GROUP BY semestre
ORDER BY semestre;`, string(kind)); err != nil {
			return fmt.Errorf("err counting by semester: %w", err)
		}
		stats.TopEstudiantes = stats.TopEstudiantes[:0]
		if err := s.db.SelectContext(ctx, &stats.TopEstudiantes, `
SELECT u.nombre AS estudiante, u.email, count(*) AS cantidad
FROM requests r
JOIN users u ON u.id = r.estudiante_id
WHERE ($1 = '' OR r.kind = $1)
GROUP BY u.id, u.nombre, u.email
ORDER BY cantidad DESC, u.nombre
LIMIT $2;`, string(kind), top); err != nil {
			return fmt.Errorf("err ranking students: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Stats{}, err
	}
	return stats, nil
}

// Timeline counts requests created since the given instant per UTC day,
// oldest day first. Days without requests are omitted.
func (s *Store) Timeline(ctx context.Context, kind models.Kind, since time.Time) (_ []models.TimelineDay, err error) {
	defer observe("Timeline", time.Now(), &err)
	days := []models.TimelineDay{}
	query := `
SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS fecha,
       count(*) AS total,
       count(*) FILTER (WHERE status = 'PENDIENTE') AS pendientes,
       count(*) FILTER (WHERE status = 'APROBADA') AS aprobadas,
       count(*) FILTER (WHERE status = 'RECHAZADA') AS rechazadas
FROM requests
WHERE ($1 = '' OR kind = $1) AND created_at >= $2
GROUP BY 1
ORDER BY 1;`
	err = s.retry(ctx, "Timeline", func() error {
		days = days[:0]
		return s.db.SelectContext(ctx, &days, query, string(kind), since)
	})
	if err != nil {
		return nil, fmt.Errorf("err building timeline: %w", err)
	}
	return days, nil
}
