package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pershin-daniil/LabLoans/pkg/models"
)

type demoAccount struct {
	email, password, nombre string
	role                    models.Role
}

var demoAccounts = []demoAccount{
	{"estudiante@upt.pe", "estudiante123", "Juan Pérez Estudiante", models.RoleEstudiante},
	{"soporte@upt.pe", "soporte123", "Teli Casilla Maquera", models.RoleSoporte},
	{"jefe@upt.pe", "metricas123", "Admin Reportes", models.RoleMetricas},
}

// Seed wipes the database and loads the demo accounts and two server loans,
// one pending and one approved.
func (s *LoanService) Seed(ctx context.Context) error {
	users := make([]models.User, 0, len(demoAccounts))
	for _, acc := range demoAccounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(acc.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("err hashing password: %w", err)
		}
		users = append(users, models.User{
			ID:           uuid.NewString(),
			Email:        acc.email,
			PasswordHash: string(hash),
			Nombre:       acc.nombre,
			Role:         acc.role,
		})
	}
	student, staff := users[0], users[1]
	now := s.now().UTC()

	pending := models.Request{
		ID:           uuid.NewString(),
		Kind:         models.KindServidor,
		Status:       models.StatusPendiente,
		EstudianteID: student.ID,
		Details: models.Details{
			DocenteResponsable: "Dr. García López",
			Curso:              "Redes I",
			Semestre:           "2025-II",
			Fecha:              "2025-10-25",
			HoraEntrada:        "08:00",
			HoraSalida:         "12:00",
			CodigoResponsable:  "2020001",
			NombreResponsable:  "Juan Pérez",
			Integrantes: []models.Integrante{
				{Codigo: "2020002", Nombre: "María López", Rol: "Estudiante"},
				{Codigo: "2020003", Nombre: "Carlos Ruiz", Rol: "Estudiante"},
			},
			Soporte: staff.Nombre,
		},
		Payload: models.ServerLoan{
			Servidor:        "Server1",
			SerieServidor:   "ABC123",
			TipoServidor:    "Torre",
			Caracteristicas: "8CPU, 16GB RAM",
			IncluirMonitor:  true,
			IncluirTeclado:  true,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	approved := models.Request{
		ID:           uuid.NewString(),
		Kind:         models.KindServidor,
		Status:       models.StatusAprobada,
		EstudianteID: student.ID,
		Details: models.Details{
			DocenteResponsable: "Dra. Ana Martínez",
			Curso:              "Base de Datos II",
			Semestre:           "2025-II",
			Fecha:              "2025-10-26",
			HoraEntrada:        "14:00",
			HoraSalida:         "18:00",
			CodigoResponsable:  "2020001",
			NombreResponsable:  "Juan Pérez",
			Integrantes: []models.Integrante{
				{Codigo: "2020004", Nombre: "Pedro Sánchez", Rol: "Estudiante"},
			},
			Soporte: staff.Nombre,
		},
		Payload: models.ServerLoan{
			Servidor:        "Server2",
			SerieServidor:   "wdeew45",
			TipoServidor:    "Rack",
			Caracteristicas: "16CPU, 32GB RAM",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	razon := "Solicitud completa y válida"
	auth := models.Authorization{
		ID:        uuid.NewString(),
		RequestID: approved.ID,
		SoporteID: staff.ID,
		Accion:    models.AccionAprobada,
		Razon:     &razon,
		CreatedAt: now,
	}

	if err := s.store.Seed(ctx, users, []models.Request{pending, approved}, []models.Authorization{auth}); err != nil {
		return fmt.Errorf("err seeding: %w", err)
	}
	for _, acc := range demoAccounts {
		s.log.Infof("demo account %s / %s (%s)", acc.email, acc.password, acc.role)
	}
	return nil
}
