package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pershin-daniil/LabLoans/pkg/metrics"
	"github.com/pershin-daniil/LabLoans/pkg/models"
)

const hourLayout = "15:04"

var (
	ErrRequestNotFound = fmt.Errorf("request %w", models.ErrNotFound)
	ErrNotOwner        = fmt.Errorf("%w: request belongs to another student", models.ErrForbidden)
	ErrNotPending      = fmt.Errorf("%w: only pending requests can be deleted", models.ErrConflict)
	ErrAlreadyDecided  = fmt.Errorf("%w: request already processed", models.ErrConflict)
)

// CreateRequest opens a new pending request of the given kind owned by caller.
func (s *LoanService) CreateRequest(ctx context.Context, caller models.Caller, kind models.Kind, draft models.Draft) (models.Request, error) {
	if !caller.Role.CanCreate() {
		return models.Request{}, fmt.Errorf("%w: only students can create requests", models.ErrForbidden)
	}
	if err := s.validateDraft(kind, &draft); err != nil {
		return models.Request{}, err
	}
	now := s.now().UTC()
	req, err := s.store.CreateRequest(ctx, models.Request{
		ID:           uuid.NewString(),
		Kind:         kind,
		Status:       models.StatusPendiente,
		EstudianteID: caller.ID,
		Details:      draft.Details,
		Payload:      draft.Payload,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return models.Request{}, fmt.Errorf("err creating request: %w", err)
	}
	metrics.LifecycleTransitions.WithLabelValues(string(kind), string(models.StatusPendiente)).Inc()
	s.log.Debugf("request %s (%s) created by %s", req.ID, kind, caller.ID)
	return req, nil
}

func (s *LoanService) validateDraft(kind models.Kind, draft *models.Draft) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown request kind %q", models.ErrValidation, kind)
	}
	if draft.Payload == nil || draft.Payload.Kind() != kind {
		return fmt.Errorf("%w: payload does not match request kind %s", models.ErrValidation, kind)
	}
	draft.Details.Normalize()
	if err := s.check(draft.Details); err != nil {
		return err
	}
	if err := s.check(draft.Payload); err != nil {
		return err
	}
	entrada, _ := time.Parse(hourLayout, draft.Details.HoraEntrada)
	salida, _ := time.Parse(hourLayout, draft.Details.HoraSalida)
	if !entrada.Before(salida) {
		return fmt.Errorf("%w: horaEntrada must be before horaSalida", models.ErrValidation)
	}
	return nil
}

// ListRequests returns the requests of kind visible to caller, newest first.
func (s *LoanService) ListRequests(ctx context.Context, caller models.Caller, kind models.Kind) ([]models.Request, error) {
	filter := models.RequestFilter{Kind: kind}
	switch {
	case caller.Role.SeesAll():
	case caller.Role == models.RoleEstudiante:
		filter.EstudianteID = caller.ID
	default:
		return nil, fmt.Errorf("%w: unknown role %q", models.ErrForbidden, caller.Role)
	}
	reqs, err := s.store.ListRequests(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("err listing requests: %w", err)
	}
	return reqs, nil
}

func (s *LoanService) GetRequest(ctx context.Context, caller models.Caller, kind models.Kind, id string) (models.Request, error) {
	req, err := s.getRequest(ctx, kind, id)
	if err != nil {
		return models.Request{}, err
	}
	if !canView(caller, req) {
		return models.Request{}, ErrNotOwner
	}
	return req, nil
}

// AuthorizeRequest records the caller's decision on a pending request.
// A request is decided at most once; later calls fail with a conflict.
func (s *LoanService) AuthorizeRequest(ctx context.Context, caller models.Caller, kind models.Kind, id string, decision models.Decision) (models.Request, error) {
	if !caller.Role.CanAuthorize() {
		return models.Request{}, fmt.Errorf("%w: only support staff can authorize requests", models.ErrForbidden)
	}
	decision.Normalize()
	if err := decision.Validate(); err != nil {
		return models.Request{}, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return models.Request{}, ErrRequestNotFound
	}
	req, err := s.store.AuthorizeRequest(ctx, kind, models.Authorization{
		ID:        uuid.NewString(),
		RequestID: id,
		SoporteID: caller.ID,
		Accion:    decision.Accion,
		Razon:     decision.Razon,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return models.Request{}, fmt.Errorf("err authorizing request %s: %w", id, err)
	}
	metrics.LifecycleTransitions.WithLabelValues(string(kind), string(req.Status)).Inc()
	if err = s.notifier.Notify(ctx, decisionMessage(req)); err != nil {
		s.log.Errorf("err notifying decision on %s: %v", id, err)
	}
	return req, nil
}

// DeleteRequest withdraws the caller's own pending request.
func (s *LoanService) DeleteRequest(ctx context.Context, caller models.Caller, kind models.Kind, id string) error {
	req, err := s.getRequest(ctx, kind, id)
	if err != nil {
		return err
	}
	if !caller.Role.CanDelete() {
		return fmt.Errorf("%w: only the owning student can delete a request", models.ErrForbidden)
	}
	if req.EstudianteID != caller.ID {
		return ErrNotOwner
	}
	if req.Status != models.StatusPendiente {
		return ErrNotPending
	}
	if err = s.store.DeleteRequest(ctx, kind, id, caller.ID); err != nil {
		return fmt.Errorf("err deleting request %s: %w", id, err)
	}
	s.log.Debugf("request %s (%s) deleted by %s", id, kind, caller.ID)
	return nil
}

func (s *LoanService) getRequest(ctx context.Context, kind models.Kind, id string) (models.Request, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Request{}, ErrRequestNotFound
	}
	req, err := s.store.GetRequest(ctx, kind, id)
	if err != nil {
		return models.Request{}, fmt.Errorf("err getting request %s: %w", id, err)
	}
	return req, nil
}

func canView(caller models.Caller, req models.Request) bool {
	if caller.Role.SeesAll() {
		return true
	}
	return caller.Role == models.RoleEstudiante && req.EstudianteID == caller.ID
}

func decisionMessage(req models.Request) string {
	verb := "aprobada"
	if req.Status == models.StatusRechazada {
		verb = "rechazada"
	}
	msg := fmt.Sprintf("Solicitud %s de %s %s", req.Resource(), estudiante(req), verb)
	if req.Autorizacion != nil {
		if req.Autorizacion.Soporte != nil {
			msg += " por " + req.Autorizacion.Soporte.Nombre
		}
		if req.Autorizacion.Razon != nil {
			msg += ": " + *req.Autorizacion.Razon
		}
	}
	return msg
}

func estudiante(req models.Request) string {
	if req.Estudiante == nil {
		return req.EstudianteID
	}
	return req.Estudiante.Nombre
}
