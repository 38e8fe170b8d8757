package model

import (
	"context"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
	RoleStaff   Role = "staff"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	Subject   string    `json:"sub"`
	Role      Role      `json:"role"`
	DoctorID  uuid.UUID `json:"doctor_id,omitempty"`
	PatientID uuid.UUID `json:"patient_id,omitempty"`
}

// SystemActor is used when no request actor is present (CLI, background work).
const SystemActor = "system"

type actorKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}

// ActorName returns the subject stored on ctx for audit columns.
func ActorName(ctx context.Context) string {
	if a, ok := ActorFrom(ctx); ok && a.Subject != "" {
		return a.Subject
	}
	return SystemActor
}
