package models

type Summary struct {
	Total      int `json:"total" db:"total"`
	Pendientes int `json:"pendientes" db:"pendientes"`
	Aprobadas  int `json:"aprobadas" db:"aprobadas"`
	Rechazadas int `json:"rechazadas" db:"rechazadas"`
}

type ResourceCount struct {
	Recurso  string `json:"recurso" db:"recurso"`
	Cantidad int    `json:"cantidad" db:"cantidad"`
}

type SemesterCount struct {
	Semestre string `json:"semestre" db:"semestre"`
	Cantidad int    `json:"cantidad" db:"cantidad"`
}

type TopRequester struct {
	Estudiante string `json:"estudiante" db:"estudiante"`
	Email      string `json:"email" db:"email"`
	Cantidad   int    `json:"cantidad" db:"cantidad"`
}

type Stats struct {
	Resumen        Summary         `json:"resumen"`
	PorRecurso     []ResourceCount `json:"porRecurso"`
	PorSemestre    []SemesterCount `json:"porSemestre"`
	TopEstudiantes []TopRequester  `json:"topEstudiantes"`
}

// TimelineDay counts requests created on one UTC calendar day.
type TimelineDay struct {
	Fecha      string `json:"fecha" db:"fecha"`
	Total      int    `json:"total" db:"total"`
	Pendientes int    `json:"pendientes" db:"pendientes"`
	Aprobadas  int    `json:"aprobadas" db:"aprobadas"`
	Rechazadas int    `json:"rechazadas" db:"rechazadas"`
}
