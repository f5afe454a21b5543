package medications

import "time"

// DoseRecord es una toma registrada (o marcada como omitida) para una fecha
// calendario. El historial es append-only: las correcciones se hacen
// agregando registros nuevos, nunca editando los existentes.
type DoseRecord struct {
	Date  string // YYYY-MM-DD
	Taken bool   // true = tomada, false = marcada como omitida
}

// Medication representa un medicamento del usuario con su esquema declarado
// y su historial de tomas.
type Medication struct {
	ID string

	Name   string
	Dosage string // texto libre: "500 mg", "10 ml", etc.

	FrequencyPerDay int

	// StartDate se guarda como string tal cual llegó. Un valor no parseable
	// no invalida el registro: solo inhibe el backfill.
	StartDate string // YYYY-MM-DD

	Quantity   int // dosis totales recibidas en este surtido
	DaysSupply int // derivado: ceil(quantity / frequencyPerDay)

	Doses []DoseRecord

	CreatedAt time.Time
	UpdatedAt time.Time
}
