package medications

import (
	"math"
	"time"

	"medtrack/internal/platform/dates"
)

// Funciones puras de contabilidad de dosis. Todas operan sobre un snapshot
// del medicamento; las que dependen del día actual reciben now explícito
// (misma idea que el now inyectable del Service, para tests deterministas).

// TakenCount cuenta los registros con taken = true.
func TakenCount(m Medication) int {
	n := 0
	for _, d := range m.Doses {
		if d.Taken {
			n++
		}
	}
	return n
}

// MissedCount cuenta los registros marcados explícitamente como omitidos.
func MissedCount(m Medication) int {
	n := 0
	for _, d := range m.Doses {
		if !d.Taken {
			n++
		}
	}
	return n
}

// UsedDoses son las dosis consumidas contra el surtido. Solo cuentan las
// tomas registradas: los días sin registro no se asumen consumidos. El
// backfill ya genera registros para los días pasados, así que contar
// "esperadas desde startDate" duplicaría el descuento.
func UsedDoses(m Medication) int {
	return TakenCount(m)
}

// RemainingDoses nunca baja de cero aunque el historial exceda el surtido.
func RemainingDoses(m Medication) int {
	r := m.Quantity - UsedDoses(m)
	if r < 0 {
		return 0
	}
	return r
}

// RemainingDays estima los días que alcanza lo que queda del surtido.
func RemainingDays(m Medication) int {
	perDay := m.FrequencyPerDay
	if perDay < 1 {
		perDay = 1
	}
	return int(math.Ceil(float64(RemainingDoses(m)) / float64(perDay)))
}

// NextRefillDate es la fecha calendario local de now más RemainingDays.
func NextRefillDate(m Medication, now time.Time) string {
	return dates.Format(dates.Midnight(now).AddDate(0, 0, RemainingDays(m)))
}

// AdherencePercent es el porcentaje redondeado de tomas sobre el total
// registrado. Sin historial devuelve 100 (sin evidencia en contra, se asume
// adherencia total; también evita dividir por cero).
func AdherencePercent(m Medication) int {
	taken := TakenCount(m)
	total := taken + MissedCount(m)
	if total == 0 {
		return 100
	}
	return int(math.Round(float64(taken) / float64(total) * 100))
}

// RecordedTodayCount cuenta registros (tomados u omitidos) con fecha de hoy.
// El cliente lo usa para limitar las marcas diarias a frequencyPerDay.
func RecordedTodayCount(m Medication, now time.Time) int {
	today := dates.Today(now)
	n := 0
	for _, d := range m.Doses {
		if d.Date == today {
			n++
		}
	}
	return n
}

// Summary agrupa todas las cifras calculadas para decorar respuestas del API.
type Summary struct {
	TakenCount       int
	MissedCount      int
	RemainingDoses   int
	RemainingDays    int
	NextRefillDate   string
	AdherencePercent int
	RecordedToday    int
}

func Summarize(m Medication, now time.Time) Summary {
	return Summary{
		TakenCount:       TakenCount(m),
		MissedCount:      MissedCount(m),
		RemainingDoses:   RemainingDoses(m),
		RemainingDays:    RemainingDays(m),
		NextRefillDate:   NextRefillDate(m, now),
		AdherencePercent: AdherencePercent(m),
		RecordedToday:    RecordedTodayCount(m, now),
	}
}
