package medications

import (
	"time"

	"medtrack/internal/platform/dates"
)

// Backfill sintetiza registros taken=true para cada día completo transcurrido
// entre startDate (inclusive) y el día calendario de now (exclusivo),
// completando cada fecha hasta perDay registros. Hoy queda fuera a propósito:
// las tomas de hoy se marcan explícitamente, no se asumen.
//
// Devuelve la lista resultante (originales primero, sintetizados después en
// orden ascendente de fecha) y si el backfill corrió. Un startDate no
// parseable devuelve la lista original sin tocar y false: el registro se
// crea/actualiza igual, sin backfill.
func Backfill(doses []DoseRecord, startDate string, perDay int, now time.Time) ([]DoseRecord, bool) {
	start, ok := dates.Parse(startDate)
	if !ok {
		return doses, false
	}

	fullDays := dates.DaysBetween(start, now)
	if fullDays <= 0 {
		// startDate es hoy o futuro: nada que rellenar.
		return doses, false
	}

	if perDay < 1 {
		perDay = 1
	}

	have := make(map[string]int, len(doses))
	for _, d := range doses {
		have[d.Date]++
	}

	out := make([]DoseRecord, len(doses), len(doses)+fullDays*perDay)
	copy(out, doses)

	for i := 0; i < fullDays; i++ {
		day := dates.Format(start.AddDate(0, 0, i))
		for j := have[day]; j < perDay; j++ {
			out = append(out, DoseRecord{Date: day, Taken: true})
		}
	}

	return out, true
}
