package dates

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Layout es el único formato de fecha que maneja el sistema (date-only).
const Layout = "2006-01-02"

// Parse interpreta s estrictamente como YYYY-MM-DD y devuelve la fecha
// anclada a medianoche LOCAL. No usamos time.Parse directo porque queremos
// el mismo comportamiento permisivo del resto del sistema: exactamente 3
// componentes numéricos, sin pasar por un parser genérico que pueda
// interpretar el string como UTC (off-by-one de día según timezone).
func Parse(s string) (time.Time, bool) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return time.Time{}, false
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, false
		}
		nums[i] = n
	}

	// time.Date normaliza valores fuera de rango (mes 13 => enero siguiente),
	// igual que el Date(y, m-1, d) original. No validamos rangos aquí.
	return time.Date(nums[0], time.Month(nums[1]), nums[2], 0, 0, 0, 0, time.Local), true
}

// Format devuelve YYYY-MM-DD usando los componentes locales de t.
func Format(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// Midnight trunca t a la medianoche local de su día calendario.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// DaysBetween devuelve días calendario completos de a hasta b (puede ser
// negativo). Normaliza ambos a medianoche local antes de restar, para que
// diferencias de horas dentro del día nunca redondeen mal.
func DaysBetween(a, b time.Time) int {
	from := Midnight(a)
	to := Midnight(b)
	// Round en vez de truncar: los días con cambio DST duran 23h o 25h.
	return int(math.Round(to.Sub(from).Hours() / 24))
}

// Today formatea la fecha calendario local de now.
func Today(now time.Time) string {
	return Format(now)
}
