package medications

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/medications", func(mr chi.Router) {
		mr.Post("/", createMedicationHandler(svc))
		mr.Get("/", listMedicationsHandler(svc))

		mr.Get("/{medID}", getMedicationHandler(svc))
		mr.Put("/{medID}", updateMedicationHandler(svc))
		mr.Delete("/{medID}", deleteMedicationHandler(svc))
	})

	r.Get("/alerts/refills", refillAlertsHandler(svc))
}

type doseRecordPayload struct {
	Date  string `json:"date"`
	Taken bool   `json:"taken"`
}

type createMedicationRequest struct {
	Name            string              `json:"name"`
	Dosage          string              `json:"dosage"`
	FrequencyPerDay int                 `json:"frequency_per_day"`
	StartDate       string              `json:"start_date"` // YYYY-MM-DD
	Quantity        int                 `json:"quantity"`
	DaysSupply      int                 `json:"days_supply"` // opcional, se deriva si viene en 0
	Doses           []doseRecordPayload `json:"doses"`
}

type updateMedicationRequest struct {
	// Punteros para PATCH real: nil = no tocar.
	// El id se acepta en el body pero se ignora siempre: nunca es patcheable.
	ID              *string              `json:"id"`
	Name            *string              `json:"name"`
	Dosage          *string              `json:"dosage"`
	FrequencyPerDay *int                 `json:"frequency_per_day"`
	StartDate       *string              `json:"start_date"`
	Quantity        *int                 `json:"quantity"`
	DaysSupply      *int                 `json:"days_supply"`
	Doses           *[]doseRecordPayload `json:"doses"`
}

type summaryResponse struct {
	TakenCount       int    `json:"taken_count"`
	MissedCount      int    `json:"missed_count"`
	RemainingDoses   int    `json:"remaining_doses"`
	RemainingDays    int    `json:"remaining_days"`
	NextRefillDate   string `json:"next_refill_date"`
	AdherencePercent int    `json:"adherence_percent"`
	RecordedToday    int    `json:"recorded_today"`
}

type medicationResponse struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	Dosage          string              `json:"dosage"`
	FrequencyPerDay int                 `json:"frequency_per_day"`
	StartDate       string              `json:"start_date"`
	Quantity        int                 `json:"quantity"`
	DaysSupply      int                 `json:"days_supply"`
	Doses           []doseRecordPayload `json:"doses"`
	Summary         summaryResponse     `json:"summary"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func createMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req createMedicationRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		// days_supply es un dato derivado: se completa si falta y se
		// rechaza si viene inconsistente con quantity/frequency_per_day.
		if req.FrequencyPerDay > 0 && req.Quantity > 0 {
			expected := ceilDiv(req.Quantity, req.FrequencyPerDay)
			if req.DaysSupply == 0 {
				req.DaysSupply = expected
			} else if req.DaysSupply != expected {
				http.Error(w, "days_supply inconsistent with quantity and frequency_per_day", http.StatusBadRequest)
				return
			}
		}

		m, err := svc.Create(r.Context(), CreateInput{
			Name:            req.Name,
			Dosage:          req.Dosage,
			FrequencyPerDay: req.FrequencyPerDay,
			StartDate:       req.StartDate,
			Quantity:        req.Quantity,
			DaysSupply:      req.DaysSupply,
			Doses:           fromDosePayloads(req.Doses),
		})
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, toMedicationResponse(m, svc.Now()))
	}
}

func listMedicationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		now := svc.Now()
		out := make([]medicationResponse, 0, len(items))
		for _, m := range items {
			out = append(out, toMedicationResponse(m, now))
		}

		writeJSON(w, http.StatusOK, out)
	}
}

func getMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := svc.GetByID(r.Context(), chi.URLParam(r, "medID"))
		if err != nil {
			http.Error(w, "medication not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, toMedicationResponse(m, svc.Now()))
	}
}

func updateMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req updateMedicationRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := UpdateInput{
			Name:            req.Name,
			Dosage:          req.Dosage,
			FrequencyPerDay: req.FrequencyPerDay,
			StartDate:       req.StartDate,
			Quantity:        req.Quantity,
			DaysSupply:      req.DaysSupply,
		}
		if req.Doses != nil {
			doses := fromDosePayloads(*req.Doses)
			in.Doses = &doses
		}

		updated, err := svc.Update(r.Context(), chi.URLParam(r, "medID"), in)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "medication not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, toMedicationResponse(updated, svc.Now()))
	}
}

func deleteMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "medID")); err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func refillAlertsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.RefillAlerts(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		now := svc.Now()
		out := make([]medicationResponse, 0, len(items))
		for _, m := range items {
			out = append(out, toMedicationResponse(m, now))
		}

		writeJSON(w, http.StatusOK, out)
	}
}

func fromDosePayloads(in []doseRecordPayload) []DoseRecord {
	out := make([]DoseRecord, 0, len(in))
	for _, d := range in {
		out = append(out, DoseRecord{Date: d.Date, Taken: d.Taken})
	}
	return out
}

func toDosePayloads(in []DoseRecord) []doseRecordPayload {
	out := make([]doseRecordPayload, 0, len(in))
	for _, d := range in {
		out = append(out, doseRecordPayload{Date: d.Date, Taken: d.Taken})
	}
	return out
}

func toMedicationResponse(m Medication, now time.Time) medicationResponse {
	s := Summarize(m, now)
	return medicationResponse{
		ID:              m.ID,
		Name:            m.Name,
		Dosage:          m.Dosage,
		FrequencyPerDay: m.FrequencyPerDay,
		StartDate:       m.StartDate,
		Quantity:        m.Quantity,
		DaysSupply:      m.DaysSupply,
		Doses:           toDosePayloads(m.Doses),
		Summary: summaryResponse{
			TakenCount:       s.TakenCount,
			MissedCount:      s.MissedCount,
			RemainingDoses:   s.RemainingDoses,
			RemainingDays:    s.RemainingDays,
			NextRefillDate:   s.NextRefillDate,
			AdherencePercent: s.AdherencePercent,
			RecordedToday:    s.RecordedToday,
		},
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// writeJSON vive en este módulo a propósito; si aparece otro módulo con
// handlers conviene recién ahí extraerlo a un helper común.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
