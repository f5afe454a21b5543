package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"medtrack/internal/router"
)

func localDate(offsetDays int) string {
	d := time.Now().AddDate(0, 0, offsetDays)
	return fmt.Sprintf("%04d-%02d-%02d", d.Year(), int(d.Month()), d.Day())
}

func doReq(t *testing.T, baseURL, method, path string, body any) (int, []byte) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, b
}

type medPayload struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	FrequencyPerDay int    `json:"frequency_per_day"`
	StartDate       string `json:"start_date"`
	Quantity        int    `json:"quantity"`
	DaysSupply      int    `json:"days_supply"`
	Doses           []struct {
		Date  string `json:"date"`
		Taken bool   `json:"taken"`
	} `json:"doses"`
	Summary struct {
		TakenCount       int    `json:"taken_count"`
		MissedCount      int    `json:"missed_count"`
		RemainingDoses   int    `json:"remaining_doses"`
		RemainingDays    int    `json:"remaining_days"`
		NextRefillDate   string `json:"next_refill_date"`
		AdherencePercent int    `json:"adherence_percent"`
		RecordedToday    int    `json:"recorded_today"`
	} `json:"summary"`
}

func TestHTTP_EndToEnd_MedicationLifecycle(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	// 1) Alta con start date 3 días atrás: backfill de 6 tomas (2/día)
	var created medPayload
	{
		st, body := doReq(t, ts.URL, "POST", "/medications", map[string]any{
			"name":              "Amoxicillin",
			"dosage":            "500 mg",
			"frequency_per_day": 2,
			"start_date":        localDate(-3),
			"quantity":          20,
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201, got %d body=%s", st, string(body))
		}
		if err := json.Unmarshal(body, &created); err != nil {
			t.Fatalf("decode create response: %v", err)
		}
	}

	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if len(created.Doses) != 6 {
		t.Fatalf("expected 6 backfilled doses, got %d", len(created.Doses))
	}
	if created.DaysSupply != 10 {
		t.Fatalf("expected derived days_supply=10, got %d", created.DaysSupply)
	}
	if created.Summary.RemainingDoses != 14 {
		t.Fatalf("remaining doses: %d", created.Summary.RemainingDoses)
	}
	if created.Summary.RecordedToday != 0 {
		t.Fatal("today must not be backfilled")
	}

	// 2) GET por id
	{
		st, body := doReq(t, ts.URL, "GET", "/medications/"+created.ID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", st, string(body))
		}
	}

	// 3) Marcar tomada hoy: PUT con la lista de dosis reemplazada
	{
		doses := make([]map[string]any, 0, len(created.Doses)+1)
		for _, d := range created.Doses {
			doses = append(doses, map[string]any{"date": d.Date, "taken": d.Taken})
		}
		doses = append(doses, map[string]any{"date": localDate(0), "taken": true})

		st, body := doReq(t, ts.URL, "PUT", "/medications/"+created.ID, map[string]any{
			"doses": doses,
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", st, string(body))
		}

		var updated medPayload
		if err := json.Unmarshal(body, &updated); err != nil {
			t.Fatalf("decode update response: %v", err)
		}
		if updated.Summary.RecordedToday != 1 {
			t.Fatalf("recorded today: %d", updated.Summary.RecordedToday)
		}
		if updated.Summary.TakenCount != 7 {
			t.Fatalf("taken count: %d", updated.Summary.TakenCount)
		}
	}

	// 4) PUT con id distinto en el body: el id guardado no cambia
	{
		st, body := doReq(t, ts.URL, "PUT", "/medications/"+created.ID, map[string]any{
			"id":   "attacker-chosen-id",
			"name": "Amoxicillin 875",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", st, string(body))
		}

		var updated medPayload
		if err := json.Unmarshal(body, &updated); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if updated.ID != created.ID {
			t.Fatalf("id changed by patch: %s", updated.ID)
		}

		st, _ = doReq(t, ts.URL, "GET", "/medications/attacker-chosen-id", nil)
		if st != http.StatusNotFound {
			t.Fatalf("phantom record exists: %d", st)
		}
	}

	// 5) Unknown fields rechazados
	{
		st, _ := doReq(t, ts.URL, "PUT", "/medications/"+created.ID, map[string]any{
			"nombre": "x",
		})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 on unknown field, got %d", st)
		}
	}

	// 6) Lista
	{
		st, body := doReq(t, ts.URL, "GET", "/medications", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200, got %d", st)
		}
		var items []medPayload
		if err := json.Unmarshal(body, &items); err != nil {
			t.Fatalf("decode list: %v", err)
		}
		if len(items) != 1 {
			t.Fatalf("expected 1 medication, got %d", len(items))
		}
	}

	// 7) DELETE y 404 posterior
	{
		st, _ := doReq(t, ts.URL, "DELETE", "/medications/"+created.ID, nil)
		if st != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", st)
		}

		st, _ = doReq(t, ts.URL, "GET", "/medications/"+created.ID, nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 after delete, got %d", st)
		}

		// delete repetido sigue siendo 204
		st, _ = doReq(t, ts.URL, "DELETE", "/medications/"+created.ID, nil)
		if st != http.StatusNoContent {
			t.Fatalf("expected idempotent 204, got %d", st)
		}
	}
}

func TestHTTP_RefillAlerts(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	// quedan 3 dosis a 1/día => 3 días => dentro del umbral de 7
	{
		doses := make([]map[string]any, 0, 7)
		for i := 1; i <= 7; i++ {
			doses = append(doses, map[string]any{"date": localDate(-i), "taken": true})
		}
		st, body := doReq(t, ts.URL, "POST", "/medications", map[string]any{
			"name":              "Soon",
			"frequency_per_day": 1,
			"quantity":          10,
			"doses":             doses,
		})
		if st != http.StatusCreated {
			t.Fatalf("create soon: %d body=%s", st, string(body))
		}
	}

	// 10 días por delante => fuera del umbral
	{
		st, body := doReq(t, ts.URL, "POST", "/medications", map[string]any{
			"name":              "Later",
			"frequency_per_day": 1,
			"quantity":          10,
		})
		if st != http.StatusCreated {
			t.Fatalf("create later: %d body=%s", st, string(body))
		}
	}

	st, body := doReq(t, ts.URL, "GET", "/alerts/refills", nil)
	if st != http.StatusOK {
		t.Fatalf("alerts: %d", st)
	}

	var items []medPayload
	if err := json.Unmarshal(body, &items); err != nil {
		t.Fatalf("decode alerts: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(items))
	}
	if items[0].Name != "Soon" {
		t.Fatalf("wrong medication alerted: %s", items[0].Name)
	}
	if items[0].Summary.RemainingDays != 3 {
		t.Fatalf("remaining days: %d", items[0].Summary.RemainingDays)
	}
}

func TestHTTP_CreateValidation(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	// days_supply inconsistente con quantity/frequency_per_day
	{
		st, _ := doReq(t, ts.URL, "POST", "/medications", map[string]any{
			"name":              "X",
			"frequency_per_day": 2,
			"quantity":          20,
			"days_supply":       99,
		})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", st)
		}
	}

	// campos obligatorios
	{
		st, _ := doReq(t, ts.URL, "POST", "/medications", map[string]any{
			"frequency_per_day": 2,
			"quantity":          20,
		})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 without name, got %d", st)
		}
	}

	// start date inválido: el alta igual funciona, sin backfill
	{
		st, body := doReq(t, ts.URL, "POST", "/medications", map[string]any{
			"name":              "Y",
			"frequency_per_day": 1,
			"quantity":          10,
			"start_date":        "invalid-date",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201, got %d body=%s", st, string(body))
		}
		var m medPayload
		if err := json.Unmarshal(body, &m); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(m.Doses) != 0 {
			t.Fatalf("expected no doses, got %d", len(m.Doses))
		}
		if m.StartDate != "invalid-date" {
			t.Fatalf("start date not kept verbatim: %q", m.StartDate)
		}
	}

	// health
	{
		st, _ := doReq(t, ts.URL, "GET", "/health", nil)
		if st != http.StatusOK {
			t.Fatalf("health: %d", st)
		}
	}
}
