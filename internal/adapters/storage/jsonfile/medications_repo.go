// Package jsonfile persiste la colección completa como un array JSON en un
// archivo (read-all/write-all). Todas las mutaciones pasan por un único
// mutex: un solo escritor, sin updates perdidos entre requests concurrentes.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"medtrack/internal/domain/medications"
	"medtrack/internal/platform/logger"
)

var (
	ErrNotFound = errors.New("not found")
)

// medicationDoc es la forma on-disk (camelCase, fechas como YYYY-MM-DD),
// separada del modelo de dominio para no acoplar el archivo a los DTOs HTTP.
type medicationDoc struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Dosage          string    `json:"dosage"`
	FrequencyPerDay int       `json:"frequencyPerDay"`
	StartDate       string    `json:"startDate"`
	Quantity        int       `json:"quantity"`
	DaysSupply      int       `json:"daysSupply"`
	Doses           []doseDoc `json:"doses,omitempty"`
	CreatedAt       time.Time `json:"createdAt,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt,omitempty"`
}

type doseDoc struct {
	Date  string `json:"date"`
	Taken bool   `json:"taken"`
}

type medicationsRepo struct {
	mu   sync.Mutex
	path string
	log  logger.Logger
}

func NewMedicationsRepo(path string, log logger.Logger) medications.Repository {
	return &medicationsRepo{path: path, log: log}
}

func (r *medicationsRepo) Create(ctx context.Context, m medications.Medication) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	docs := r.readAll()
	docs = append(docs, toDoc(m))
	return r.writeAll(docs)
}

func (r *medicationsRepo) Update(ctx context.Context, m medications.Medication) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	docs := r.readAll()
	for i := range docs {
		if docs[i].ID == m.ID {
			docs[i] = toDoc(m)
			return r.writeAll(docs)
		}
	}
	return ErrNotFound
}

func (r *medicationsRepo) GetByID(ctx context.Context, id string) (medications.Medication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range r.readAll() {
		if d.ID == id {
			return fromDoc(d), nil
		}
	}
	return medications.Medication{}, ErrNotFound
}

func (r *medicationsRepo) List(ctx context.Context) ([]medications.Medication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	docs := r.readAll()
	out := make([]medications.Medication, 0, len(docs))
	for _, d := range docs {
		out = append(out, fromDoc(d))
	}
	return out, nil
}

func (r *medicationsRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	docs := r.readAll()
	filtered := docs[:0]
	for _, d := range docs {
		if d.ID != id {
			filtered = append(filtered, d)
		}
	}
	return r.writeAll(filtered)
}

// readAll tolera archivo ausente o corrupto: devuelve colección vacía y
// deja constancia en el log. Igual criterio que el resto del sistema:
// datos malos no bloquean la operación.
func (r *medicationsRepo) readAll() []medicationDoc {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.log.Warn("jsonfile read failed", map[string]any{"path": r.path, "err": err.Error()})
		}
		return nil
	}

	var docs []medicationDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		r.log.Warn("jsonfile parse failed", map[string]any{"path": r.path, "err": err.Error()})
		return nil
	}
	return docs
}

func (r *medicationsRepo) writeAll(docs []medicationDoc) error {
	if docs == nil {
		docs = []medicationDoc{}
	}

	b, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	// escritura atómica: tmp + rename, para no dejar el archivo a medias
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}

func toDoc(m medications.Medication) medicationDoc {
	doses := make([]doseDoc, 0, len(m.Doses))
	for _, d := range m.Doses {
		doses = append(doses, doseDoc{Date: d.Date, Taken: d.Taken})
	}
	return medicationDoc{
		ID:              m.ID,
		Name:            m.Name,
		Dosage:          m.Dosage,
		FrequencyPerDay: m.FrequencyPerDay,
		StartDate:       m.StartDate,
		Quantity:        m.Quantity,
		DaysSupply:      m.DaysSupply,
		Doses:           doses,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func fromDoc(d medicationDoc) medications.Medication {
	doses := make([]medications.DoseRecord, 0, len(d.Doses))
	for _, x := range d.Doses {
		doses = append(doses, medications.DoseRecord{Date: x.Date, Taken: x.Taken})
	}
	return medications.Medication{
		ID:              d.ID,
		Name:            d.Name,
		Dosage:          d.Dosage,
		FrequencyPerDay: d.FrequencyPerDay,
		StartDate:       d.StartDate,
		Quantity:        d.Quantity,
		DaysSupply:      d.DaysSupply,
		Doses:           doses,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}
