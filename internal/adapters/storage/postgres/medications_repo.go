package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"medtrack/internal/domain/medications"
)

type MedicationsRepo struct {
	db *sql.DB
}

func NewMedicationsRepo(db *sql.DB) *MedicationsRepo {
	return &MedicationsRepo{db: db}
}

func (r *MedicationsRepo) Create(ctx context.Context, m medications.Medication) error {
	doses, err := dosesToJSON(m.Doses)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO medications (
			id, name, dosage,
			frequency_per_day, start_date,
			quantity, days_supply, doses,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		m.ID,
		m.Name,
		m.Dosage,
		m.FrequencyPerDay,
		m.StartDate,
		m.Quantity,
		m.DaysSupply,
		doses,
		m.CreatedAt,
		m.UpdatedAt,
	)
	return err
}

func (r *MedicationsRepo) Update(ctx context.Context, m medications.Medication) error {
	doses, err := dosesToJSON(m.Doses)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE medications
		SET
			name = $2,
			dosage = $3,
			frequency_per_day = $4,
			start_date = $5,
			quantity = $6,
			days_supply = $7,
			doses = $8,
			updated_at = $9
		WHERE id = $1
	`,
		m.ID,
		m.Name,
		m.Dosage,
		m.FrequencyPerDay,
		m.StartDate,
		m.Quantity,
		m.DaysSupply,
		doses,
		m.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MedicationsRepo) GetByID(ctx context.Context, id string) (medications.Medication, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return medications.Medication{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, name, dosage,
			frequency_per_day, start_date,
			quantity, days_supply, doses,
			created_at, updated_at
		FROM medications
		WHERE id = $1
	`, id)

	m, err := scanMedication(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return medications.Medication{}, ErrNotFound
		}
		return medications.Medication{}, err
	}
	return m, nil
}

func (r *MedicationsRepo) List(ctx context.Context) ([]medications.Medication, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, name, dosage,
			frequency_per_day, start_date,
			quantity, days_supply, doses,
			created_at, updated_at
		FROM medications
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]medications.Medication, 0)
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}

	return out, rows.Err()
}

// Delete es idempotente: cero filas afectadas no es error.
func (r *MedicationsRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM medications WHERE id = $1`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMedication(row rowScanner) (medications.Medication, error) {
	var m medications.Medication
	var doses []byte

	if err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Dosage,
		&m.FrequencyPerDay,
		&m.StartDate,
		&m.Quantity,
		&m.DaysSupply,
		&doses,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return medications.Medication{}, err
	}

	if len(doses) > 0 {
		if err := json.Unmarshal(doses, &m.Doses); err != nil {
			return medications.Medication{}, err
		}
	}

	return m, nil
}

// doses va en una columna JSONB: el historial siempre se lee y escribe
// completo junto al medicamento, no amerita tabla propia.
func dosesToJSON(doses []medications.DoseRecord) ([]byte, error) {
	if doses == nil {
		doses = []medications.DoseRecord{}
	}
	return json.Marshal(doses)
}
