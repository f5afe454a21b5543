package medications

import (
	"context"
	"errors"
	"strings"
	"time"

	"medtrack/internal/platform/logger"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("medication not found")
)

// DefaultAlertWithinDays es el umbral de "refill pronto" de /alerts/refills.
const DefaultAlertWithinDays = 7

type Service struct {
	repo Repository
	log  logger.Logger
	now  func() time.Time

	alertWithinDays int
}

func NewService(repo Repository, log logger.Logger) *Service {
	return &Service{
		repo:            repo,
		log:             log,
		now:             time.Now,
		alertWithinDays: DefaultAlertWithinDays,
	}
}

type CreateInput struct {
	Name            string
	Dosage          string
	FrequencyPerDay int
	StartDate       string
	Quantity        int
	DaysSupply      int
	Doses           []DoseRecord
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Medication, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Medication{}, ErrInvalidInput
	}
	if in.FrequencyPerDay < 1 {
		return Medication{}, ErrInvalidInput
	}
	if in.Quantity < 1 {
		return Medication{}, ErrInvalidInput
	}

	now := s.now()

	doses := make([]DoseRecord, len(in.Doses))
	copy(doses, in.Doses)

	startDate := strings.TrimSpace(in.StartDate)
	if startDate != "" {
		filled, ran := Backfill(doses, startDate, in.FrequencyPerDay, now)
		if ran {
			doses = filled
		} else {
			// no-fatal: un startDate raro no bloquea el alta
			s.log.Warn("backfill skipped", map[string]any{
				"reason":     "unparseable or non-past start_date",
				"start_date": startDate,
			})
		}
	}

	m := Medication{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(in.Name),
		Dosage:          strings.TrimSpace(in.Dosage),
		FrequencyPerDay: in.FrequencyPerDay,
		StartDate:       startDate,
		Quantity:        in.Quantity,
		DaysSupply:      in.DaysSupply,
		Doses:           doses,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return Medication{}, err
	}
	return m, nil
}

// UpdateInput es un PATCH real: nil = no tocar el campo.
type UpdateInput struct {
	Name            *string
	Dosage          *string
	FrequencyPerDay *int
	StartDate       *string
	Quantity        *int
	DaysSupply      *int
	Doses           *[]DoseRecord
}

// Update mergea los campos presentes sobre el registro existente. El id
// nunca cambia. Si el payload trae start_date (nuevo o igual), se re-corre
// el backfill con la frecuencia y dosis ya mergeadas.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Medication, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Medication{}, ErrNotFound
	}

	merged := existing

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return Medication{}, ErrInvalidInput
		}
		merged.Name = strings.TrimSpace(*in.Name)
	}
	if in.Dosage != nil {
		merged.Dosage = strings.TrimSpace(*in.Dosage)
	}
	if in.FrequencyPerDay != nil {
		if *in.FrequencyPerDay < 1 {
			return Medication{}, ErrInvalidInput
		}
		merged.FrequencyPerDay = *in.FrequencyPerDay
	}
	if in.Quantity != nil {
		if *in.Quantity < 1 {
			return Medication{}, ErrInvalidInput
		}
		merged.Quantity = *in.Quantity
	}
	if in.DaysSupply != nil {
		merged.DaysSupply = *in.DaysSupply
	}
	if in.StartDate != nil {
		merged.StartDate = strings.TrimSpace(*in.StartDate)
	}
	if in.Doses != nil {
		// reemplazo completo de la lista, no merge registro a registro
		doses := make([]DoseRecord, len(*in.Doses))
		copy(doses, *in.Doses)
		merged.Doses = doses
	}

	if in.StartDate != nil && merged.StartDate != "" {
		filled, ran := Backfill(merged.Doses, merged.StartDate, merged.FrequencyPerDay, s.now())
		if ran {
			merged.Doses = filled
		} else {
			s.log.Warn("backfill skipped on update", map[string]any{
				"id":         existing.ID,
				"start_date": merged.StartDate,
			})
		}
	}

	merged.ID = existing.ID
	merged.CreatedAt = existing.CreatedAt
	merged.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, merged); err != nil {
		return Medication{}, err
	}
	return merged, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Medication, error) {
	m, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Medication{}, ErrNotFound
	}
	return m, nil
}

func (s *Service) List(ctx context.Context) ([]Medication, error) {
	return s.repo.List(ctx)
}

// Delete es idempotente: borrar un id inexistente no es error.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, strings.TrimSpace(id))
}

// RefillAlerts devuelve los medicamentos cuyo surtido alcanza para
// alertWithinDays o menos. Se recalcula en cada llamada, sin cache.
func (s *Service) RefillAlerts(ctx context.Context) ([]Medication, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Medication, 0)
	for _, m := range items {
		if RemainingDays(m) <= s.alertWithinDays {
			out = append(out, m)
		}
	}
	return out, nil
}

// Now expone el reloj del service para que los handlers calculen summaries
// con el mismo "hoy" que usa el backfill.
func (s *Service) Now() time.Time {
	return s.now()
}
