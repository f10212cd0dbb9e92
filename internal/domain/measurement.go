package domain

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// MeasurementSnapshot is one weigh-in as stored in the rich history list.
// Older records keep the weight under the legacy "peso" field.
type MeasurementSnapshot struct {
	Date      string    `json:"date,omitempty" bson:"date,omitempty"`
	CreatedAt Timestamp `json:"createdAt" bson:"createdAt,omitempty"`

	Weight *float64 `json:"weight,omitempty" bson:"weight,omitempty" validate:"omitempty,gt=0,lte=500"`
	Peso   *float64 `json:"peso,omitempty" bson:"peso,omitempty" validate:"omitempty,gt=0,lte=500"`

	BodyFatPct         *float64 `json:"bodyFatPct,omitempty" bson:"bodyFatPct,omitempty" validate:"omitempty,gte=0,lte=100"`
	BodyFatKg          *float64 `json:"bodyFatKg,omitempty" bson:"bodyFatKg,omitempty"`
	LeanMassKg         *float64 `json:"leanMassKg,omitempty" bson:"leanMassKg,omitempty"`
	MuscleMassKg       *float64 `json:"muscleMassKg,omitempty" bson:"muscleMassKg,omitempty"`
	WaterKg            *float64 `json:"waterKg,omitempty" bson:"waterKg,omitempty"`
	WaterPct           *float64 `json:"waterPct,omitempty" bson:"waterPct,omitempty"`
	BoneMassKg         *float64 `json:"boneMassKg,omitempty" bson:"boneMassKg,omitempty"`
	BasalMetabolicRate *float64 `json:"basalMetabolicRate,omitempty" bson:"basalMetabolicRate,omitempty"`
	VisceralFat        *float64 `json:"visceralFat,omitempty" bson:"visceralFat,omitempty"`
	BMI                *float64 `json:"bmi,omitempty" bson:"bmi,omitempty"`
	MetabolicAge       *float64 `json:"metabolicAge,omitempty" bson:"metabolicAge,omitempty"`
	WaistCm            *float64 `json:"waistCm,omitempty" bson:"waistCm,omitempty"`
	HipCm              *float64 `json:"hipCm,omitempty" bson:"hipCm,omitempty"`
	ArmCm              *float64 `json:"armCm,omitempty" bson:"armCm,omitempty"`
	ThighCm            *float64 `json:"thighCm,omitempty" bson:"thighCm,omitempty"`
	WaistToHeight      string   `json:"waistToHeight,omitempty" bson:"waistToHeight,omitempty"`
	WaistSkinfoldMm    *float64 `json:"waistSkinfoldMm,omitempty" bson:"waistSkinfoldMm,omitempty"`
	Notes              string   `json:"notes,omitempty" bson:"notes,omitempty"`
}

// ShortSnapshot is the weight-only entry kept in the short history list.
type ShortSnapshot struct {
	Date      string    `json:"date,omitempty" bson:"date,omitempty"`
	Weight    *float64  `json:"weight,omitempty" bson:"weight,omitempty"`
	Peso      *float64  `json:"peso,omitempty" bson:"peso,omitempty"`
	CreatedAt Timestamp `json:"createdAt" bson:"createdAt,omitempty"`
}

// WeightValue returns the weight under either field name.
func (s MeasurementSnapshot) WeightValue() *float64 {
	if s.Weight != nil {
		return s.Weight
	}
	return s.Peso
}

// Persistable reports whether the snapshot has a date or a weight.
func (s MeasurementSnapshot) Persistable() bool {
	return strings.TrimSpace(s.Date) != "" || s.WeightValue() != nil
}

// Short projects the snapshot onto the short list shape.
func (s MeasurementSnapshot) Short() ShortSnapshot {
	return ShortSnapshot{Date: s.Date, Weight: s.WeightValue(), CreatedAt: s.CreatedAt}
}

// WithDerivedFields fills bodyFatKg and waterKg from their percentages when
// they were not supplied. The values are computed once, at write time.
func (s MeasurementSnapshot) WithDerivedFields() MeasurementSnapshot {
	w := s.WeightValue()
	if w == nil {
		return s
	}
	if s.BodyFatKg == nil && s.BodyFatPct != nil {
		s.BodyFatKg = Float(Round(*w**s.BodyFatPct/100, 2))
	}
	if s.WaterKg == nil && s.WaterPct != nil {
		s.WaterKg = Float(Round(*w**s.WaterPct/100, 2))
	}
	return s
}

// WeightValue returns the weight under either field name.
func (s ShortSnapshot) WeightValue() *float64 {
	if s.Weight != nil {
		return s.Weight
	}
	return s.Peso
}

// Snapshot widens the short entry into a rich snapshot.
func (s ShortSnapshot) Snapshot() MeasurementSnapshot {
	return MeasurementSnapshot{Date: s.Date, Weight: s.Weight, Peso: s.Peso, CreatedAt: s.CreatedAt}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func snapshotValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// ValidateSnapshot checks the range rules of a snapshot before it is written.
func ValidateSnapshot(s MeasurementSnapshot) error {
	if !s.Persistable() {
		return validationErrorf("snapshot needs a date or a weight")
	}
	err := snapshotValidator().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return validationErrorf("%s", strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Field() {
	case "Weight", "Peso":
		return "weight must be > 0 and <= 500"
	case "BodyFatPct":
		return "bodyFatPct must be between 0 and 100"
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}
