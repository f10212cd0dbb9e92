package adapthttp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"nutriportal/internal/domain"
)

// formNumber is a numeric form field. Clients send either a JSON number or
// the raw input text, which may use a comma as decimal separator. Anything
// that does not parse becomes null.
type formNumber struct {
	v *float64
}

func (n *formNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	n.v = nil
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n.v = domain.ParseDecimal(s)
		return nil
	}
	n.v = domain.ParseDecimal(string(data))
	return nil
}

// measurementInput is the body of a create or edit request.
type measurementInput struct {
	Date      string           `json:"date"`
	CreatedAt domain.Timestamp `json:"createdAt"`
	Unit      string           `json:"unit"`

	Weight formNumber `json:"weight"`
	Peso   formNumber `json:"peso"`

	BodyFatPct         formNumber `json:"bodyFatPct"`
	BodyFatKg          formNumber `json:"bodyFatKg"`
	LeanMassKg         formNumber `json:"leanMassKg"`
	MuscleMassKg       formNumber `json:"muscleMassKg"`
	WaterKg            formNumber `json:"waterKg"`
	WaterPct           formNumber `json:"waterPct"`
	BoneMassKg         formNumber `json:"boneMassKg"`
	BasalMetabolicRate formNumber `json:"basalMetabolicRate"`
	VisceralFat        formNumber `json:"visceralFat"`
	BMI                formNumber `json:"bmi"`
	MetabolicAge       formNumber `json:"metabolicAge"`
	WaistCm            formNumber `json:"waistCm"`
	HipCm              formNumber `json:"hipCm"`
	ArmCm              formNumber `json:"armCm"`
	ThighCm            formNumber `json:"thighCm"`
	WaistToHeight      string     `json:"waistToHeight"`
	WaistSkinfoldMm    formNumber `json:"waistSkinfoldMm"`
	Notes              string     `json:"notes"`
}

// snapshot converts the input to kilograms and builds the snapshot.
func (in measurementInput) snapshot() (domain.MeasurementSnapshot, error) {
	unit := strings.ToLower(strings.TrimSpace(in.Unit))
	if unit == "" {
		unit = "kg"
	}
	if unit != "kg" && unit != "lb" {
		return domain.MeasurementSnapshot{}, fmt.Errorf("%w: unit must be kg or lb", domain.ErrValidation)
	}

	weight := in.Weight.v
	if weight == nil {
		weight = in.Peso.v
	}
	if weight != nil && unit == "lb" {
		weight = domain.Float(domain.Round(domain.ConvertWeight(*weight, "lb", "kg"), 2))
	}

	return domain.MeasurementSnapshot{
		Date:               strings.TrimSpace(in.Date),
		CreatedAt:          in.CreatedAt,
		Weight:             weight,
		BodyFatPct:         in.BodyFatPct.v,
		BodyFatKg:          in.BodyFatKg.v,
		LeanMassKg:         in.LeanMassKg.v,
		MuscleMassKg:       in.MuscleMassKg.v,
		WaterKg:            in.WaterKg.v,
		WaterPct:           in.WaterPct.v,
		BoneMassKg:         in.BoneMassKg.v,
		BasalMetabolicRate: in.BasalMetabolicRate.v,
		VisceralFat:        in.VisceralFat.v,
		BMI:                in.BMI.v,
		MetabolicAge:       in.MetabolicAge.v,
		WaistCm:            in.WaistCm.v,
		HipCm:              in.HipCm.v,
		ArmCm:              in.ArmCm.v,
		ThighCm:            in.ThighCm.v,
		WaistToHeight:      strings.TrimSpace(in.WaistToHeight),
		WaistSkinfoldMm:    in.WaistSkinfoldMm.v,
		Notes:              strings.TrimSpace(in.Notes),
	}, nil
}
