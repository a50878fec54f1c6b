package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// jsonbScan fills dst from a JSONB column value.
func jsonbScan(dst interface{}, src interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
}

func jsonbMarshal(v interface{}) (driver.Value, error) {
	return json.Marshal(v)
}

// StringList is a JSONB-backed list of strings.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(src interface{}) error { return jsonbScan(l, src) }

type BloodAnalysisList []BloodAnalysis

func (l BloodAnalysisList) Value() (driver.Value, error) {
	if l == nil {
		l = BloodAnalysisList{}
	}
	return json.Marshal(l)
}

func (l *BloodAnalysisList) Scan(src interface{}) error { return jsonbScan(l, src) }

type RadiologyStudyList []RadiologyStudy

func (l RadiologyStudyList) Value() (driver.Value, error) {
	if l == nil {
		l = RadiologyStudyList{}
	}
	return json.Marshal(l)
}

func (l *RadiologyStudyList) Scan(src interface{}) error { return jsonbScan(l, src) }

type DiagnosisList []Diagnosis

func (l DiagnosisList) Value() (driver.Value, error) {
	if l == nil {
		l = DiagnosisList{}
	}
	return json.Marshal(l)
}

func (l *DiagnosisList) Scan(src interface{}) error { return jsonbScan(l, src) }

type PrescriptionList []Prescription

func (l PrescriptionList) Value() (driver.Value, error) {
	if l == nil {
		l = PrescriptionList{}
	}
	return json.Marshal(l)
}

func (l *PrescriptionList) Scan(src interface{}) error { return jsonbScan(l, src) }

type ProcedureList []MedicalProcedure

func (l ProcedureList) Value() (driver.Value, error) {
	if l == nil {
		l = ProcedureList{}
	}
	return json.Marshal(l)
}

func (l *ProcedureList) Scan(src interface{}) error { return jsonbScan(l, src) }

type EvolutionList []MedicalEvolution

func (l EvolutionList) Value() (driver.Value, error) {
	if l == nil {
		l = EvolutionList{}
	}
	return json.Marshal(l)
}

func (l *EvolutionList) Scan(src interface{}) error { return jsonbScan(l, src) }
