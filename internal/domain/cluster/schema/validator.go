package schema

import (
	"github.com/samber/lo"

	"github.com/kailas-cloud/clusterdb/internal/domain"
	"github.com/kailas-cloud/clusterdb/internal/domain/cluster/field"
	"github.com/kailas-cloud/clusterdb/internal/domain/document/patch"
)

// Validator checks and normalizes document bodies against a Descriptor.
// It is safe for concurrent use.
type Validator struct {
	desc   Descriptor
	byName map[string]field.Field
}

// NewValidator compiles a Descriptor into a Validator.
func NewValidator(d Descriptor) *Validator {
	return &Validator{
		desc:   d,
		byName: lo.KeyBy(d.fields, func(f field.Field) string { return f.Name() }),
	}
}

// Descriptor returns the schema the validator was built from.
func (v *Validator) Descriptor() Descriptor { return v.desc }

// ForCreate validates a full document body, applies defaults and casts values.
// Engine-managed keys (_id, createdAt, updatedAt, __v) are dropped.
func (v *Validator) ForCreate(body map[string]any) (map[string]any, error) {
	verr := &domain.ValidationError{}
	out := v.checkKeys(body, verr)

	for _, f := range v.desc.fields {
		val, present := out[f.Name()]
		if !present {
			if def, ok := f.Default(); ok {
				out[f.Name()] = def
				val = def
			}
		}
		if f.Required() && f.IsEmpty(val) {
			verr.Add(f.Name(), "is required")
		}
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return out, nil
}

// ForUpdate validates the provided top-level fields of a replacement update.
// Fields not mentioned are left untouched by the caller.
func (v *Validator) ForUpdate(body map[string]any) (map[string]any, error) {
	verr := &domain.ValidationError{}
	out := v.checkKeys(body, verr)

	for name, val := range out {
		if f, ok := v.byName[name]; ok && f.Required() && f.IsEmpty(val) {
			verr.Add(name, "is required")
		}
	}
	if len(out) == 0 && verr.Empty() {
		verr.Add("body", "at least one field must be provided")
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return out, nil
}

// ForPatch validates a partial merge. Nested objects under container fields
// are merged path by path; a null value removes a non-required field.
func (v *Validator) ForPatch(body map[string]any) (patch.Patch, error) {
	verr := &domain.ValidationError{}
	set := make(map[string]any)
	var unset []string

	for key, raw := range body {
		if field.IsReserved(key) {
			continue
		}
		if !patch.ValidKey(key) {
			verr.Add(key, "invalid field name")
			continue
		}
		f, declared := v.byName[key]
		if !declared && v.desc.strict {
			verr.Add(key, "is not declared in schema")
			continue
		}
		if raw == nil {
			if declared && f.Required() {
				verr.Add(key, "is required")
				continue
			}
			unset = append(unset, key)
			continue
		}

		if nested, ok := raw.(map[string]any); ok && (!declared || f.FieldType().IsContainer()) {
			if err := patch.Flatten(key, nested, set); err != nil {
				verr.Add(key, err.Error())
			}
			continue
		}

		val := raw
		if declared {
			cast, err := f.Check(raw)
			if err != nil {
				verr.Add(key, err.Error())
				continue
			}
			if f.Required() && f.IsEmpty(cast) {
				verr.Add(key, "is required")
				continue
			}
			val = cast
		}
		set[key] = val
	}

	if err := verr.OrNil(); err != nil {
		return patch.Patch{}, err
	}
	p, err := patch.New(set, unset)
	if err != nil {
		return patch.Patch{}, domain.NewValidationError("body", err.Error())
	}
	return p, nil
}

// checkKeys drops engine-managed keys, rejects undeclared keys in strict mode
// and casts declared values.
func (v *Validator) checkKeys(body map[string]any, verr *domain.ValidationError) map[string]any {
	out := make(map[string]any, len(body))
	for key, raw := range body {
		if field.IsReserved(key) {
			continue
		}
		if !patch.ValidKey(key) {
			verr.Add(key, "invalid field name")
			continue
		}
		f, declared := v.byName[key]
		if !declared {
			if v.desc.strict {
				verr.Add(key, "is not declared in schema")
				continue
			}
			out[key] = raw
			continue
		}
		val, err := f.Check(raw)
		if err != nil {
			verr.Add(key, err.Error())
			continue
		}
		out[key] = val
	}
	return out
}
