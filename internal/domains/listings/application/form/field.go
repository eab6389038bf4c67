package form

// Field names one mutable scalar of the listing draft. Values only exist as
// the package-level variables below, so callers cannot address unknown keys.
type Field struct {
	key string
}

// Key returns the wire name of the field.
func (f Field) Key() string { return f.key }

func (f Field) String() string { return f.key }

var (
	FieldName            = Field{"pet_name"}
	FieldSpecies         = Field{"pet_type"}
	FieldExactAge        = Field{"exact_age"}
	FieldAgeCategory     = Field{"age_category"}
	FieldGender          = Field{"gender"}
	FieldCountry         = Field{"country"}
	FieldProvince        = Field{"province"}
	FieldTown            = Field{"town"}
	FieldPrice           = Field{"price"}
	FieldDescription     = Field{"description"}
	FieldContactName     = Field{"contact_name"}
	FieldContactPhone    = Field{"contact_phone"}
	FieldDocuments       = Field{"documents"}
	FieldSterilized      = Field{"isSterilized"}
	FieldVaccinated      = Field{"isVaccinated"}
	FieldChipped         = Field{"hasChip"}
	FieldParasiteTreated = Field{"hasParasiteTreatment"}
	FieldVetPassport     = Field{"hasVetPassport"}
	FieldPedigree        = Field{"hasPedigree"}
	FieldFCICertificate  = Field{"hasFCICertificate"}
)

var allFields = []Field{
	FieldName,
	FieldSpecies,
	FieldExactAge,
	FieldAgeCategory,
	FieldGender,
	FieldCountry,
	FieldProvince,
	FieldTown,
	FieldPrice,
	FieldDescription,
	FieldContactName,
	FieldContactPhone,
	FieldDocuments,
	FieldSterilized,
	FieldVaccinated,
	FieldChipped,
	FieldParasiteTreated,
	FieldVetPassport,
	FieldPedigree,
	FieldFCICertificate,
}

// Fields returns every settable field in display order.
func Fields() []Field {
	return append([]Field{}, allFields...)
}

// ParseField resolves a wire key such as "pet_name". Unknown keys are rejected.
func ParseField(key string) (Field, bool) {
	for _, f := range allFields {
		if f.key == key {
			return f, true
		}
	}
	return Field{}, false
}

func (f Field) isFlag() bool {
	switch f {
	case FieldSterilized, FieldVaccinated, FieldChipped, FieldParasiteTreated,
		FieldVetPassport, FieldPedigree, FieldFCICertificate:
		return true
	}
	return false
}
