package pipeline

import (
	"strings"

	"censusfmt/internal"
	"censusfmt/internal/schema"
	"censusfmt/internal/util"
)

// Normalizer turns projected raw rows into canonical records. It is
// built once per upload because the dependentBasicLife default depends
// on whether anybody in the whole file answered that column.
type Normalizer struct {
	mapping      internal.FieldMapping
	defaultHours float64

	// true when at least one row has a non-empty dependentBasicLife
	// cell. An empty cell then means "this person waived" rather than
	// "the question was never asked".
	depBasicLifeAnswered bool
}

func NewNormalizer(mapping internal.FieldMapping, rows []internal.RawRow, defaultHours float64) *Normalizer {
	n := &Normalizer{mapping: mapping, defaultHours: defaultHours}
	if header := mapping[schema.DependentBasicLife]; header != "" {
		for _, row := range rows {
			if !row[header].IsEmpty() {
				n.depBasicLifeAnswered = true
				break
			}
		}
	}
	return n
}

// Normalize produces one canonical record plus any ambiguous-default
// diagnostics. rowIndex is the zero-based data row position.
func (n *Normalizer) Normalize(rowIndex int, row internal.RawRow) (internal.CanonicalRecord, []internal.Diagnostic) {
	cells := Project(row, n.mapping)
	get := func(key string) internal.Cell {
		if c, ok := cells[key]; ok {
			return c
		}
		return internal.EmptyCell()
	}

	var diags []internal.Diagnostic
	rec := internal.CanonicalRecord{
		Relationship:         ParseRelationship(get(schema.Relationship)),
		SocialSecurityNumber: FormatSSN(get(schema.SocialSecurityNumber)),
		MemberLastName:       FormatName(get(schema.MemberLastName)),
		FirstName:            FormatName(get(schema.FirstName)),
		MiddleInitial:        FormatMiddleInitial(get(schema.MiddleInitial)),
		Gender:               ParseGender(get(schema.Gender)),
		DateOfBirth:          FormatDate(get(schema.DateOfBirth)),
		Disabled:             FormatYesNo(get(schema.Disabled)),

		MemberStreetAddress: FormatAddress(get(schema.MemberStreetAddress)),
		City:                FormatCity(get(schema.City)),
		State:               FormatState(get(schema.State)),
		Zip:                 FormatZip(get(schema.Zip)),
		Phone:               FormatPhone(get(schema.Phone)),
		Email:               strings.TrimSpace(get(schema.Email).String()),
	}

	if get(schema.Gender).IsEmpty() {
		diags = append(diags, internal.Diagnostic{
			Row:     rowIndex,
			Field:   "Gender",
			Code:    internal.DiagGenderDefaulted,
			Message: "gender missing; defaulted to M, verify with the group",
		})
	}

	rec.EmployeeStatus = strings.TrimSpace(get(schema.EmployeeStatus).String())
	if rec.EmployeeStatus == "" {
		rec.EmployeeStatus = "Active"
	}

	if rec.Relationship != internal.RelEmployee {
		// Dependents keep identity and contact only, except the
		// voluntary-life declaration riding their own row: the
		// reconciler consumes it during roll-up and clears it.
		switch rec.Relationship {
		case internal.RelSpouse, internal.RelDomesticPartner:
			if !get(schema.SpouseVolumeAmount).IsEmpty() {
				rec.SpouseVolumeAmount = FormatVolumeAmount(get(schema.SpouseVolumeAmount))
			}
		case internal.RelChild:
			if vol, code := FormatDependentVolume(get(schema.DependentVolume)); vol != "" {
				rec.DependentVolume = util.StringPtr(vol)
				if code != "" {
					diags = append(diags, volumeDiag(rowIndex, code, get(schema.DependentVolume)))
				}
			}
		}
		return rec, diags
	}

	rec.DateOfHire = datePtr(get(schema.DateOfHire))
	rec.DentalPlanElection = textPtr(get(schema.DentalPlanElection))
	rec.DHMOProviderName = textPtr(get(schema.DHMOProviderName))
	rec.DentalPriorCarrierName = textPtr(get(schema.DentalPriorCarrierName))
	rec.DentalPriorCarrierEffectiveDate = datePtr(get(schema.DentalPriorCarrierEffectiveDate))
	rec.DentalPriorCarrierTermDate = datePtr(get(schema.DentalPriorCarrierTermDate))
	rec.DentalPriorCarrierOrtho = util.StringPtr(FormatYesNo(get(schema.DentalPriorCarrierOrtho)))
	rec.VisionPlanElection = textPtr(get(schema.VisionPlanElection))

	if cell := get(schema.DentalCoverageType); !cell.IsEmpty() {
		code, known := FormatCoverageType(cell)
		rec.DentalCoverageType = util.StringPtr(code)
		if !known {
			diags = append(diags, coverageDiag(rowIndex, "Dental Coverage Type", cell))
		}
	}
	if cell := get(schema.VisionCoverageType); !cell.IsEmpty() {
		code, known := FormatCoverageType(cell)
		rec.VisionCoverageType = util.StringPtr(code)
		if !known {
			diags = append(diags, coverageDiag(rowIndex, "Vision Coverage Type", cell))
		}
	}

	if v := FormatRestrictedCoverageType(get(schema.BasicLifeCoverageType)); v != "" {
		rec.BasicLifeCoverageType = util.StringPtr(v)
	}
	rec.PrimaryLifeBeneficiary = textPtr(get(schema.PrimaryLifeBeneficiary))
	rec.DependentBasicLife = n.dependentBasicLife(get(schema.DependentBasicLife))
	rec.LifeADDClass = textPtr(get(schema.LifeADDClass))

	rec.EmployeeVolumeAmount = FormatVolumeAmount(get(schema.EmployeeVolumeAmount))
	rec.SpouseVolumeAmount = FormatVolumeAmount(get(schema.SpouseVolumeAmount))
	if vol, code := FormatDependentVolume(get(schema.DependentVolume)); vol != "" {
		rec.DependentVolume = util.StringPtr(vol)
		if code != "" {
			diags = append(diags, volumeDiag(rowIndex, code, get(schema.DependentVolume)))
		}
	}

	if v := FormatRestrictedCoverageType(get(schema.STD)); v != "" {
		rec.STD = util.StringPtr(v)
	}
	if v := FormatRestrictedCoverageType(get(schema.LTD)); v != "" {
		rec.LTD = util.StringPtr(v)
	}
	rec.STDClass = textPtr(get(schema.STDClass))
	rec.LTDClass = textPtr(get(schema.LTDClass))

	rec.SalaryType = salaryType(get(schema.SalaryType))
	rec.SalaryAmount = FormatSalary(get(schema.SalaryAmount), get(schema.SalaryType), get(schema.HoursWorked), n.defaultHours)
	rec.Occupation = cleanPtr(get(schema.Occupation))
	rec.HoursWorked = FormatHoursWorked(get(schema.HoursWorked), n.defaultHours)
	rec.WorkingLocation = cleanPtr(get(schema.WorkingLocation))
	rec.BillingDivision = cleanPtr(get(schema.BillingDivision))

	return rec, diags
}

// dependentBasicLife distinguishes "this person waived" from "the file
// never asked". An empty cell defaults to W only when somebody else in
// the upload answered the column.
func (n *Normalizer) dependentBasicLife(c internal.Cell) *string {
	if c.IsEmpty() {
		if n.depBasicLifeAnswered {
			return util.StringPtr("W")
		}
		return nil
	}
	if waiverAliases[CleanText(c)] {
		return util.StringPtr("W")
	}
	return util.StringPtr("Enroll")
}

func salaryType(c internal.Cell) *string {
	v := strings.TrimSpace(c.String())
	if v == "" {
		return nil
	}
	if strings.Contains(strings.ToLower(v), "hour") {
		return util.StringPtr("Hourly")
	}
	return util.StringPtr("Annual")
}

func textPtr(c internal.Cell) *string {
	if v := strings.TrimSpace(c.String()); v != "" {
		return util.StringPtr(v)
	}
	return nil
}

func cleanPtr(c internal.Cell) *string {
	if v := CleanText(c); v != "" {
		return util.StringPtr(v)
	}
	return nil
}

func datePtr(c internal.Cell) *string {
	if v := FormatDate(c); v != "" {
		return util.StringPtr(v)
	}
	return nil
}

func coverageDiag(row int, field string, cell internal.Cell) internal.Diagnostic {
	return internal.Diagnostic{
		Row:     row,
		Field:   field,
		Code:    internal.DiagUnknownCoverageType,
		Value:   cell.String(),
		Message: "unrecognized coverage tier kept verbatim; verify against the carrier's tier list",
	}
}

func volumeDiag(row int, code internal.DiagCode, cell internal.Cell) internal.Diagnostic {
	msg := "child voluntary life defaulted to W; original value not recognized"
	if code == internal.DiagEnrollNoAmount {
		msg = "child voluntary life marked Enroll with no amount; needs verification"
	}
	return internal.Diagnostic{
		Row:     row,
		Field:   "Child Voluntary Life",
		Code:    code,
		Value:   cell.String(),
		Message: msg,
	}
}
