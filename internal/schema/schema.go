// Package schema holds the canonical census field table: the fixed set
// of field keys, their display labels, whether they are required, and
// the literal substring rules the header matcher uses. Keeping this as
// data means the matcher stays a pure lookup.
package schema

// Field keys, used across mapping, normalization and export.
const (
	Relationship         = "relationship"
	MemberLastName       = "memberLastName"
	FirstName            = "firstName"
	MiddleInitial        = "middleInitial"
	Gender               = "gender"
	DateOfBirth          = "dateOfBirth"
	SocialSecurityNumber = "socialSecurityNumber"
	EmployeeStatus       = "employeeStatus"
	Disabled             = "disabled"
	MemberStreetAddress  = "memberStreetAddress"
	City                 = "city"
	State                = "state"
	Zip                  = "zip"
	Phone                = "phone"
	Email                = "email"
	DateOfHire           = "dateOfHire"
	SalaryAmount         = "salaryAmount"
	SalaryType           = "salaryType"
	HoursWorked          = "hoursWorked"
	Occupation           = "occupation"
	WorkingLocation      = "workingLocation"
	BillingDivision      = "billingDivision"

	DentalPlanElection              = "dentalPlanElection"
	DentalCoverageType              = "dentalCoverageType"
	DHMOProviderName                = "dhmoProviderName"
	DentalPriorCarrierName          = "dentalPriorCarrierName"
	DentalPriorCarrierEffectiveDate = "dentalPriorCarrierEffectiveDate"
	DentalPriorCarrierTermDate      = "dentalPriorCarrierTermDate"
	DentalPriorCarrierOrtho         = "dentalPriorCarrierOrtho"

	VisionPlanElection = "visionPlanElection"
	VisionCoverageType = "visionCoverageType"

	BasicLifeCoverageType  = "basicLifeCoverageType"
	DependentBasicLife     = "dependentBasicLife"
	PrimaryLifeBeneficiary = "primaryLifeBeneficiary"
	EmployeeVolumeAmount   = "employeeVolumeAmount"
	SpouseVolumeAmount     = "spouseVolumeAmount"
	DependentVolume        = "dependentVolume"

	STD          = "std"
	LTD          = "ltd"
	STDClass     = "stdClass"
	LTDClass     = "ltdClass"
	LifeADDClass = "lifeADDClass"
)

type Field struct {
	Key      string
	Label    string
	Required bool
	// Probes are lowercase substrings tried against each raw header
	// after the exact-label pass. One rule set per field, fixed.
	Probes []string
}

// Fields is the canonical schema, in matching order. Earlier fields
// claim headers first; a claimed header is never reused.
var Fields = []Field{
	{Key: Relationship, Label: "Relationship", Required: true, Probes: []string{"relationship"}},
	{Key: MemberLastName, Label: "Member Last Name", Required: true, Probes: []string{"last name", "member last"}},
	{Key: FirstName, Label: "First Name", Required: true, Probes: []string{"first name"}},
	{Key: MiddleInitial, Label: "Middle Initial", Probes: []string{"middle"}},
	{Key: Gender, Label: "Gender", Required: true, Probes: []string{"gender", "sex"}},
	{Key: DateOfBirth, Label: "Date of Birth", Required: true, Probes: []string{"date of birth", "dob"}},
	{Key: SocialSecurityNumber, Label: "Social Security Number", Probes: []string{"ssn", "social security"}},
	{Key: EmployeeStatus, Label: "Employee Status", Probes: []string{"employee status"}},
	{Key: Disabled, Label: "Disabled", Probes: []string{"disabled"}},
	{Key: MemberStreetAddress, Label: "Member Street Address", Probes: []string{"address", "street"}},
	{Key: City, Label: "City", Probes: []string{"city"}},
	{Key: State, Label: "State", Probes: []string{"state"}},
	{Key: Zip, Label: "Zip Code", Probes: []string{"zip", "postal"}},
	{Key: Phone, Label: "Phone Number", Probes: []string{"phone", "telephone"}},
	{Key: Email, Label: "Email Address", Probes: []string{"email"}},
	{Key: DateOfHire, Label: "Date of Hire", Probes: []string{"hire"}},
	{Key: SalaryAmount, Label: "Salary", Probes: []string{"salary"}},
	{Key: SalaryType, Label: "Annual or Hourly", Probes: []string{"annual", "hourly"}},
	{Key: HoursWorked, Label: "Hours Worked Per Week", Probes: []string{"hours"}},
	{Key: Occupation, Label: "Occupation", Probes: []string{"occupation", "job title"}},
	{Key: WorkingLocation, Label: "Working Location", Probes: []string{"working location", "work location"}},
	{Key: BillingDivision, Label: "Billing Division", Probes: []string{"division"}},
	{Key: DentalPlanElection, Label: "Dental Plan Election", Probes: []string{"dental plan"}},
	{Key: DentalCoverageType, Label: "Dental Coverage Type", Probes: []string{"dental coverage", "dental tier"}},
	{Key: DHMOProviderName, Label: "DHMO Provider Name", Probes: []string{"dhmo"}},
	{Key: DentalPriorCarrierName, Label: "Prior Carrier Name", Probes: []string{"prior carrier name"}},
	{Key: DentalPriorCarrierEffectiveDate, Label: "Prior Carrier Eff Date", Probes: []string{"prior carrier eff"}},
	{Key: DentalPriorCarrierTermDate, Label: "Prior Carrier Term Date", Probes: []string{"prior carrier term"}},
	{Key: DentalPriorCarrierOrtho, Label: "Prior Carrier Ortho?", Probes: []string{"ortho"}},
	{Key: VisionPlanElection, Label: "Vision Plan Selection", Probes: []string{"vision plan"}},
	{Key: VisionCoverageType, Label: "Vision Coverage Type", Probes: []string{"vision coverage", "vision tier"}},
	{Key: BasicLifeCoverageType, Label: "Basic Life Election", Probes: []string{"basic life election", "basic life coverage"}},
	{Key: DependentBasicLife, Label: "Dependent Basic Life", Probes: []string{"dependent basic life"}},
	{Key: PrimaryLifeBeneficiary, Label: "Primary Life Beneficiary", Probes: []string{"beneficiary"}},
	{Key: EmployeeVolumeAmount, Label: "Employee Voluntary Life", Probes: []string{"employee voluntary", "employee vol life"}},
	{Key: SpouseVolumeAmount, Label: "Spousal Voluntary Life", Probes: []string{"spousal voluntary", "spouse voluntary"}},
	{Key: DependentVolume, Label: "Child Voluntary Life", Probes: []string{"child voluntary", "dependent voluntary"}},
	{Key: STD, Label: "STD Coverage Type", Probes: []string{"std"}},
	{Key: LTD, Label: "LTD Coverage Type", Probes: []string{"ltd"}},
	{Key: STDClass, Label: "STD Class", Probes: []string{"std class"}},
	{Key: LTDClass, Label: "LTD Class", Probes: []string{"ltd class"}},
	{Key: LifeADDClass, Label: "Basic Life Class", Probes: []string{"life class", "add class"}},
}

func FieldByKey(key string) (Field, bool) {
	for _, f := range Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

func RequiredKeys() []string {
	out := make([]string, 0, len(Fields))
	for _, f := range Fields {
		if f.Required {
			out = append(out, f.Key)
		}
	}
	return out
}

type ExportColumn struct {
	Header string
	Key    string
}

// ExportColumns is the fixed output column order of the cleaned
// workbook.
var ExportColumns = []ExportColumn{
	{"Relationship", Relationship},
	{"Employee Status", EmployeeStatus},
	{"Social Security Number", SocialSecurityNumber},
	{"Member Last Name", MemberLastName},
	{"First Name", FirstName},
	{"Middle Initial", MiddleInitial},
	{"Gender", Gender},
	{"Date of Birth", DateOfBirth},
	{"Disabled", Disabled},
	{"Member Street Address", MemberStreetAddress},
	{"City", City},
	{"State", State},
	{"Zip", Zip},
	{"Phone", Phone},
	{"Email", Email},
	{"Date of Hire", DateOfHire},
	{"Dental Plan Election", DentalPlanElection},
	{"Dental Coverage Type", DentalCoverageType},
	{"DHMO Provider Name", DHMOProviderName},
	{"Dental Prior Carrier Name", DentalPriorCarrierName},
	{"Dental Prior Carrier Effective Date", DentalPriorCarrierEffectiveDate},
	{"Dental Prior Carrier Term Date", DentalPriorCarrierTermDate},
	{"Dental Prior Carrier Ortho", DentalPriorCarrierOrtho},
	{"Vision Plan Election", VisionPlanElection},
	{"Vision Coverage Type", VisionCoverageType},
	{"Basic Life Coverage Type", BasicLifeCoverageType},
	{"Primary Life Beneficiary", PrimaryLifeBeneficiary},
	{"Dependent Basic Life", DependentBasicLife},
	{"Life ADD Class", LifeADDClass},
	{"Employee Volume Amount", EmployeeVolumeAmount},
	{"Spouse Volume Amount", SpouseVolumeAmount},
	{"Dependent Volume", DependentVolume},
	{"STD", STD},
	{"LTD", LTD},
	{"STD Class", STDClass},
	{"LTD Class", LTDClass},
	{"Salary Type", SalaryType},
	{"Salary Amount", SalaryAmount},
	{"Occupation", Occupation},
	{"Hours Worked", HoursWorked},
	{"Working Location", WorkingLocation},
	{"Billing Division", BillingDivision},
}
