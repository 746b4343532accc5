package genai

// Department is one of the organizational units documents are routed to.
type Department string

const (
	DepartmentOperations  Department = "Operations Department"
	DepartmentEngineering Department = "Engineering & Maintenance Department"
	DepartmentProcurement Department = "Procurement & Stores Department"
	DepartmentSafety      Department = "Safety & Regulatory Compliance Department"
	DepartmentHR          Department = "Human Resources (HR)"
	DepartmentFinance     Department = "Finance & Accounts Department"
	DepartmentExecutive   Department = "Executive / Board of Directors"
)

// AllDepartments is the routing taxonomy, in presentation order.
var AllDepartments = []Department{
	DepartmentOperations,
	DepartmentEngineering,
	DepartmentProcurement,
	DepartmentSafety,
	DepartmentHR,
	DepartmentFinance,
	DepartmentExecutive,
}

// departmentInstructions tailor what the summary emphasizes per audience.
var departmentInstructions = map[Department]string{
	DepartmentOperations:  "Focus on actionable items, deadlines, and personnel. Financials and compliance are less critical.",
	DepartmentEngineering: "Prioritize equipment details, actionable maintenance tasks, and safety risks. Financials are secondary.",
	DepartmentProcurement: "Extract equipment details, financial implications (costs, vendors), and deadlines.",
	DepartmentSafety:      "Focus heavily on compliance risks, deadlines, and actionable items to ensure adherence.",
	DepartmentHR:          "Extract information related to personnel, policy changes, and deadlines.",
	DepartmentFinance:     "Prioritize financial implications, vendor details, and deadlines. Technical details are less important.",
	DepartmentExecutive:   "Provide a high-level summary focusing on key points, financial implications, and major risks.",
}

const defaultInstruction = "Provide a balanced summary covering all key aspects."

// instructionFor returns the summary emphasis for a department name, falling
// back to a balanced summary for unknown departments.
func instructionFor(department string) string {
	if instruction, ok := departmentInstructions[Department(department)]; ok {
		return instruction
	}
	return defaultInstruction
}
