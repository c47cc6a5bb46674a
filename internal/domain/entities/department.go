package entities

import "strings"

// Department is a canonical clinical department tag.
type Department string

const (
	DeptOrthodontics   Department = "교정"
	DeptOralMedicine   Department = "내과"
	DeptOralSurgery    Department = "외과"
	DeptProsthodontics Department = "보철"
	DeptConservative   Department = "보존"
	DeptPediatric      Department = "소치"
	DeptPeriodontics   Department = "치주"
	DeptStudentClinic  Department = "원내생"
	DeptImplant        Department = "임플란트"
	DeptPathology      Department = "병리"
	DeptRadiology      Department = "영상치의학"
)

// AllDepartments lists canonical departments in display order.
var AllDepartments = []Department{
	DeptOrthodontics,
	DeptOralMedicine,
	DeptOralSurgery,
	DeptProsthodontics,
	DeptConservative,
	DeptPediatric,
	DeptPeriodontics,
	DeptStudentClinic,
	DeptImplant,
	DeptPathology,
	DeptRadiology,
}

// SheetKeyword maps a sheet-name keyword to its canonical department.
type SheetKeyword struct {
	Keyword    string
	Department Department
}

// SheetKeywords is scanned in order; the first keyword contained in a sheet
// name wins, so longer and more specific keywords come first.
var SheetKeywords = []SheetKeyword{
	{"구강악안면외과", DeptOralSurgery},
	{"구강내과", DeptOralMedicine},
	{"치과보철과", DeptProsthodontics},
	{"치과보존과", DeptConservative},
	{"소아치과", DeptPediatric},
	{"치과교정과", DeptOrthodontics},
	{"임플란트", DeptImplant},
	{"원내생", DeptStudentClinic},
	{"영상치의학", DeptRadiology},
	{"구강병리", DeptPathology},
	{"교정", DeptOrthodontics},
	{"내과", DeptOralMedicine},
	{"외과", DeptOralSurgery},
	{"보철", DeptProsthodontics},
	{"보존", DeptConservative},
	{"소치", DeptPediatric},
	{"치주", DeptPeriodontics},
	{"임플", DeptImplant},
	{"영상", DeptRadiology},
	{"병리", DeptPathology},
}

// searchableDepartments expands a registered department into the sheet
// departments that must be searched for it.
var searchableDepartments = map[Department][]Department{
	DeptOralSurgery:    {DeptOralSurgery, DeptImplant},
	DeptProsthodontics: {DeptProsthodontics, DeptImplant},
}

// SummaryDepartments are the departments counted by the analysis summary.
var SummaryDepartments = []Department{DeptPediatric, DeptConservative, DeptOrthodontics}

// ResolveSheetDepartment returns the department for a sheet name, or false if
// no keyword matches.
func ResolveSheetDepartment(sheetName string) (Department, bool) {
	name := strings.ToLower(strings.TrimSpace(sheetName))
	if name == "" {
		return "", false
	}
	for _, kw := range SheetKeywords {
		if strings.Contains(name, strings.ToLower(kw.Keyword)) {
			return kw.Department, true
		}
	}
	return "", false
}

// SearchableDepartments returns the sheet departments searched for a
// registered department.
func SearchableDepartments(dept Department) []Department {
	if expanded, ok := searchableDepartments[dept]; ok {
		out := make([]Department, len(expanded))
		copy(out, expanded)
		return out
	}
	return []Department{dept}
}

// ParseDepartment maps free text to a canonical department. Exact canonical
// names are accepted as well as anything ResolveSheetDepartment understands.
func ParseDepartment(value string) (Department, bool) {
	value = strings.TrimSpace(value)
	for _, d := range AllDepartments {
		if string(d) == value {
			return d, true
		}
	}
	return ResolveSheetDepartment(value)
}
