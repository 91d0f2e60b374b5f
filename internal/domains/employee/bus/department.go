package bus

import (
	"fmt"
)

var (
	DepartmentHumanResources = newDepartment("Human Resources", "HR")
	DepartmentEngineering    = newDepartment("Engineering", "ENG")
	DepartmentMarketing      = newDepartment("Marketing", "MKT")
	DepartmentSales          = newDepartment("Sales", "SAL")
	DepartmentFinance        = newDepartment("Finance", "FIN")
	DepartmentOperations     = newDepartment("Operations", "OPS")
)

// DefaultIDPrefix is used when an employee id has to be derived for a
// department outside the known set.
const DefaultIDPrefix = "GEN"

// Department represents a department in our system, since it requires some
// validation and carries an id prefix, created a new custom type for it.
type Department struct {
	name   string
	prefix string
}

var validDepartments = make(map[string]Department)

func newDepartment(name string, prefix string) Department {
	d := Department{name: name, prefix: prefix}

	validDepartments[name] = d
	return d
}

func (d Department) String() string {
	return d.name
}

// Prefix returns the short code used as the middle part of a generated
// employee id.
func (d Department) Prefix() string {
	return d.prefix
}

func (d Department) MarshalText() ([]byte, error) {
	return []byte(d.name), nil
}

func ParseDepartment(val string) (Department, error) {
	d, ok := validDepartments[val]
	if !ok {
		return Department{}, fmt.Errorf("invalid department: %s", val)
	}

	return d, nil
}

// DepartmentNames returns the names of the known departments.
func DepartmentNames() []string {
	names := make([]string, 0, len(validDepartments))
	for name := range validDepartments {
		names = append(names, name)
	}

	return names
}

// PrefixFor maps a raw department name to its id prefix, falling back to the
// generic prefix for anything outside the known set.
func PrefixFor(department string) string {
	if d, ok := validDepartments[department]; ok {
		return d.prefix
	}

	return DefaultIDPrefix
}
