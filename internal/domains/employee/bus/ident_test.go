package bus_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/staffdesk/staffdesk/internal/domains/employee/bus"
)

func TestGenerateEmployeeID(t *testing.T) {
	tests := []struct {
		name       string
		department string
		date       string
		wantPrefix string
	}{
		{name: "engineering", department: "Engineering", date: "2024-03-15", wantPrefix: "24ENG"},
		{name: "human resources", department: "Human Resources", date: "2023-06-01", wantPrefix: "23HR"},
		{name: "marketing", department: "Marketing", date: "2025-01-02", wantPrefix: "25MKT"},
		{name: "sales", department: "Sales", date: "2024-12-31", wantPrefix: "24SAL"},
		{name: "finance", department: "Finance", date: "2024-07-07", wantPrefix: "24FIN"},
		{name: "operations", department: "Operations", date: "2024-07-07", wantPrefix: "24OPS"},
		{name: "unknown department", department: "Astrology", date: "2024-07-07", wantPrefix: "24GEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := bus.GenerateEmployeeID(tt.department, tt.date)
			if err != nil {
				t.Fatalf("should generate an id: %s", err)
			}

			if !strings.HasPrefix(id, tt.wantPrefix) {
				t.Fatalf("id: got %q, want prefix %q", id, tt.wantPrefix)
			}

			suffix, err := strconv.Atoi(id[len(tt.wantPrefix):])
			if err != nil {
				t.Fatalf("suffix should be numeric: %s", err)
			}

			if suffix < 1000 || suffix > 9999 {
				t.Errorf("suffix: got %d, want within [1000,9999]", suffix)
			}
		})
	}
}

func TestGenerateEmployeeIDMissingInputs(t *testing.T) {
	id, err := bus.GenerateEmployeeID("", "2024-03-15")
	if err != nil || id != "" {
		t.Errorf("missing department: got (%q, %v), want empty id and nil error", id, err)
	}

	id, err = bus.GenerateEmployeeID("Engineering", "")
	if err != nil || id != "" {
		t.Errorf("missing date: got (%q, %v), want empty id and nil error", id, err)
	}

	id, err = bus.GenerateEmployeeID("Engineering", "March 15 2024")
	if err == nil {
		t.Error("unparseable date should return an error")
	}
	if id != "" {
		t.Errorf("unparseable date: got id %q, want empty", id)
	}
}

func TestGenerateEmployeeIDRandomSuffix(t *testing.T) {
	seen := make(map[string]struct{})
	for range 20 {
		id, err := bus.GenerateEmployeeID("Engineering", "2024-03-15")
		if err != nil {
			t.Fatalf("should generate an id: %s", err)
		}
		seen[id] = struct{}{}
	}

	//9000 possible suffixes, 20 draws all landing on one value means broken
	if len(seen) < 2 {
		t.Error("suffix does not look random")
	}
}

func TestConsistentEmployeeID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		dept string
		date string
		want bool
	}{
		{name: "matching", id: "24ENG1234", dept: "Engineering", date: "2024-03-15", want: true},
		{name: "same year different date", id: "24ENG1234", dept: "Engineering", date: "2024-11-30", want: true},
		{name: "department changed", id: "24ENG1234", dept: "Sales", date: "2024-03-15", want: false},
		{name: "year changed", id: "24ENG1234", dept: "Engineering", date: "2025-03-15", want: false},
		{name: "empty id", id: "", dept: "Engineering", date: "2024-03-15", want: false},
		{name: "bad date", id: "24ENG1234", dept: "Engineering", date: "bogus", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bus.ConsistentEmployeeID(tt.id, tt.dept, tt.date); got != tt.want {
				t.Errorf("got %t, want %t", got, tt.want)
			}
		})
	}
}

func TestDepartments(t *testing.T) {
	if _, err := bus.ParseDepartment("Engineering"); err != nil {
		t.Errorf("should parse a known department: %s", err)
	}

	if _, err := bus.ParseDepartment("engineering"); err == nil {
		t.Error("department names are case sensitive")
	}

	if got := bus.PrefixFor("Astrology"); got != bus.DefaultIDPrefix {
		t.Errorf("prefix: got %q, want %q", got, bus.DefaultIDPrefix)
	}

	if got := len(bus.DepartmentNames()); got != 6 {
		t.Errorf("departments: got %d, want 6", got)
	}
}
