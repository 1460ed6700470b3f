package authz

import (
	"context"
	"testing"

	"unihr/internal/domain/directory"
)

func eligibilityFixture() *fakeDirectory {
	dir := newFakeDirectory()
	dir.addFaculty("fac-eng", "Engineering")
	dir.addFaculty("fac-med", "Medicine")
	dir.addDepartment("dep-cs", "fac-eng", directory.DepartmentAcademic, "")
	dir.addDepartment("dep-surgery", "fac-med", directory.DepartmentAcademic, "")
	dir.addPosition("pos-lecturer", 2, "dep-cs", "")
	dir.addPosition("pos-dean-eng", directory.LevelDean, "", "fac-eng")
	dir.addEmployee("emp-lecturer", "user-lecturer", "pos-lecturer", "dep-cs")
	dir.addEmployee("emp-dean", "user-dean", "pos-dean-eng", "")
	return dir
}

func TestEligibilityEmptyListsAreUnrestricted(t *testing.T) {
	dir := eligibilityFixture()
	checker := NewEligibilityChecker(dir)

	ok, err := checker.IsEligible(context.Background(), OfferingRestrictions{}, dir.employees["emp-lecturer"])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("no restrictions should admit anyone")
	}
}

func TestEligibilityRequiresAllDimensions(t *testing.T) {
	dir := eligibilityFixture()
	checker := NewEligibilityChecker(dir)
	ctx := context.Background()
	emp := dir.employees["emp-lecturer"]

	// Faculty matches, position does not.
	ok, _ := checker.IsEligible(ctx, OfferingRestrictions{
		FacultyIDs:  []string{"fac-eng"},
		PositionIDs: []string{"pos-dean-eng"},
	}, emp)
	if ok {
		t.Fatal("matching faculty but not position must not be eligible")
	}

	// Position matches, faculty does not.
	ok, _ = checker.IsEligible(ctx, OfferingRestrictions{
		FacultyIDs:  []string{"fac-med"},
		PositionIDs: []string{"pos-lecturer"},
	}, emp)
	if ok {
		t.Fatal("matching position but not faculty must not be eligible")
	}

	// Both match.
	ok, _ = checker.IsEligible(ctx, OfferingRestrictions{
		FacultyIDs:  []string{"fac-eng"},
		PositionIDs: []string{"pos-lecturer"},
	}, emp)
	if !ok {
		t.Fatal("all matching dimensions should be eligible")
	}
}

func TestEligibilityDepartmentDimension(t *testing.T) {
	dir := eligibilityFixture()
	checker := NewEligibilityChecker(dir)
	ctx := context.Background()

	ok, _ := checker.IsEligible(ctx, OfferingRestrictions{DepartmentIDs: []string{"dep-surgery"}}, dir.employees["emp-lecturer"])
	if ok {
		t.Fatal("employee outside the allowed departments must not be eligible")
	}

	ok, _ = checker.IsEligible(ctx, OfferingRestrictions{DepartmentIDs: []string{"dep-cs"}}, dir.employees["emp-lecturer"])
	if !ok {
		t.Fatal("employee in an allowed department should be eligible")
	}
}

func TestEligibilityFacultyLevelEmployeeWithoutDepartment(t *testing.T) {
	dir := eligibilityFixture()
	checker := NewEligibilityChecker(dir)
	ctx := context.Background()
	dean := dir.employees["emp-dean"]

	// Offering restricted to the dean's faculty only: every dimension passes
	// (faculty via position, department and position unrestricted).
	ok, _ := checker.IsEligible(ctx, OfferingRestrictions{FacultyIDs: []string{"fac-eng"}}, dean)
	if !ok {
		t.Fatal("faculty-level employee of the allowed faculty should be eligible")
	}

	// Department list satisfied through a department of the dean's faculty.
	ok, _ = checker.IsEligible(ctx, OfferingRestrictions{DepartmentIDs: []string{"dep-cs"}}, dean)
	if !ok {
		t.Fatal("department list containing a department of the dean's faculty should admit the dean")
	}

	// Department list pointing outside the dean's faculty does not.
	ok, _ = checker.IsEligible(ctx, OfferingRestrictions{DepartmentIDs: []string{"dep-surgery"}}, dean)
	if ok {
		t.Fatal("department list outside the dean's faculty must not admit the dean")
	}
}

func TestEligibilityMissingContextIsNotEligible(t *testing.T) {
	dir := eligibilityFixture()
	checker := NewEligibilityChecker(dir)

	ok, _ := checker.IsEligible(context.Background(), OfferingRestrictions{FacultyIDs: []string{"fac-eng"}}, nil)
	if ok {
		t.Fatal("nil employee must not be eligible")
	}
}

func TestCapacityAccounting(t *testing.T) {
	if !HasCapacity(nil, 1000) {
		t.Fatal("nil capacity means unlimited")
	}
	if AvailableSpots(nil, 1000) != nil {
		t.Fatal("unlimited offering has no spot count")
	}

	capacity := 10
	if HasCapacity(&capacity, 10) {
		t.Fatal("full offering has no capacity")
	}
	if !HasCapacity(&capacity, 9) {
		t.Fatal("offering below capacity should accept")
	}
	if spots := AvailableSpots(&capacity, 10); spots == nil || *spots != 0 {
		t.Fatalf("expected 0 spots, got %v", spots)
	}
	if spots := AvailableSpots(&capacity, 12); spots == nil || *spots != 0 {
		t.Fatalf("overbooked offering should report 0 spots, got %v", spots)
	}
	if spots := AvailableSpots(&capacity, 4); spots == nil || *spots != 6 {
		t.Fatalf("expected 6 spots, got %v", spots)
	}
}
