package pipeline

import (
	"fmt"

	"censusfmt/internal"
	"censusfmt/internal/util"
)

// familyGroup is an employee plus the contiguous run of same-surname
// dependents that follows it. Indices refer to the input sequence.
type familyGroup struct {
	owner      int
	dependents []int
}

// Reconcile walks the normalized sequence, groups dependents under the
// preceding employee by the adjacency-and-surname rule, rolls voluntary
// life amounts up onto the employee, and strips benefit declarations
// from dependents. Output order: families in their original starting
// order, each owner followed by its dependents in original relative
// order, then never-grouped records appended unchanged.
//
// The surname heuristic is knowingly lossy. Two unrelated employees who
// share a surname cannot misgroup (the scan stops at the next employee
// line), but a dependent filed away from its employee will surface as a
// standalone leftover. Grouping decisions are emitted as diagnostics so
// a human can override rather than the code guessing.
func Reconcile(records []internal.CanonicalRecord) ([]internal.CanonicalRecord, []internal.Diagnostic) {
	consumed := make([]bool, len(records))
	groups := collectFamilies(records, consumed)

	out := make([]internal.CanonicalRecord, 0, len(records))
	var diags []internal.Diagnostic

	for _, g := range groups {
		owner, rollupDiags := rollUp(records, g)
		out = append(out, owner)
		if len(g.dependents) > 0 {
			diags = append(diags, internal.Diagnostic{
				Row:     g.owner,
				Code:    internal.DiagFamilyGrouped,
				Message: fmt.Sprintf("grouped %d dependent(s) under employee %s, %s", len(g.dependents), owner.MemberLastName, owner.FirstName),
			})
		}
		diags = append(diags, rollupDiags...)

		for _, idx := range g.dependents {
			dep := records[idx]
			dep.ClearBenefitFields()
			out = append(out, dep)
		}
	}

	for i, rec := range records {
		if consumed[i] {
			continue
		}
		// Never matched an owning employee. Emitted as-is, flagged for
		// human review rather than silently re-homed.
		out = append(out, rec)
		diags = append(diags, internal.Diagnostic{
			Row:     i,
			Code:    internal.DiagStandaloneDependent,
			Value:   string(rec.Relationship),
			Message: fmt.Sprintf("%s %s, %s has no owning employee in the preceding rows", rec.Relationship, rec.MemberLastName, rec.FirstName),
		})
	}

	return out, diags
}

func collectFamilies(records []internal.CanonicalRecord, consumed []bool) []familyGroup {
	var groups []familyGroup
	for i := range records {
		if consumed[i] || records[i].Relationship != internal.RelEmployee {
			continue
		}
		consumed[i] = true
		g := familyGroup{owner: i}
		for j := i + 1; j < len(records); j++ {
			if records[j].Relationship == internal.RelEmployee {
				break
			}
			// A non-matching surname does not stop the scan; the row is
			// just not part of this family.
			if !consumed[j] && records[j].MemberLastName == records[i].MemberLastName {
				consumed[j] = true
				g.dependents = append(g.dependents, j)
			}
		}
		groups = append(groups, g)
	}
	return groups
}

// rollUp consolidates dependent declarations onto a copy of the owner.
// Spouse voluntary life takes the pairwise maximum (guards against the
// same amount keyed on both lines). Child voluntary life is last real
// election wins, not max and not summed; that asymmetry is inherited
// behavior, kept on purpose.
func rollUp(records []internal.CanonicalRecord, g familyGroup) (internal.CanonicalRecord, []internal.Diagnostic) {
	owner := records[g.owner]
	var diags []internal.Diagnostic

	for _, idx := range g.dependents {
		dep := records[idx]
		switch dep.Relationship {
		case internal.RelSpouse, internal.RelDomesticPartner:
			if dep.SpouseVolumeAmount == nil {
				continue
			}
			current := 0.0
			if owner.SpouseVolumeAmount != nil {
				current = *owner.SpouseVolumeAmount
			}
			if *dep.SpouseVolumeAmount > current {
				owner.SpouseVolumeAmount = util.FloatPtr(*dep.SpouseVolumeAmount)
				diags = append(diags, internal.Diagnostic{
					Row:     idx,
					Field:   "Spouse Volume Amount",
					Code:    internal.DiagSpouseVolumeRollup,
					Value:   fmt.Sprintf("%g", *dep.SpouseVolumeAmount),
					Message: "spouse voluntary life rolled up from the spouse line onto the employee",
				})
			}
		case internal.RelChild:
			if dep.DependentVolume == nil {
				continue
			}
			if v := *dep.DependentVolume; v != "0" && v != "W" {
				owner.DependentVolume = util.StringPtr(v)
				diags = append(diags, internal.Diagnostic{
					Row:     idx,
					Field:   "Dependent Volume",
					Code:    internal.DiagChildVolumeRollup,
					Value:   v,
					Message: "child voluntary life rolled up from the child line onto the employee",
				})
			}
		}
	}

	return owner, diags
}
