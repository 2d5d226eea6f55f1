package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChecklist() *Checklist {
	return &Checklist{Categories: []ChecklistCategory{
		{Name: "exterior", Items: []ChecklistItem{
			{ID: "tires", Question: "Tires ok", Required: true},
			{ID: "lights", Question: "Lights ok", Required: true},
			{ID: "paint", Question: "Paint ok"},
		}},
	}}
}

func TestEvaluateInspection(t *testing.T) {
	checklist := testChecklist()

	perfect := EvaluateInspection(checklist, map[string]InspectionResponse{
		"tires":  {Status: InspectionStatusGood},
		"lights": {Status: InspectionStatusGood},
	})
	assert.True(t, perfect.IsPerfect)
	assert.False(t, perfect.HasCriticalIssues)
	assert.Empty(t, perfect.Unanswered)

	critical := EvaluateInspection(checklist, map[string]InspectionResponse{
		"tires":  {Status: InspectionStatusPoor},
		"lights": {Status: InspectionStatusGood},
	})
	assert.True(t, critical.HasCriticalIssues)
	assert.False(t, critical.IsPerfect)

	fair := EvaluateInspection(checklist, map[string]InspectionResponse{
		"tires":  {Status: InspectionStatusFair},
		"lights": {Status: InspectionStatusNotApplicable},
	})
	assert.False(t, fair.HasCriticalIssues)
	assert.False(t, fair.IsPerfect)
}

func TestEvaluateInspectionListsUnanswered(t *testing.T) {
	eval := EvaluateInspection(testChecklist(), map[string]InspectionResponse{
		"paint": {Status: InspectionStatusMissing},
	})

	assert.Equal(t, []string{"lights", "tires"}, eval.Unanswered)
	assert.True(t, eval.HasCriticalIssues)
}

func TestEvaluateInspectionEmptyIsNotPerfect(t *testing.T) {
	eval := EvaluateInspection(&Checklist{}, nil)
	assert.False(t, eval.IsPerfect)
	assert.False(t, eval.HasCriticalIssues)
}

func TestValidateResponses(t *testing.T) {
	checklist := testChecklist()

	require.NoError(t, ValidateResponses(checklist, map[string]InspectionResponse{"tires": {Status: InspectionStatusGood}}))

	err := ValidateResponses(checklist, map[string]InspectionResponse{"wipers": {Status: InspectionStatusGood}})
	assert.ErrorIs(t, err, ErrUnknownChecklistItem)

	err = ValidateResponses(checklist, map[string]InspectionResponse{"tires": {Status: "great"}})
	assert.ErrorIs(t, err, ErrInvalidInspectionStatus)
}

func TestInspectionScore(t *testing.T) {
	inspection := &SafetyInspection{Items: []InspectionItem{
		{ItemID: "a", Status: InspectionStatusGood},
		{ItemID: "b", Status: InspectionStatusFair},
		{ItemID: "c", Status: InspectionStatusPoor},
		{ItemID: "d", Status: InspectionStatusMissing},
		{ItemID: "e", Status: InspectionStatusNotApplicable},
	}}

	score, ok := inspection.Score()
	require.True(t, ok)
	assert.InDelta(t, 37.5, score, 0.0001)
	assert.Len(t, inspection.CriticalItems(), 2)

	_, ok = (&SafetyInspection{Items: []InspectionItem{{Status: InspectionStatusNotApplicable}}}).Score()
	assert.False(t, ok)
}

func TestDefaultChecklistHasUniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	for _, category := range DefaultChecklist().Categories {
		for _, item := range category.Items {
			assert.False(t, seen[item.ID], "duplicate item %s", item.ID)
			seen[item.ID] = true
		}
	}
	assert.NotEmpty(t, DefaultChecklist().RequiredItemIDs())
}
