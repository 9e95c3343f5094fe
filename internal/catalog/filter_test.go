package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var patients = []Patient{
	{PatientID: "P-100", Name: "Asha Verma"},
	{PatientID: "P-101", Name: "Ravi Kumar"},
	{ID: "x-7", Name: "Meera Nair"},
}

func TestFilterPatients(t *testing.T) {
	assert.Equal(t, patients, FilterPatients(patients, ""), "empty query keeps every record in order")
	assert.Equal(t, patients, FilterPatients(patients, "   "))

	got := FilterPatients(patients, "zzz")
	assert.NotNil(t, got)
	assert.Empty(t, got)

	assert.Equal(t, []Patient{patients[1]}, FilterPatients(patients, "KUMAR"))
	assert.Equal(t, []Patient{patients[0]}, FilterPatients(patients, "p-100"))
	assert.Equal(t, []Patient{patients[2]}, FilterPatients(patients, "X-7"), "falls back to id")
	assert.Equal(t, []Patient{patients[0], patients[1]}, FilterPatients(patients, "p-10"))
}

func TestFilterFoods(t *testing.T) {
	foods := []FoodItem{
		{Name: "Basmati Rice", Category: "Grains"},
		{Name: "Mung Dal", Category: "Legumes"},
		{Name: "Ghee", Category: "Dairy"},
	}
	assert.Equal(t, []FoodItem{foods[0]}, FilterFoods(foods, "grain"))
	assert.Equal(t, []FoodItem{foods[1]}, FilterFoods(foods, "dal"))
	assert.Equal(t, foods, FilterFoods(foods, ""))
}

func TestFilterPlansAndStats(t *testing.T) {
	plans := []PlanRecord{
		{ID: "1", PatientName: "Asha Verma", Status: PlanActive},
		{ID: "2", PatientName: "Ravi Kumar", Status: "Draft"},
		{ID: "3", PatientName: "Asha Verma", Status: PlanCompleted},
		{ID: "4", PatientName: "Meera Nair", Status: PlanPublished},
	}
	assert.Equal(t, []PlanRecord{plans[0], plans[2]}, FilterPlans(plans, "asha", ""))
	assert.Equal(t, []PlanRecord{plans[2]}, FilterPlans(plans, "asha", "completed"))
	assert.Equal(t, []PlanRecord{plans[1]}, FilterPlans(plans, "", "draft"))
	assert.Equal(t, plans, FilterPlans(plans, "", "all"))

	assert.Equal(t, PlanStats{Total: 4, Active: 2, Draft: 1, Completed: 1}, Stats(plans))
}

func TestPlanStatusSettable(t *testing.T) {
	assert.True(t, PlanStatus(" Active ").Settable())
	assert.True(t, PlanCancelled.Settable())
	assert.False(t, PlanDraft.Settable())
	assert.False(t, PlanPublished.Settable())
}
