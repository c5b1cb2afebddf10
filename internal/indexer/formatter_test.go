package indexer

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hameedlatif/hospital-assistant/internal/knowledge"
)

func loadTestData(t *testing.T) *HospitalData {
	t.Helper()
	data, err := LoadHospitalData(filepath.Join("testdata", "hospital.json"))
	require.NoError(t, err)
	return data
}

func entryIDs(entries []knowledge.Entry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

func TestLoadHospitalData(t *testing.T) {
	data := loadTestData(t)

	require.NotNil(t, data.HospitalInfo)
	assert.Equal(t, "Hameed Latif Hospital", data.HospitalInfo.Name)
	assert.Len(t, data.Departments, 2)
	assert.Len(t, data.AllDoctors, 2)
	assert.Len(t, data.Departments["Cardiology"].Doctors, 2)
}

func TestLoadHospitalDataMissingFile(t *testing.T) {
	_, err := LoadHospitalData(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestFormatEntriesIDScheme(t *testing.T) {
	entries := FormatEntries(loadTestData(t))

	// Ids carry the kind prefix and the running position: hospital info
	// first, then departments in name order with their doctors and
	// procedures, then standalone doctors not already covered.
	assert.Equal(t, []string{
		"hosp_0",
		"dept_1", "doc_2", "doc_3", "proc_4", "proc_5",
		"dept_6", "doc_7", "proc_8",
		"doc_9",
	}, entryIDs(entries))
}

func TestFormatEntriesKinds(t *testing.T) {
	entries := FormatEntries(loadTestData(t))

	counts := make(map[knowledge.Kind]int)
	for _, e := range entries {
		counts[e.Kind]++
	}
	assert.Equal(t, map[knowledge.Kind]int{
		knowledge.KindGeneral:    1,
		knowledge.KindDepartment: 2,
		knowledge.KindDoctor:     4,
		knowledge.KindProcedure:  3,
	}, counts)
}

func TestFormatEntriesDeduplicatesDoctors(t *testing.T) {
	entries := FormatEntries(loadTestData(t))

	seen := make(map[string]int)
	for _, e := range entries {
		if e.Kind == knowledge.KindDoctor {
			seen[e.Name]++
		}
	}
	assert.Equal(t, 1, seen["Dr. Ahmed Khan"], "a doctor listed under a department is not re-emitted from all_doctors")
	assert.Equal(t, 1, seen["Dr. Zainab Qureshi"], "doctors only present in all_doctors are still emitted")
}

func TestFormatEntriesHospitalText(t *testing.T) {
	entries := FormatEntries(loadTestData(t))

	hosp := entries[0]
	assert.Equal(t, knowledge.KindGeneral, hosp.Kind)
	assert.Equal(t,
		"Hospital: Hameed Latif Hospital | Phone: +92 (42) 111-000-043 | Address: 14- Abu Baker Block, New Garden Town, Lahore | Website: https://www.hameedlatifhospital.com",
		hosp.Text)
	assert.Equal(t, "+92 (42) 111-000-043", hosp.Metadata["phone"])
}

func TestFormatEntriesDepartmentText(t *testing.T) {
	entries := FormatEntries(loadTestData(t))

	dept := entries[1]
	assert.Equal(t, "Cardiology", dept.Name)
	assert.Contains(t, dept.Text, "DEPARTMENT: Cardiology")
	assert.Contains(t, dept.Text, "SERVICES: ECG, Echocardiography, Stress testing, Holter monitoring")
	assert.Contains(t, dept.Text, "DOCTORS: Dr. Ahmed Khan, Dr. Sara Malik")
	assert.Contains(t, dept.Text, "URL: https://www.hameedlatifhospital.com/cardiology")
	assert.NotContains(t, dept.Text, "\n", "entry texts are whitespace-collapsed")
	assert.NotContains(t, dept.Text, "  ")
}

func TestFormatEntriesDoctorMetadata(t *testing.T) {
	entries := FormatEntries(loadTestData(t))

	doc := entries[2]
	assert.Equal(t, "Dr. Ahmed Khan", doc.Name)
	assert.Contains(t, doc.Text, "DOCTOR: Dr. Ahmed Khan")
	assert.Contains(t, doc.Text, "DEPARTMENT: Cardiology")
	assert.Equal(t, "Cardiology", doc.Metadata["department"])
	assert.Equal(t, "MBBS, FCPS (Cardiology)", doc.Metadata["qualifications"])
	assert.Equal(t, "+92 (42) 111-000-043", doc.Metadata["appointment"])
}

func TestFormatEntriesCapsNestedLists(t *testing.T) {
	dept := Department{
		Name:        "Surgery",
		Description: strings.Repeat("x", 400),
		URL:         "https://example.com/surgery",
	}
	for i := 0; i < 15; i++ {
		dept.Services = append(dept.Services, "service")
		dept.Doctors = append(dept.Doctors, Doctor{Name: "Dr. " + string(rune('A'+i))})
	}
	data := &HospitalData{Departments: map[string]Department{"Surgery": dept}}

	entries := FormatEntries(data)

	var deptEntry knowledge.Entry
	doctorEntries := 0
	for _, e := range entries {
		switch e.Kind {
		case knowledge.KindDepartment:
			deptEntry = e
		case knowledge.KindDoctor:
			doctorEntries++
		}
	}

	assert.Equal(t, 12, strings.Count(deptEntry.Text, "service"), "services are capped in the entry text")
	assert.NotContains(t, deptEntry.Text, strings.Repeat("x", 301), "long descriptions are truncated")
	assert.Contains(t, deptEntry.Text, strings.Repeat("x", 300))
	assert.Equal(t, 10, strings.Count(deptEntry.Text, "Dr. "), "the doctor list in the text is capped")
	assert.Equal(t, 15, doctorEntries, "every nested doctor still gets an entry of their own")
}

func TestFormatEntriesDeterministic(t *testing.T) {
	data := loadTestData(t)
	assert.Equal(t, FormatEntries(data), FormatEntries(data))
}

func TestFormatEntriesEmptyData(t *testing.T) {
	assert.Empty(t, FormatEntries(&HospitalData{}))
}
