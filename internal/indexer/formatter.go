// Package indexer builds the knowledge base artifacts from the scraped
// hospital data: it flattens the nested JSON into entries, embeds their
// texts, and writes the entry store and vector index.
package indexer

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/hameedlatif/hospital-assistant/internal/knowledge"
)

// Caps applied when folding nested lists into an entry text. They keep one
// entry from dominating the context budget at answer time.
const (
	departmentDescriptionCap = 300
	doctorDescriptionCap     = 200
	servicesCap              = 12
	facilitiesCap            = 3
	proceduresCap            = 15
	doctorNamesCap           = 10
)

// HospitalInfo is the hospital-wide block of the scraped data.
type HospitalInfo struct {
	Name      string `json:"name"`
	MainPhone string `json:"main_phone"`
	Address   string `json:"address"`
	Website   string `json:"website"`
}

// Doctor is one doctor profile, either nested under a department or listed
// in the standalone all_doctors section.
type Doctor struct {
	Name              string   `json:"name"`
	Specialization    string   `json:"specialization"`
	Qualifications    []string `json:"qualifications"`
	AreasOfExpertise  []string `json:"areas_of_expertise"`
	AppointmentNumber string   `json:"appointment_number"`
	Description       string   `json:"description"`
}

// Department is one clinical department with its nested doctors.
type Department struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Services    []string `json:"services"`
	Facilities  []string `json:"facilities"`
	Procedures  []string `json:"procedures"`
	Doctors     []Doctor `json:"doctors"`
	URL         string   `json:"url"`
}

// HospitalData is the root of the scraped hospital JSON.
type HospitalData struct {
	HospitalInfo *HospitalInfo         `json:"hospital_info"`
	Departments  map[string]Department `json:"departments"`
	AllDoctors   map[string]Doctor     `json:"all_doctors"`
}

// LoadHospitalData reads and parses the scraped hospital JSON file.
func LoadHospitalData(path string) (*HospitalData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read hospital data '%s': %w", path, err)
	}
	var data HospitalData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse hospital data '%s': %w", path, err)
	}
	return &data, nil
}

// FormatEntries flattens the hospital data into knowledge entries. Entry ids
// carry the kind prefix and the entry's position in the emitted sequence
// (hosp_0, dept_1, doc_2, ...). Departments and standalone doctors are
// walked in name order so the same input always yields the same entries;
// a doctor already emitted under a department is not emitted again from the
// all_doctors section.
func FormatEntries(data *HospitalData) []knowledge.Entry {
	var entries []knowledge.Entry
	seenDoctors := make(map[string]bool)

	if hosp := data.HospitalInfo; hosp != nil {
		entries = append(entries, knowledge.Entry{
			ID:   fmt.Sprintf("hosp_%d", len(entries)),
			Kind: knowledge.KindGeneral,
			Name: hosp.Name,
			Text: fmt.Sprintf("Hospital: %s | Phone: %s | Address: %s | Website: %s",
				hosp.Name, hosp.MainPhone, hosp.Address, hosp.Website),
			Metadata: metadata(map[string]string{
				"phone":   hosp.MainPhone,
				"address": hosp.Address,
				"website": hosp.Website,
			}),
		})
	}

	for _, deptName := range sortedKeys(data.Departments) {
		dept := data.Departments[deptName]

		entries = append(entries, knowledge.Entry{
			ID:   fmt.Sprintf("dept_%d", len(entries)),
			Kind: knowledge.KindDepartment,
			Name: dept.Name,
			Text: departmentText(dept),
			Metadata: metadata(map[string]string{
				"department": dept.Name,
				"url":        dept.URL,
			}),
		})

		for _, doc := range dept.Doctors {
			seenDoctors[doc.Name] = true
			entries = append(entries, knowledge.Entry{
				ID:   fmt.Sprintf("doc_%d", len(entries)),
				Kind: knowledge.KindDoctor,
				Name: doc.Name,
				Text: doctorText(doc, dept),
				Metadata: metadata(map[string]string{
					"department":     dept.Name,
					"specialization": doc.Specialization,
					"qualifications": strings.Join(doc.Qualifications, ", "),
					"appointment":    doc.AppointmentNumber,
				}),
			})
		}

		for _, proc := range dept.Procedures {
			entries = append(entries, knowledge.Entry{
				ID:   fmt.Sprintf("proc_%d", len(entries)),
				Kind: knowledge.KindProcedure,
				Name: proc,
				Text: collapse(fmt.Sprintf("PROCEDURE: %s DEPARTMENT: %s URL: %s", proc, dept.Name, dept.URL)),
				Metadata: metadata(map[string]string{
					"department": dept.Name,
				}),
			})
		}
	}

	for _, docName := range sortedKeys(data.AllDoctors) {
		if seenDoctors[docName] {
			continue
		}
		doc := data.AllDoctors[docName]
		entries = append(entries, knowledge.Entry{
			ID:   fmt.Sprintf("doc_%d", len(entries)),
			Kind: knowledge.KindDoctor,
			Name: doc.Name,
			Text: standaloneDoctorText(doc),
			Metadata: metadata(map[string]string{
				"specialization": doc.Specialization,
				"qualifications": strings.Join(doc.Qualifications, ", "),
				"appointment":    doc.AppointmentNumber,
			}),
		})
	}

	return entries
}

func departmentText(dept Department) string {
	names := make([]string, 0, doctorNamesCap)
	for _, doc := range capSlice(dept.Doctors, doctorNamesCap) {
		names = append(names, doc.Name)
	}
	return collapse(fmt.Sprintf(
		"DEPARTMENT: %s DESCRIPTION: %s SERVICES: %s FACILITIES: %s PROCEDURES: %s DOCTORS: %s URL: %s",
		dept.Name,
		truncate(dept.Description, departmentDescriptionCap),
		strings.Join(capSlice(dept.Services, servicesCap), ", "),
		strings.Join(capSlice(dept.Facilities, facilitiesCap), ", "),
		strings.Join(capSlice(dept.Procedures, proceduresCap), ", "),
		strings.Join(names, ", "),
		dept.URL,
	))
}

func doctorText(doc Doctor, dept Department) string {
	return collapse(fmt.Sprintf(
		"DOCTOR: %s SPECIALIZATION: %s QUALIFICATIONS: %s EXPERTISE: %s APPOINTMENT: %s DEPARTMENT: %s URL: %s",
		doc.Name,
		doc.Specialization,
		strings.Join(doc.Qualifications, ", "),
		strings.Join(doc.AreasOfExpertise, ", "),
		doc.AppointmentNumber,
		dept.Name,
		dept.URL,
	))
}

func standaloneDoctorText(doc Doctor) string {
	return collapse(fmt.Sprintf(
		"DOCTOR: %s SPECIALIZATION: %s QUALIFICATIONS: %s EXPERTISE: %s APPOINTMENT: %s DESCRIPTION: %s",
		doc.Name,
		doc.Specialization,
		strings.Join(doc.Qualifications, ", "),
		strings.Join(doc.AreasOfExpertise, ", "),
		doc.AppointmentNumber,
		truncate(doc.Description, doctorDescriptionCap),
	))
}

// collapse squeezes all whitespace runs into single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate keeps at most max characters.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func capSlice[T any](s []T, max int) []T {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// metadata drops empty values so entries only carry fields that exist.
func metadata(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		if v != "" {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
